package channel

import (
	"github.com/supernova-labs/supernova/wire"
)

// CommitmentTransaction pairs the built transaction with the expiry
// height attached to each HTLC output, keyed by output index. A full
// Lightning deployment enforces those timelocks with dedicated
// HTLC-timeout/HTLC-success transactions spending this one; that second
// tier is out of scope here; ExpiryHeights records the constraint so a
// higher layer (or the watchtower, C12) can act on it.
type CommitmentTransaction struct {
	Tx            *wire.Transaction
	ExpiryHeights map[int]uint32
}

// BuildCommitmentTransaction assembles the latest commitment transaction:
// one output paying the current local balance to the local close script,
// one paying the current remote balance to the remote close script, and
// one per pending HTLC paying its amount back to the close script of
// whichever side would recover the funds if the HTLC times out.
func (c *Channel) BuildCommitmentTransaction() *CommitmentTransaction {
	local, remote := c.Balances()
	htlcs := c.PendingHTLCs()

	tx := &wire.Transaction{
		Inputs: []*wire.Input{{Prev: c.cfg.FundingOutpoint, Sequence: 0xffffffff}},
	}
	expiries := make(map[int]uint32, len(htlcs))

	if local > 0 {
		tx.Outputs = append(tx.Outputs, &wire.Output{Value: local, ScriptPubKey: c.cfg.LocalCloseScript.ScriptPubKey})
	}
	if remote > 0 {
		tx.Outputs = append(tx.Outputs, &wire.Output{Value: remote, ScriptPubKey: c.cfg.RemoteCloseScript.ScriptPubKey})
	}
	for _, h := range htlcs {
		script := c.cfg.RemoteCloseScript.ScriptPubKey
		if h.Direction == Offered {
			// An offered HTLC's timeout path returns funds to the
			// offering (local) side.
			script = c.cfg.LocalCloseScript.ScriptPubKey
		}
		tx.Outputs = append(tx.Outputs, &wire.Output{Value: h.Amount, ScriptPubKey: script})
		expiries[len(tx.Outputs)-1] = h.ExpiryHeight
	}

	return &CommitmentTransaction{Tx: tx, ExpiryHeights: expiries}
}
