package channel

import (
	"encoding/binary"

	"github.com/supernova-labs/supernova/wire"
)

// CooperativeClose transitions the channel to Closed and builds the
// settlement transaction paying current balances to each party's close
// script (spec.md §4.10). Both signatures must already be produced by
// the respective parties over wire.SigningDigest(tx) and are packed into
// the transaction's QuantumSignatureData field.
func (c *Channel) CooperativeClose(localSig, remoteSig []byte) (*wire.Transaction, error) {
	release, err := c.beginOperation()
	if err != nil {
		return nil, err
	}
	defer release()

	if c.State() == Active {
		if err := c.TransitionState(ClosingNegotiation); err != nil {
			return nil, err
		}
	}

	local, remote := c.Balances()
	tx := &wire.Transaction{
		Inputs: []*wire.Input{{Prev: c.cfg.FundingOutpoint, Sequence: 0xffffffff}},
		Outputs: []*wire.Output{
			{Value: local, ScriptPubKey: c.cfg.LocalCloseScript.ScriptPubKey},
			{Value: remote, ScriptPubKey: c.cfg.RemoteCloseScript.ScriptPubKey},
		},
		QuantumSignatureData: encodeSigPair(localSig, remoteSig),
	}

	if err := c.TransitionState(Closed); err != nil {
		return nil, err
	}
	return tx, nil
}

// ForceClose transitions the channel to ForceClosed and returns the
// latest local commitment transaction for unilateral broadcast. If the
// counterparty later publishes a revoked commitment instead, punishment
// is the watchtower's responsibility (C12), not this package's.
func (c *Channel) ForceClose() (*CommitmentTransaction, error) {
	release, err := c.beginOperation()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := c.TransitionState(ForceClosed); err != nil {
		return nil, err
	}
	return c.BuildCommitmentTransaction(), nil
}

// encodeSigPair packs two signatures as length-prefixed (uint32 BE)
// fields, mirroring the quantum package's own part-encoding convention.
func encodeSigPair(a, b []byte) []byte {
	var out []byte
	for _, p := range [][]byte{a, b} {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
		out = append(out, lenBuf[:]...)
		out = append(out, p...)
	}
	return out
}
