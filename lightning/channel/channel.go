package channel

import (
	"sync"
	"sync/atomic"

	"github.com/supernova-labs/supernova/chainhash"
)

// Channel is the atomic unit of the payment-channel layer (spec.md
// §4.10). htlcMu is the HTLC lock: every state-changing operation blocks
// on it, so concurrent add/settle/fail calls queue rather than race.
// operationInProgress mirrors the flag original_source's add_htlc/
// settle_htlc set and clear around the same critical section once the
// lock is held; it is redundant for exclusion (the mutex already
// serializes callers) and only trips ErrKindAborted if the flag was left
// set after the lock was released. A re-entrant call on the same
// goroutine blocks on htlcMu before the flag is checked.
type Channel struct {
	cfg Config

	htlcMu              sync.Mutex
	operationInProgress atomic.Bool

	stateMu sync.Mutex
	state   State

	localBalance  atomic.Uint64
	remoteBalance atomic.Uint64

	commitmentNumber atomic.Uint64
	sequence         atomic.Uint64

	htlcsMu      sync.RWMutex
	pendingHTLCs map[uint64]HTLC
}

// New constructs a channel in the Initializing state with the given
// opening balances. localBalance + remoteBalance must equal cfg.Capacity.
func New(cfg Config, localBalance, remoteBalance uint64) *Channel {
	c := &Channel{
		cfg:          cfg,
		state:        Initializing,
		pendingHTLCs: make(map[uint64]HTLC),
	}
	c.localBalance.Store(localBalance)
	c.remoteBalance.Store(remoteBalance)
	return c
}

// State returns the channel's current lifecycle stage.
func (c *Channel) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

// Balances returns the current local and remote balances.
func (c *Channel) Balances() (local, remote uint64) {
	return c.localBalance.Load(), c.remoteBalance.Load()
}

// CommitmentNumber returns the monotonically increasing commitment
// counter, incremented by every HTLC add/settle/fail.
func (c *Channel) CommitmentNumber() uint64 {
	return c.commitmentNumber.Load()
}

// PendingHTLCCount reports how many HTLCs are currently outstanding.
func (c *Channel) PendingHTLCCount() int {
	c.htlcsMu.RLock()
	defer c.htlcsMu.RUnlock()
	return len(c.pendingHTLCs)
}

// PendingHTLCs returns a snapshot of the currently outstanding HTLCs.
func (c *Channel) PendingHTLCs() []HTLC {
	c.htlcsMu.RLock()
	defer c.htlcsMu.RUnlock()
	out := make([]HTLC, 0, len(c.pendingHTLCs))
	for _, h := range c.pendingHTLCs {
		out = append(out, h)
	}
	return out
}

// TransitionState moves the channel to to, rejecting any pair not listed
// in the §3 transition table (same-state is always a no-op success).
func (c *Channel) TransitionState(to State) error {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	if !isValidTransition(c.state, to) {
		return errKindf(ErrKindInvalidTransition, "invalid state transition from %s to %s", c.state, to)
	}
	c.state = to
	return nil
}

// beginOperation blocks until the HTLC lock is free, then sets
// operationInProgress. A concurrent add/settle/fail on the same channel
// queues behind this call rather than being rejected. The CAS on
// operationInProgress can never fail in normal operation — the prior
// holder always clears it before unlocking — but guards against the flag
// being left set by a future code path that forgets to call the release
// func returned here. The returned func releases both and must run on
// every exit path, success or error.
func (c *Channel) beginOperation() (func(), error) {
	c.htlcMu.Lock()
	if !c.operationInProgress.CompareAndSwap(false, true) {
		c.htlcMu.Unlock()
		return nil, errKind(ErrKindAborted, "another operation is in progress")
	}
	return func() {
		c.operationInProgress.Store(false)
		c.htlcMu.Unlock()
	}, nil
}

// updateBalances applies updater via a bounded compare-and-swap retry
// loop: read both balances, compute the new pair, then CAS each in turn.
// If the second CAS fails after the first succeeded, the first is rolled
// back and the whole attempt retried, so no partial update is ever
// observable (spec.md §4.10's add_htlc paragraph).
func (c *Channel) updateBalances(updater func(local, remote uint64) (newLocal, newRemote uint64, err error)) error {
	for attempt := 0; attempt < maxBalanceCASRetries; attempt++ {
		local := c.localBalance.Load()
		remote := c.remoteBalance.Load()

		newLocal, newRemote, err := updater(local, remote)
		if err != nil {
			return err
		}

		if !c.localBalance.CompareAndSwap(local, newLocal) {
			continue
		}
		if c.remoteBalance.CompareAndSwap(remote, newRemote) {
			return nil
		}
		// Second CAS lost the race: roll back the first so the pair
		// never observes a half-applied update, then retry.
		c.localBalance.CompareAndSwap(newLocal, local)
	}
	return errKind(ErrKindBalanceCASExhausted, "failed to update balances atomically after maximum retries")
}

// AddHTLC adds a new HTLC, deducting amount from the appropriate balance
// per direction (Offered locks local, Received locks remote). Returns the
// freshly assigned htlc_id.
func (c *Channel) AddHTLC(paymentHash chainhash.Hash, amount uint64, expiryHeight uint32, direction Direction) (uint64, error) {
	release, err := c.beginOperation()
	if err != nil {
		return 0, err
	}
	defer release()

	if c.State() != Active {
		return 0, errKind(ErrKindInvalidState, "channel must be active to add an HTLC")
	}

	err = c.updateBalances(func(local, remote uint64) (uint64, uint64, error) {
		switch direction {
		case Offered:
			if local < amount {
				return 0, 0, errKindf(ErrKindInsufficientBalance, "insufficient local balance: %d < %d", local, amount)
			}
			return local - amount, remote, nil
		default:
			if remote < amount {
				return 0, 0, errKindf(ErrKindInsufficientBalance, "insufficient remote balance: %d < %d", remote, amount)
			}
			return local, remote - amount, nil
		}
	})
	if err != nil {
		return 0, err
	}

	htlcID := c.sequence.Add(1) - 1
	c.htlcsMu.Lock()
	c.pendingHTLCs[htlcID] = HTLC{
		ID:           htlcID,
		PaymentHash:  paymentHash,
		Amount:       amount,
		ExpiryHeight: expiryHeight,
		Direction:    direction,
	}
	c.htlcsMu.Unlock()

	c.commitmentNumber.Add(1)
	return htlcID, nil
}

// SettleHTLC credits amount to the counterparty of htlc's direction
// (Offered→remote, Received→local) once preimage is shown to hash to the
// HTLC's payment_hash, then removes it.
func (c *Channel) SettleHTLC(htlcID uint64, preimage [32]byte) error {
	release, err := c.beginOperation()
	if err != nil {
		return err
	}
	defer release()

	htlc, ok := c.lookupHTLC(htlcID)
	if !ok {
		return errKindf(ErrKindHTLCNotFound, "htlc %d not found", htlcID)
	}
	if chainhash.HashH(preimage[:]) != htlc.PaymentHash {
		return errKind(ErrKindInvalidPreimage, "preimage does not hash to the HTLC's payment_hash")
	}

	if err := c.updateBalances(func(local, remote uint64) (uint64, uint64, error) {
		if htlc.Direction == Offered {
			return local, remote + htlc.Amount, nil
		}
		return local + htlc.Amount, remote, nil
	}); err != nil {
		return err
	}

	c.removeHTLC(htlcID)
	c.commitmentNumber.Add(1)
	return nil
}

// FailHTLC credits amount back to the original direction (Offered→local,
// Received→remote) and removes the HTLC.
func (c *Channel) FailHTLC(htlcID uint64, reason string) error {
	release, err := c.beginOperation()
	if err != nil {
		return err
	}
	defer release()

	htlc, ok := c.lookupHTLC(htlcID)
	if !ok {
		return errKindf(ErrKindHTLCNotFound, "htlc %d not found", htlcID)
	}

	if err := c.updateBalances(func(local, remote uint64) (uint64, uint64, error) {
		if htlc.Direction == Offered {
			return local + htlc.Amount, remote, nil
		}
		return local, remote + htlc.Amount, nil
	}); err != nil {
		return err
	}

	c.removeHTLC(htlcID)
	c.commitmentNumber.Add(1)
	log.Warnf("channel %s: failed htlc %d: %s", c.cfg.ChannelID, htlcID, reason)
	return nil
}

func (c *Channel) lookupHTLC(id uint64) (HTLC, bool) {
	c.htlcsMu.RLock()
	defer c.htlcsMu.RUnlock()
	h, ok := c.pendingHTLCs[id]
	return h, ok
}

func (c *Channel) removeHTLC(id uint64) {
	c.htlcsMu.Lock()
	defer c.htlcsMu.Unlock()
	delete(c.pendingHTLCs, id)
}
