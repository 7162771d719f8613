package channel

import (
	"sync"
	"testing"

	"github.com/supernova-labs/supernova/chainhash"
)

func activeChannel(t *testing.T, local, remote uint64) *Channel {
	t.Helper()
	c := New(Config{Capacity: local + remote}, local, remote)
	if err := c.TransitionState(FundingCreated); err != nil {
		t.Fatalf("FundingCreated: %v", err)
	}
	if err := c.TransitionState(FundingSigned); err != nil {
		t.Fatalf("FundingSigned: %v", err)
	}
	if err := c.TransitionState(Active); err != nil {
		t.Fatalf("Active: %v", err)
	}
	return c
}

func TestStateTransitionsRejectSkippingStages(t *testing.T) {
	c := New(Config{}, 0, 0)
	if err := c.TransitionState(Active); err == nil {
		t.Fatal("expected Initializing -> Active to be rejected")
	}
	if err := c.TransitionState(Initializing); err != nil {
		t.Fatalf("same-state transition should be a no-op: %v", err)
	}
}

func TestAddSettleHTLCRoundTrip(t *testing.T) {
	c := activeChannel(t, 600000, 400000)

	var preimage [32]byte
	preimage[0] = 3
	paymentHash := chainhash.HashH(preimage[:])

	htlcID, err := c.AddHTLC(paymentHash, 100000, 500000, Offered)
	if err != nil {
		t.Fatalf("AddHTLC: %v", err)
	}
	local, remote := c.Balances()
	if local != 500000 || remote != 400000 {
		t.Fatalf("got (%d, %d), want (500000, 400000)", local, remote)
	}

	if err := c.SettleHTLC(htlcID, preimage); err != nil {
		t.Fatalf("SettleHTLC: %v", err)
	}
	local, remote = c.Balances()
	if local != 500000 || remote != 500000 {
		t.Fatalf("got (%d, %d), want (500000, 500000)", local, remote)
	}
	if c.PendingHTLCCount() != 0 {
		t.Fatalf("expected no pending HTLCs after settle")
	}
	if c.CommitmentNumber() != 2 {
		t.Fatalf("expected commitment_number 2, got %d", c.CommitmentNumber())
	}
}

func TestSettleHTLCRejectsWrongPreimage(t *testing.T) {
	c := activeChannel(t, 600000, 400000)
	var preimage [32]byte
	preimage[0] = 3
	paymentHash := chainhash.HashH(preimage[:])

	htlcID, err := c.AddHTLC(paymentHash, 100000, 500000, Offered)
	if err != nil {
		t.Fatalf("AddHTLC: %v", err)
	}

	var wrong [32]byte
	wrong[0] = 9
	err = c.SettleHTLC(htlcID, wrong)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindInvalidPreimage {
		t.Fatalf("expected ErrKindInvalidPreimage, got %v", err)
	}
}

func TestFailHTLCRefundsOriginalDirection(t *testing.T) {
	c := activeChannel(t, 600000, 400000)
	var paymentHash chainhash.Hash
	paymentHash[0] = 7

	htlcID, err := c.AddHTLC(paymentHash, 100000, 500000, Received)
	if err != nil {
		t.Fatalf("AddHTLC: %v", err)
	}
	local, remote := c.Balances()
	if local != 600000 || remote != 300000 {
		t.Fatalf("got (%d, %d), want (600000, 300000)", local, remote)
	}

	if err := c.FailHTLC(htlcID, "downstream timeout"); err != nil {
		t.Fatalf("FailHTLC: %v", err)
	}
	local, remote = c.Balances()
	if local != 600000 || remote != 400000 {
		t.Fatalf("got (%d, %d), want (600000, 400000)", local, remote)
	}
}

func TestAddHTLCRejectsInsufficientBalance(t *testing.T) {
	c := activeChannel(t, 50000, 400000)
	var paymentHash chainhash.Hash
	_, err := c.AddHTLC(paymentHash, 100000, 500000, Offered)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindInsufficientBalance {
		t.Fatalf("expected ErrKindInsufficientBalance, got %v", err)
	}
}

func TestAddHTLCRejectsWhenNotActive(t *testing.T) {
	c := New(Config{Capacity: 1000}, 1000, 0)
	var paymentHash chainhash.Hash
	_, err := c.AddHTLC(paymentHash, 100, 500, Offered)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindInvalidState {
		t.Fatalf("expected ErrKindInvalidState, got %v", err)
	}
}

// TestConcurrentAddHTLC mirrors the ten-thread concurrent add scenario of
// spec.md §8: local_balance (800,000) comfortably covers all ten 10,000
// HTLCs, so every attempt queues behind the HTLC lock and succeeds — none
// is rejected merely for arriving concurrently — and the channel balance
// invariant holds afterward.
func TestConcurrentAddHTLC(t *testing.T) {
	c := activeChannel(t, 800000, 200000)

	const attempts = 10
	const amount = 10000
	var wg sync.WaitGroup
	successes := make([]bool, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var paymentHash chainhash.Hash
			paymentHash[0] = byte(i)
			_, err := c.AddHTLC(paymentHash, amount, 500000, Offered)
			successes[i] = err == nil
		}(i)
	}
	wg.Wait()

	var successCount uint64
	for i, ok := range successes {
		if ok {
			successCount++
		} else {
			t.Errorf("attempt %d failed unexpectedly", i)
		}
	}
	if successCount != attempts {
		t.Fatalf("successCount = %d, want %d (all fit within balance)", successCount, attempts)
	}

	local, remote := c.Balances()
	if local != 800000-successCount*amount {
		t.Fatalf("local balance %d, want %d", local, 800000-successCount*amount)
	}
	if local+remote+successCount*amount != 1000000 {
		t.Fatalf("channel balance invariant violated: local=%d remote=%d successes=%d", local, remote, successCount)
	}
}

func TestCooperativeCloseBuildsSettlementTransaction(t *testing.T) {
	c := activeChannel(t, 600000, 400000)
	c.cfg.LocalCloseScript = CloseScript{ScriptPubKey: []byte{1}}
	c.cfg.RemoteCloseScript = CloseScript{ScriptPubKey: []byte{2}}

	tx, err := c.CooperativeClose([]byte("local-sig"), []byte("remote-sig"))
	if err != nil {
		t.Fatalf("CooperativeClose: %v", err)
	}
	if len(tx.Outputs) != 2 {
		t.Fatalf("expected 2 outputs, got %d", len(tx.Outputs))
	}
	if tx.Outputs[0].Value != 600000 || tx.Outputs[1].Value != 400000 {
		t.Fatalf("unexpected output values: %+v", tx.Outputs)
	}
	if c.State() != Closed {
		t.Fatalf("expected Closed, got %s", c.State())
	}
}

func TestForceCloseReturnsCommitmentWithHTLCOutputs(t *testing.T) {
	c := activeChannel(t, 600000, 400000)
	var paymentHash chainhash.Hash
	paymentHash[0] = 1
	if _, err := c.AddHTLC(paymentHash, 50000, 500000, Offered); err != nil {
		t.Fatalf("AddHTLC: %v", err)
	}

	commitment, err := c.ForceClose()
	if err != nil {
		t.Fatalf("ForceClose: %v", err)
	}
	if len(commitment.Tx.Outputs) != 3 { // to_local, to_remote, one HTLC
		t.Fatalf("expected 3 outputs, got %d", len(commitment.Tx.Outputs))
	}
	if len(commitment.ExpiryHeights) != 1 {
		t.Fatalf("expected 1 HTLC expiry entry, got %d", len(commitment.ExpiryHeights))
	}
	if c.State() != ForceClosed {
		t.Fatalf("expected ForceClosed, got %s", c.State())
	}
}

func TestSecondConcurrentOperationAbortsImmediately(t *testing.T) {
	c := activeChannel(t, 600000, 400000)

	release, err := c.beginOperation()
	if err != nil {
		t.Fatalf("beginOperation: %v", err)
	}
	defer release()

	var paymentHash chainhash.Hash
	_, err = c.AddHTLC(paymentHash, 1000, 500000, Offered)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindAborted {
		t.Fatalf("expected ErrKindAborted, got %v", err)
	}
}
