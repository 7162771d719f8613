package utxo

import (
	"os"
	"testing"

	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/wire"
)

func mustTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "supernova-utxo-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func fundingTx(hashByte byte) UtxoTransaction {
	var h chainhash.Hash
	h[0] = hashByte
	op := wire.NewOutPoint(h, 0)
	return UtxoTransaction{
		Outputs: []OutputEntry{
			{OutPoint: op, Output: UnspentOutput{Value: 1000, Height: 1}},
		},
	}
}

func TestEngineApplyAndSpend(t *testing.T) {
	e, err := Open(mustTempDir(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	fund := fundingTx(0x01)
	if err := e.Apply(fund); err != nil {
		t.Fatalf("Apply funding: %v", err)
	}
	if e.Len() != 1 {
		t.Fatalf("expected 1 unspent output, got %d", e.Len())
	}

	spend := UtxoTransaction{Inputs: []wire.OutPoint{fund.Outputs[0].OutPoint}}
	if err := e.Apply(spend); err != nil {
		t.Fatalf("Apply spend: %v", err)
	}
	if e.Len() != 0 {
		t.Fatalf("expected 0 unspent outputs after spend, got %d", e.Len())
	}

	if err := e.Apply(spend); err == nil {
		t.Fatalf("expected second spend of the same input to fail")
	} else if serr, ok := err.(*Error); !ok || serr.Kind != ErrKindAlreadySpent {
		t.Fatalf("expected ErrKindAlreadySpent, got %v", err)
	}
}

func TestEngineRejectsUnknownInput(t *testing.T) {
	e, err := Open(mustTempDir(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	var h chainhash.Hash
	h[0] = 0xff
	spend := UtxoTransaction{Inputs: []wire.OutPoint{wire.NewOutPoint(h, 0)}}
	err = e.Apply(spend)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindUtxoNotFound {
		t.Fatalf("expected ErrKindUtxoNotFound, got %v", err)
	}
}

func TestEngineCheckDoubleSpend(t *testing.T) {
	e, err := Open(mustTempDir(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer e.Close()

	fund := fundingTx(0x02)
	if err := e.Apply(fund); err != nil {
		t.Fatalf("Apply funding: %v", err)
	}
	spend := UtxoTransaction{Inputs: []wire.OutPoint{fund.Outputs[0].OutPoint}}
	if e.CheckDoubleSpend(spend) {
		t.Fatalf("spend of a fresh unspent output should not be flagged")
	}
	if err := e.Apply(spend); err != nil {
		t.Fatalf("Apply spend: %v", err)
	}
	if !e.CheckDoubleSpend(spend) {
		t.Fatalf("spend of an already-spent output must be flagged")
	}
}

func TestEngineSaveLoadRoundTrip(t *testing.T) {
	dir := mustTempDir(t)
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	fund := fundingTx(0x03)
	if err := e.Apply(fund); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if err := e.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	e.Close()

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.Len() != 1 {
		t.Fatalf("expected persisted snapshot to round trip 1 output, got %d", reopened.Len())
	}
	out, err := reopened.Get(fund.Outputs[0].OutPoint)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Value != 1000 {
		t.Fatalf("expected value 1000, got %d", out.Value)
	}
}

func TestEngineWALReplaySurvivesRestart(t *testing.T) {
	dir := mustTempDir(t)
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Simulate a crash between step 2 (WAL append) and step 5 (truncate):
	// append the record directly without going through Apply, which would
	// truncate the WAL itself on success.
	fund := fundingTx(0x04)
	if err := e.wal.append(fund); err != nil {
		t.Fatalf("append: %v", err)
	}
	e.wal.close()

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen after simulated crash: %v", err)
	}
	defer reopened.Close()
	if reopened.Len() != 1 {
		t.Fatalf("expected WAL replay to recover 1 output, got %d", reopened.Len())
	}

	// Replay must be idempotent: a second restart with the now-truncated
	// WAL leaves state unchanged.
	reopened.Close()
	again, err := Open(dir)
	if err != nil {
		t.Fatalf("second reopen: %v", err)
	}
	defer again.Close()
	if again.Len() != 1 {
		t.Fatalf("expected idempotent replay to still show 1 output, got %d", again.Len())
	}
}

func TestInverseRoundTrip(t *testing.T) {
	fund := fundingTx(0x05)
	spend := UtxoTransaction{Inputs: []wire.OutPoint{fund.Outputs[0].OutPoint}}
	inv := spend.Inverse([]UnspentOutput{fund.Outputs[0].Output})
	if len(inv.Outputs) != 1 || inv.Outputs[0].OutPoint != fund.Outputs[0].OutPoint {
		t.Fatalf("expected inverse to recreate the original output")
	}
	if inv.Outputs[0].Output.Value != 1000 {
		t.Fatalf("expected inverse output value 1000, got %d", inv.Outputs[0].Output.Value)
	}
}
