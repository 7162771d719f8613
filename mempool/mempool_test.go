package mempool

import (
	"testing"

	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/wire"
)

func testTx(prevByte byte, outIndex uint32, value uint64) *wire.Transaction {
	var h chainhash.Hash
	h[0] = prevByte
	return &wire.Transaction{
		Version: 1,
		Inputs: []*wire.Input{
			{Prev: wire.NewOutPoint(h, outIndex), SignatureScript: []byte{1}},
		},
		Outputs: []*wire.Output{
			{Value: value, ScriptPubKey: []byte{1}},
		},
	}
}

func defaultConfig() Config {
	return Config{
		MaxSize:                  100,
		MinFeeRate:               1,
		MaxAgeSeconds:            3600,
		EnableRBF:                true,
		MinRBFFeeIncreasePercent: 10,
	}
}

func TestAddTransactionBasic(t *testing.T) {
	p := New(defaultConfig(), nil)
	tx := testTx(0x01, 0, 1000)
	if err := p.AddTransaction(tx, 5, false); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	if p.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", p.Len())
	}
	if !p.Contains(tx.TxHash()) {
		t.Fatalf("expected pool to contain transaction")
	}
}

func TestAddTransactionExists(t *testing.T) {
	p := New(defaultConfig(), nil)
	tx := testTx(0x02, 0, 1000)
	if err := p.AddTransaction(tx, 5, false); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	err := p.AddTransaction(tx, 5, false)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindTransactionExists {
		t.Fatalf("expected ErrKindTransactionExists, got %v", err)
	}
}

func TestAddTransactionFeeTooLow(t *testing.T) {
	cfg := defaultConfig()
	cfg.MinFeeRate = 10
	p := New(cfg, nil)
	tx := testTx(0x03, 0, 1000)
	err := p.AddTransaction(tx, 5, false)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindFeeTooLow {
		t.Fatalf("expected ErrKindFeeTooLow, got %v", err)
	}
}

func TestAddTransactionMempoolFull(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxSize = 1
	p := New(cfg, nil)
	tx1 := testTx(0x04, 0, 1000)
	tx2 := testTx(0x05, 0, 1000)
	if err := p.AddTransaction(tx1, 5, false); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}
	err := p.AddTransaction(tx2, 5, false)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindMempoolFull {
		t.Fatalf("expected ErrKindMempoolFull, got %v", err)
	}
}

func TestAddTransactionDoubleSpend(t *testing.T) {
	p := New(defaultConfig(), nil)
	var h chainhash.Hash
	h[0] = 0x06
	tx1 := &wire.Transaction{
		Inputs:  []*wire.Input{{Prev: wire.NewOutPoint(h, 0)}},
		Outputs: []*wire.Output{{Value: 1000, ScriptPubKey: []byte{1}}},
	}
	tx2 := &wire.Transaction{
		Inputs:  []*wire.Input{{Prev: wire.NewOutPoint(h, 0)}},
		Outputs: []*wire.Output{{Value: 900, ScriptPubKey: []byte{2}}},
	}
	if err := p.AddTransaction(tx1, 5, false); err != nil {
		t.Fatalf("AddTransaction tx1: %v", err)
	}
	err := p.AddTransaction(tx2, 5, false)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindDoubleSpend {
		t.Fatalf("expected ErrKindDoubleSpend, got %v", err)
	}
	if serr.ConflictHash != tx1.TxHash() {
		t.Fatalf("expected conflict hash to name tx1")
	}
}

func TestReplaceTransactionRequiresSufficientFeeBump(t *testing.T) {
	p := New(defaultConfig(), nil)
	var h chainhash.Hash
	h[0] = 0x07
	original := &wire.Transaction{
		Inputs:  []*wire.Input{{Prev: wire.NewOutPoint(h, 0)}},
		Outputs: []*wire.Output{{Value: 1000, ScriptPubKey: []byte{1}}},
	}
	if err := p.AddTransaction(original, 100, false); err != nil {
		t.Fatalf("AddTransaction: %v", err)
	}

	replacement := &wire.Transaction{
		Inputs:  []*wire.Input{{Prev: wire.NewOutPoint(h, 0)}},
		Outputs: []*wire.Output{{Value: 900, ScriptPubKey: []byte{2}}},
	}
	// Same fee rate: not a sufficient bump over the required 10% increase.
	err := p.ReplaceTransaction(replacement, 100, false)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindFeeTooLow {
		t.Fatalf("expected ErrKindFeeTooLow for insufficient bump, got %v", err)
	}

	if err := p.ReplaceTransaction(replacement, 200, false); err != nil {
		t.Fatalf("expected sufficient fee bump to succeed: %v", err)
	}
	if p.Contains(original.TxHash()) {
		t.Fatalf("expected original transaction to be evicted after replacement")
	}
	if !p.Contains(replacement.TxHash()) {
		t.Fatalf("expected replacement transaction to be admitted")
	}
}

func TestDrainOrdersByDescendingScore(t *testing.T) {
	p := New(defaultConfig(), nil)
	low := testTx(0x08, 0, 1000)
	high := testTx(0x09, 0, 1000)
	if err := p.AddTransaction(low, 1, false); err != nil {
		t.Fatalf("AddTransaction low: %v", err)
	}
	if err := p.AddTransaction(high, 1, true); err != nil { // lightning boost
		t.Fatalf("AddTransaction high: %v", err)
	}
	drained := p.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(drained))
	}
	if drained[0].Hash != high.TxHash() {
		t.Fatalf("expected lightning-boosted transaction to drain first")
	}
}

func TestCheckedMulOverflow(t *testing.T) {
	_, overflow := checkedMul(^uint64(0), 2)
	if !overflow {
		t.Fatalf("expected overflow to be detected")
	}
	result, overflow := checkedMul(100, 5)
	if overflow || result != 500 {
		t.Fatalf("expected 500 with no overflow, got %d overflow=%v", result, overflow)
	}
}
