package blockchain

import (
	"testing"

	"github.com/supernova-labs/supernova/checkpoint"
	"github.com/supernova-labs/supernova/mempool"
	"github.com/supernova-labs/supernova/txindex"
	"github.com/supernova-labs/supernova/utxo"
	"github.com/supernova-labs/supernova/wire"
)

func mustEngine(t *testing.T) *utxo.Engine {
	t.Helper()
	e, err := utxo.Open(t.TempDir())
	if err != nil {
		t.Fatalf("utxo.Open: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func coinbaseBlock(prev [32]byte, bits uint32, value uint64, scriptByte byte) *wire.Block {
	tx := &wire.Transaction{
		Inputs:  []*wire.Input{wire.NewCoinbaseInput(nil)},
		Outputs: []*wire.Output{{Value: value, ScriptPubKey: []byte{scriptByte}}},
	}
	hdr := wire.BlockHeader{PrevHash: prev, Bits: bits}
	block := &wire.Block{Header: hdr, Transactions: []*wire.Transaction{tx}}
	mr, _ := wire.MerkleRoot(block.TransactionHashes())
	block.Header.MerkleRoot = mr
	return block
}

func newTestChain(t *testing.T) (*ChainState, *utxo.Engine) {
	t.Helper()
	engine := mustEngine(t)
	idx := txindex.New()
	pool := mempool.New(mempool.Config{MaxSize: 100, MinFeeRate: 0}, mempool.ZeroScorer{})
	ckpt := checkpoint.New(checkpoint.Config{})

	genesis := coinbaseBlock([32]byte{}, 0x1f00ffff, 5000, 0x01)
	cs, err := New(Config{Policy: PolicyMostWork, MaxForkLength: 100}, genesis, engine, idx, pool, ckpt)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return cs, engine
}

func TestAcceptBlockExtendsTip(t *testing.T) {
	cs, _ := newTestChain(t)
	genesisHash := cs.Tip().Hash

	next := coinbaseBlock(genesisHash, 0x1f00ffff, 5000, 0x02)
	if err := cs.AcceptBlock(next); err != nil {
		t.Fatalf("AcceptBlock: %v", err)
	}
	tip := cs.Tip()
	if tip.Height != 1 || tip.Hash != next.Header.Hash() {
		t.Fatalf("expected tip to advance to height 1, got %+v", tip)
	}
}

func TestAcceptBlockUnknownAncestorRejected(t *testing.T) {
	cs, _ := newTestChain(t)
	orphan := coinbaseBlock([32]byte{0xff}, 0x1f00ffff, 5000, 0x03)
	err := cs.AcceptBlock(orphan)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindUnknownAncestor {
		t.Fatalf("expected ErrKindUnknownAncestor, got %v", err)
	}
}

func TestReorgSwitchesToMoreWorkChain(t *testing.T) {
	cs, _ := newTestChain(t)
	genesisHash := cs.Tip().Hash

	// Low-difficulty (high target, low work) side chain of two blocks.
	a1 := coinbaseBlock(genesisHash, 0x1f00ffff, 5000, 0x10)
	if err := cs.AcceptBlock(a1); err != nil {
		t.Fatalf("accept a1: %v", err)
	}
	a2 := coinbaseBlock(a1.Header.Hash(), 0x1f00ffff, 5000, 0x11)
	if err := cs.AcceptBlock(a2); err != nil {
		t.Fatalf("accept a2: %v", err)
	}
	if cs.Tip().Hash != a2.Header.Hash() {
		t.Fatalf("expected chain A tip")
	}

	// Single higher-difficulty (lower target, more work) competing block
	// directly off genesis should out-work the two-block chain.
	b1 := coinbaseBlock(genesisHash, 0x1e00ffff, 5000, 0x20)
	if err := cs.AcceptBlock(b1); err != nil {
		t.Fatalf("accept b1: %v", err)
	}
	if cs.Tip().Hash != b1.Header.Hash() {
		t.Fatalf("expected reorg to the higher-work single block, got tip %v", cs.Tip().Hash)
	}
	if cs.Tip().Height != 1 {
		t.Fatalf("expected height 1 after reorg, got %d", cs.Tip().Height)
	}
}

func TestReorgBeyondFinalizedCheckpointRejected(t *testing.T) {
	engine := mustEngine(t)
	idx := txindex.New()
	pool := mempool.New(mempool.Config{MaxSize: 100}, mempool.ZeroScorer{})
	ckpt := checkpoint.New(checkpoint.Config{StrictMode: true})

	genesis := coinbaseBlock([32]byte{}, 0x1f00ffff, 5000, 0x01)
	cs, err := New(Config{Policy: PolicyMostWork, MaxForkLength: 100}, genesis, engine, idx, pool, ckpt)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	genesisHash := cs.Tip().Hash

	a1 := coinbaseBlock(genesisHash, 0x1f00ffff, 5000, 0x30)
	if err := cs.AcceptBlock(a1); err != nil {
		t.Fatalf("accept a1: %v", err)
	}
	if err := ckpt.Add(checkpoint.Checkpoint{Height: 1, Hash: a1.Header.Hash(), Source: checkpoint.SourceHardcoded}); err != nil {
		t.Fatalf("Add checkpoint: %v", err)
	}

	b1 := coinbaseBlock(genesisHash, 0x1e00ffff, 5000, 0x31)
	err = cs.AcceptBlock(b1)
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindReorgBeyondCheckpoint {
		t.Fatalf("expected ErrKindReorgBeyondCheckpoint, got %v", err)
	}
}
