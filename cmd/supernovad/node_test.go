package main

import (
	"testing"

	"github.com/supernova-labs/supernova/chainhash"
	"github.com/supernova-labs/supernova/shutdown"
	"github.com/supernova-labs/supernova/wire"
)

func testConfig(t *testing.T) *config {
	cfg := defaultConfig()
	cfg.Network = "regtest"
	cfg.DataDir = t.TempDir()
	cfg.CoinbaseMaturity = 2
	return cfg
}

func TestNewNodeInitializesFromGenesis(t *testing.T) {
	n, err := newNode(testConfig(t))
	if err != nil {
		t.Fatalf("newNode: %v", err)
	}
	defer n.utxoEngine.Close()

	if got, want := n.chain.Tip().Height, uint64(0); got != want {
		t.Fatalf("tip height = %d, want %d", got, want)
	}
	if len(n.heights) != 1 {
		t.Fatalf("expected exactly the genesis hash tracked, got %d entries", len(n.heights))
	}
}

// nextBlock mines a trivially-valid (regtest PoW is nearly unconstrained)
// successor to the current tip, paying the block's subsidy to an empty
// script.
func nextBlock(t *testing.T, n *node) *wire.Block {
	t.Helper()
	tip := n.chain.Tip()

	coinbase := &wire.Transaction{
		Version: 1,
		Inputs:  []*wire.Input{wire.NewCoinbaseInput([]byte("test"))},
		Outputs: []*wire.Output{{Value: n.params.CalcBlockSubsidy(tip.Height + 1), ScriptPubKey: []byte{}}},
	}
	root, err := wire.MerkleRoot([]chainhash.Hash{coinbase.TxHash()})
	if err != nil {
		t.Fatalf("MerkleRoot: %v", err)
	}

	n.headerMu.Lock()
	lastTimestamp := n.timestamps[len(n.timestamps)-1]
	n.headerMu.Unlock()

	return &wire.Block{
		Header: wire.BlockHeader{
			Version:    1,
			PrevHash:   tip.Hash,
			MerkleRoot: root,
			Timestamp:  lastTimestamp + 1,
			Bits:       n.params.PowLimitBits,
			Nonce:      0,
		},
		Transactions: []*wire.Transaction{coinbase},
	}
}

func TestIngestBlockExtendsTip(t *testing.T) {
	n, err := newNode(testConfig(t))
	if err != nil {
		t.Fatalf("newNode: %v", err)
	}
	defer n.utxoEngine.Close()

	block := nextBlock(t, n)
	if err := n.IngestBlock(block); err != nil {
		t.Fatalf("IngestBlock: %v", err)
	}

	tip := n.chain.Tip()
	if tip.Height != 1 {
		t.Fatalf("tip height = %d, want 1", tip.Height)
	}
	if tip.Hash != block.Header.Hash() {
		t.Fatalf("tip hash mismatch after ingesting block")
	}
}

func TestIngestBlockRejectsUnknownParent(t *testing.T) {
	n, err := newNode(testConfig(t))
	if err != nil {
		t.Fatalf("newNode: %v", err)
	}
	defer n.utxoEngine.Close()

	block := nextBlock(t, n)
	block.Header.PrevHash = chainhash.HashH([]byte("not the tip"))

	if err := n.IngestBlock(block); err == nil {
		t.Fatal("expected IngestBlock to reject a block with an unknown parent")
	}
}

func TestIngestTransactionRejectsImmatureCoinbaseSpend(t *testing.T) {
	n, err := newNode(testConfig(t))
	if err != nil {
		t.Fatalf("newNode: %v", err)
	}
	defer n.utxoEngine.Close()

	// The genesis coinbase output isn't spendable yet (maturity 2), so a
	// transaction spending it must be rejected by the validator before it
	// ever reaches the pool.
	genesisCoinbase := n.params.GenesisBlock.Transactions[0]
	spend := &wire.Transaction{
		Version: 1,
		Inputs: []*wire.Input{{
			Prev:     wire.NewOutPoint(genesisCoinbase.TxHash(), 0),
			Sequence: 0xffffffff,
		}},
		Outputs: []*wire.Output{{Value: 1, ScriptPubKey: []byte{}}},
	}

	if err := n.IngestTransaction(spend, false); err == nil {
		t.Fatal("expected IngestTransaction to reject an immature coinbase spend")
	}
}

func TestDrainLightningChannelsIsSafeWithNoChannels(t *testing.T) {
	n, err := newNode(testConfig(t))
	if err != nil {
		t.Fatalf("newNode: %v", err)
	}
	defer n.utxoEngine.Close()

	if err := n.drainLightningChannels(); err != nil {
		t.Fatalf("drainLightningChannels: %v", err)
	}
}

func TestShutdownRunsAgainstWiredNode(t *testing.T) {
	n, err := newNode(testConfig(t))
	if err != nil {
		t.Fatalf("newNode: %v", err)
	}

	if err := n.shutdownCoord.Shutdown(shutdown.SignalUser); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
