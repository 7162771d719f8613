package txindex

import (
	"testing"

	"github.com/supernova-labs/supernova/chainhash"
)

func testHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestIndexAndLookup(t *testing.T) {
	idx := New()
	hash := testHash(0x01)
	sh := ScriptHash{0xaa}
	channel := ChannelID(testHash(0x02))

	idx.Index(Record{
		Hash:               hash,
		Height:             100,
		ScriptHashes:       []ScriptHash{sh},
		EnvironmentalScore: 42,
		ChannelID:          &channel,
	})

	if _, ok := idx.ByTxHash(hash); !ok {
		t.Fatalf("expected ByTxHash to find record")
	}
	if got := idx.ByScriptHash(sh); len(got) != 1 || got[0] != hash {
		t.Fatalf("expected ByScriptHash to return the indexed hash, got %v", got)
	}
	if got := idx.ByHeight(100); len(got) != 1 || got[0] != hash {
		t.Fatalf("expected ByHeight to return the indexed hash, got %v", got)
	}
	if got := idx.ByScoreBucket(42); len(got) != 1 || got[0] != hash {
		t.Fatalf("expected ByScoreBucket to return the indexed hash, got %v", got)
	}
	if got := idx.ByChannelID(channel); len(got) != 1 || got[0] != hash {
		t.Fatalf("expected ByChannelID to return the indexed hash, got %v", got)
	}
}

func TestRemoveTearsDownAllIndices(t *testing.T) {
	idx := New()
	hash := testHash(0x03)
	sh := ScriptHash{0xbb}
	idx.Index(Record{Hash: hash, Height: 5, ScriptHashes: []ScriptHash{sh}, EnvironmentalScore: 10})

	idx.Remove(hash)

	if _, ok := idx.ByTxHash(hash); ok {
		t.Fatalf("expected ByTxHash lookup to fail after Remove")
	}
	if got := idx.ByScriptHash(sh); len(got) != 0 {
		t.Fatalf("expected ByScriptHash to be empty after Remove, got %v", got)
	}
	if got := idx.ByHeight(5); len(got) != 0 {
		t.Fatalf("expected ByHeight to be empty after Remove, got %v", got)
	}
}

func TestPruneRemovesOldHeights(t *testing.T) {
	idx := New()
	old := testHash(0x04)
	recent := testHash(0x05)
	idx.Index(Record{Hash: old, Height: 10})
	idx.Index(Record{Hash: recent, Height: 990})

	idx.Prune(1000, 100) // cutoff = 900: heights <= 900 pruned

	if _, ok := idx.ByTxHash(old); ok {
		t.Fatalf("expected old record to be pruned")
	}
	if _, ok := idx.ByTxHash(recent); !ok {
		t.Fatalf("expected recent record to survive pruning")
	}
}
