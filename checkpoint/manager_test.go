package checkpoint

import (
	"testing"

	"github.com/supernova-labs/supernova/chainhash"
)

func testHash(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	return h
}

func TestAddConflictRule(t *testing.T) {
	m := New(Config{})
	if err := m.Add(Checkpoint{Height: 100, Hash: testHash(1), Source: SourcePeerConsensus}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	// Lower trust at the same height fails.
	err := m.Add(Checkpoint{Height: 100, Hash: testHash(2), Source: SourceAutomatic})
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindConflict {
		t.Fatalf("expected ErrKindConflict, got %v", err)
	}
	// Higher trust replaces.
	if err := m.Add(Checkpoint{Height: 100, Hash: testHash(3), Source: SourceHardcoded}); err != nil {
		t.Fatalf("expected higher-trust replacement to succeed: %v", err)
	}
	cp, ok := m.LatestFinalized()
	if !ok || cp.Hash != testHash(3) {
		t.Fatalf("expected latest finalized to reflect the replacement")
	}
}

func TestCheckReorgAllowedStrictMode(t *testing.T) {
	m := New(Config{StrictMode: true})
	if err := m.Add(Checkpoint{Height: 1000, Hash: testHash(1), Source: SourceHardcoded}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.CheckReorgAllowed(999); err == nil {
		t.Fatalf("expected reorg below finalized height to fail")
	}
	if err := m.CheckReorgAllowed(1000); err != nil {
		t.Fatalf("expected reorg at exactly the finalized height to succeed: %v", err)
	}
}

func TestVerifyBlockConflict(t *testing.T) {
	m := New(Config{})
	if err := m.Add(Checkpoint{Height: 50, Hash: testHash(1), Source: SourceHardcoded}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.VerifyBlock(50, testHash(1)); err != nil {
		t.Fatalf("expected matching hash to pass: %v", err)
	}
	err := m.VerifyBlock(50, testHash(2))
	serr, ok := err.(*Error)
	if !ok || serr.Kind != ErrKindConflict {
		t.Fatalf("expected ErrKindConflict, got %v", err)
	}
}

func TestMaybeAutoCreate(t *testing.T) {
	m := New(Config{AutoCheckpointEnabled: true, AutoCheckpointDepth: 10, AutoCheckpointInterval: 100})
	hashAt := func(h uint64) (chainhash.Hash, bool) { return testHash(byte(h)), true }

	// tipHeight=110 -> h=100; lastAutoHeight=0, h-0=100 >= interval 100: create.
	if err := m.MaybeAutoCreate(110, hashAt); err != nil {
		t.Fatalf("MaybeAutoCreate: %v", err)
	}
	cp, ok := m.LatestFinalized()
	if !ok || cp.Height != 100 || cp.Source != SourceAutomatic {
		t.Fatalf("expected automatic checkpoint at height 100, got %+v ok=%v", cp, ok)
	}

	// tipHeight=150 -> h=140; 140-100=40 < interval 100: no new checkpoint.
	if err := m.MaybeAutoCreate(150, hashAt); err != nil {
		t.Fatalf("MaybeAutoCreate: %v", err)
	}
	cp, _ = m.LatestFinalized()
	if cp.Height != 100 {
		t.Fatalf("expected no new checkpoint before the interval elapses, got height %d", cp.Height)
	}
}
