package chainhash

import "testing"

func TestHashFuncIsDoubleSHA256(t *testing.T) {
	data := []byte("supernova")
	got := HashFunc(data)
	want := HashH(HashB(data))
	if got != want {
		t.Fatalf("HashFunc = %x, want %x", got, want)
	}
}

func TestZeroHash(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Fatalf("zero-value Hash reports non-zero")
	}
	h[0] = 1
	if h.IsZero() {
		t.Fatalf("non-zero Hash reports zero")
	}
}

func TestCompareTo(t *testing.T) {
	a := Hash{1}
	b := Hash{2}
	if a.CompareTo(b) >= 0 {
		t.Fatalf("expected a < b")
	}
	if b.CompareTo(a) <= 0 {
		t.Fatalf("expected b > a")
	}
	if a.CompareTo(a) != 0 {
		t.Fatalf("expected equal hashes to compare 0")
	}
}

func TestHash160Length(t *testing.T) {
	out := Hash160([]byte("pubkey"))
	if len(out) != 20 {
		t.Fatalf("Hash160 length = %d, want 20", len(out))
	}
}
