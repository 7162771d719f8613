package wire

import (
	"fmt"

	"github.com/supernova-labs/supernova/chainhash"
)

// OutPoint references a specific output of a specific transaction. Less
// orders OutPoints totally by (tx hash, index) lexicographically.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// CoinbaseIndex is the sentinel output index carried by a coinbase input's
// OutPoint, paired with a zero hash.
const CoinbaseIndex = 0xFFFFFFFF

// NewOutPoint returns a new OutPoint for the given hash/index pair.
func NewOutPoint(hash chainhash.Hash, index uint32) OutPoint {
	return OutPoint{Hash: hash, Index: index}
}

// IsCoinbase reports whether this OutPoint is the synthetic coinbase
// reference (zero hash, max index).
func (o OutPoint) IsCoinbase() bool {
	return o.Index == CoinbaseIndex && o.Hash.IsZero()
}

// Less implements the total order over OutPoints: by hash first, then by
// index, matching spec.md §3.
func (o OutPoint) Less(other OutPoint) bool {
	if cmp := o.Hash.CompareTo(other.Hash); cmp != 0 {
		return cmp < 0
	}
	return o.Index < other.Index
}

// String renders the OutPoint as "hash:index" for diagnostics.
func (o OutPoint) String() string {
	return fmt.Sprintf("%s:%d", o.Hash, o.Index)
}
