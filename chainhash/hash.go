// Package chainhash provides the opaque 32-byte hash type shared by every
// Supernova component along with the hashing primitives used to derive it.
package chainhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/decred/dcrd/crypto/ripemd160"
)

// HashSize is the number of bytes in a Hash.
const HashSize = 32

// Hash is an opaque 32-byte identifier. The zero value (all-zero bytes) is
// the reserved "no previous" sentinel used for genesis parents and coinbase
// inputs.
type Hash [HashSize]byte

// ZeroHash is the hash with all zero bytes, defined for readability when
// used to detect the no-previous sentinel.
var ZeroHash Hash

// IsZero reports whether h is the all-zero sentinel hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the hash as the hex encoding of bytes in big-endian byte
// order, i.e. reversed from the internal little-endian storage, so
// diagnostics read the way block explorers display them.
func (h Hash) String() string {
	var reversed Hash
	for i, b := range h[:] {
		reversed[HashSize-1-i] = b
	}
	return hex.EncodeToString(reversed[:])
}

// Bytes returns a copy of the raw hash bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, HashSize)
	copy(out, h[:])
	return out
}

// CompareTo compares two hashes byte-by-byte from index 0, the ordering
// used by OutPoint's total order (§3). It returns -1, 0 or 1.
func (h Hash) CompareTo(other Hash) int {
	for i := 0; i < HashSize; i++ {
		if h[i] < other[i] {
			return -1
		}
		if h[i] > other[i] {
			return 1
		}
	}
	return 0
}

// NewHashFromBytes builds a Hash from a byte slice, which must be exactly
// HashSize bytes.
func NewHashFromBytes(b []byte) (Hash, error) {
	var h Hash
	if len(b) != HashSize {
		return h, fmt.Errorf("chainhash: invalid hash length %d, want %d", len(b), HashSize)
	}
	copy(h[:], b)
	return h, nil
}

// HashB computes a single SHA-256 digest.
func HashB(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// HashH computes a single SHA-256 digest and returns it as a Hash.
func HashH(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// HashFunc is the double-SHA-256 used throughout Supernova's consensus
// layer ("hash256" in spec terms): block header hashing, transaction
// hashing, and Merkle tree node combination all use it.
func HashFunc(data []byte) Hash {
	first := sha256.Sum256(data)
	second := sha256.Sum256(first[:])
	return Hash(second)
}

// Hash160 computes SHA-256 followed by RIPEMD-160, the digest used for
// script pubkey key hashes.
func Hash160(data []byte) []byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:]) //nolint:errcheck // ripemd160.Write never errors
	return r.Sum(nil)
}
