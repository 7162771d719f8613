package quantum

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"

	"github.com/dchest/siphash"
	"github.com/decred/dcrd/lru"
)

// sigCacheKeySize is the key material size for the SipHash-2-4 short-hash
// function used to key the signature cache.
const sigCacheKeySize = 16

// sigCacheEntry carries enough of the verified (digest, key, signature)
// triple to rule out a SipHash collision on lookup.
type sigCacheEntry struct {
	scheme Scheme
	pubKey []byte
	sigRaw []byte
	digest []byte
}

// SigCache caches the outcome of already-verified signatures, keyed by a
// SipHash-2-4 short hash of the (scheme, digest, public key, signature)
// tuple, evicting least-recently-used entries once full via lru.Map. Its
// purpose mirrors txscript.SigCache in the pack: a transaction verified
// once on mempool admission is not re-verified from scratch when the same
// signature appears again inside a block being assembled or validated.
type SigCache struct {
	valid   *lru.Map[uint64, sigCacheEntry]
	hashKey [sigCacheKeySize]byte
}

// NewSigCache builds a SigCache holding at most maxEntries verified
// signatures.
func NewSigCache(maxEntries uint64) (*SigCache, error) {
	var key [sigCacheKeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return nil, err
	}
	return &SigCache{
		valid:   lru.NewMap[uint64, sigCacheEntry](maxEntries),
		hashKey: key,
	}, nil
}

func (c *SigCache) shortKey(scheme Scheme, digest, pubKeyRaw, sigRaw []byte) uint64 {
	k0 := binary.LittleEndian.Uint64(c.hashKey[0:8])
	k1 := binary.LittleEndian.Uint64(c.hashKey[8:16])
	buf := make([]byte, 0, 1+len(digest)+len(pubKeyRaw)+len(sigRaw))
	buf = append(buf, byte(scheme))
	buf = append(buf, digest...)
	buf = append(buf, pubKeyRaw...)
	buf = append(buf, sigRaw...)
	return siphash.Hash(k0, k1, buf)
}

// Exists reports whether sig over digest under key has already been
// verified successfully and not yet evicted. A nil cache always misses.
func (c *SigCache) Exists(digest []byte, key PublicKey, sig Signature) bool {
	if c == nil {
		return false
	}
	entry, ok := c.valid.Get(c.shortKey(sig.Params.Scheme, digest, key.Raw, sig.Raw))
	if !ok {
		return false
	}
	return entry.scheme == sig.Params.Scheme &&
		bytes.Equal(entry.pubKey, key.Raw) &&
		bytes.Equal(entry.sigRaw, sig.Raw) &&
		bytes.Equal(entry.digest, digest)
}

// Add records a successful verification of sig over digest under key. A
// nil cache is a no-op, so callers need not special-case an unconfigured
// cache.
func (c *SigCache) Add(digest []byte, key PublicKey, sig Signature) {
	if c == nil {
		return
	}
	c.valid.Put(c.shortKey(sig.Params.Scheme, digest, key.Raw, sig.Raw), sigCacheEntry{
		scheme: sig.Params.Scheme,
		pubKey: key.Raw,
		sigRaw: sig.Raw,
		digest: digest,
	})
}
