package onion

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/hkdf"
)

// sharedSecret derives the 32-byte ECDH shared secret between priv and
// pub, hashed once to whiten the raw curve point (spec.md §4.11 step 1).
func sharedSecret(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) [32]byte {
	var pt, result secp256k1.JacobianPoint
	pub.AsJacobian(&pt)
	secp256k1.ScalarMultNonConst(&priv.Key, &pt, &result)
	result.ToAffine()

	sharedPoint := secp256k1.NewPublicKey(&result.X, &result.Y)
	return sha256.Sum256(sharedPoint.SerializeCompressed())
}

// blindingFactor computes the scalar used to blind the ephemeral key pair
// between hops: SHA-256(pubkey ‖ shared_secret), interpreted mod the
// curve order.
func blindingFactor(pub *secp256k1.PublicKey, secret [32]byte) secp256k1.ModNScalar {
	h := sha256.Sum256(append(pub.SerializeCompressed(), secret[:]...))
	var s secp256k1.ModNScalar
	s.SetBytes(&h)
	return s
}

// blindPrivateKey advances the sender's ephemeral private key to the one
// the next hop will see, so each hop derives an independent shared secret
// from the same packet (spec.md §4.11 step 1).
func blindPrivateKey(priv *secp256k1.PrivateKey, secret [32]byte) *secp256k1.PrivateKey {
	factor := blindingFactor(priv.PubKey(), secret)
	scalar := priv.Key
	scalar.Mul(&factor)
	return secp256k1.NewPrivateKey(&scalar)
}

// blindPublicKey advances a forwarded packet's ephemeral public key by
// the same blinding factor a receiving hop would apply to its private
// key, letting the next hop compute the matching shared secret.
func blindPublicKey(pub *secp256k1.PublicKey, secret [32]byte) *secp256k1.PublicKey {
	factor := blindingFactor(pub, secret)

	var pt, result secp256k1.JacobianPoint
	pub.AsJacobian(&pt)
	secp256k1.ScalarMultNonConst(&factor, &pt, &result)
	result.ToAffine()
	return secp256k1.NewPublicKey(&result.X, &result.Y)
}

// expand derives an arbitrary-length keystream from secret via HKDF-SHA256
// under the given context label, used both for the routing_info stream
// cipher ("rho") and the per-hop HMAC key ("mu").
func expand(secret [32]byte, label string, length int) []byte {
	r := hkdf.New(sha256.New, secret[:], nil, []byte(label))
	out := make([]byte, length)
	if _, err := io.ReadFull(r, out); err != nil {
		// hkdf.Reader only fails once its expansion limit (255*hash
		// size) is exceeded, far beyond any routing_info length this
		// package ever requests.
		panic("onion: hkdf expansion exhausted: " + err.Error())
	}
	return out
}

// xorKeystream XORs data in place with the "rho" keystream derived from
// secret (spec.md §4.11 step 2's "XOR-encrypt ... via HKDF-like
// expansion"). The same operation both encrypts (sender, per layer) and
// decrypts (receiving hop).
func xorKeystream(data []byte, secret [32]byte) {
	keystream := expand(secret, "rho", len(data))
	for i := range data {
		data[i] ^= keystream[i]
	}
}

// computeHMAC authenticates routingInfo and associatedData under the
// "mu" key derived from secret (spec.md §4.11 step 3).
func computeHMAC(routingInfo []byte, secret [32]byte, associatedData []byte) [32]byte {
	key := expand(secret, "mu", 32)
	mac := hmac.New(sha256.New, key)
	mac.Write(routingInfo)
	mac.Write(associatedData)

	var out [32]byte
	copy(out[:], mac.Sum(nil))
	return out
}
