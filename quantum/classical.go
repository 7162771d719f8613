package quantum

import (
	"crypto/sha256"
	stded25519 "crypto/ed25519"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// verifySecp256k1ECDSA verifies a DER-encoded ECDSA signature over message
// using a 33-byte compressed secp256k1 public key. Called from
// VerifyWithPolicy on a SigCache miss.
func verifySecp256k1ECDSA(pubKeyRaw, message, sigRaw []byte) error {
	pubKey, err := secp256k1.ParsePubKey(pubKeyRaw)
	if err != nil {
		return &Error{Kind: ErrKindInvalidKey, Msg: err.Error()}
	}
	sig, err := ecdsa.ParseDERSignature(sigRaw)
	if err != nil {
		return &Error{Kind: ErrKindInvalidSignature, Msg: err.Error()}
	}
	digest := sha256.Sum256(message)
	if !sig.Verify(digest[:], pubKey) {
		return &Error{Kind: ErrKindInvalidSignature, Msg: "signature verification failed"}
	}
	return nil
}

// verifyEd25519 verifies a raw 64-byte Ed25519 signature.
func verifyEd25519(pubKeyRaw, message, sigRaw []byte) error {
	if len(pubKeyRaw) != stded25519.PublicKeySize {
		return &Error{Kind: ErrKindInvalidKey, Msg: "ed25519: wrong public key size"}
	}
	if len(sigRaw) != stded25519.SignatureSize {
		return &Error{Kind: ErrKindInvalidSignature, Msg: "ed25519: wrong signature size"}
	}
	if !stded25519.Verify(stded25519.PublicKey(pubKeyRaw), message, sigRaw) {
		return &Error{Kind: ErrKindInvalidSignature, Msg: "signature verification failed"}
	}
	return nil
}
