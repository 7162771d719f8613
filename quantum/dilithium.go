package quantum

import (
	"github.com/cloudflare/circl/sign/dilithium"
)

// dilithiumMode maps a spec.md §4.1 security level onto the corresponding
// circl Dilithium mode.
func dilithiumMode(level SecurityLevel) (dilithium.Mode, error) {
	switch level {
	case SecurityLevel2:
		return dilithium.Mode2, nil
	case SecurityLevel3:
		return dilithium.Mode3, nil
	case SecurityLevel5:
		return dilithium.Mode5, nil
	default:
		return nil, &Error{Kind: ErrKindUnsupportedSecurityLevel, Msg: "dilithium level must be 2, 3 or 5"}
	}
}

// verifyDilithium verifies a Dilithium signature at the given security
// level using circl's pure-Go implementation.
func verifyDilithium(level SecurityLevel, pubKeyRaw, message, sigRaw []byte) error {
	mode, err := dilithiumMode(level)
	if err != nil {
		return err
	}
	if len(pubKeyRaw) != mode.PublicKeySize() {
		return &Error{Kind: ErrKindInvalidKey, Msg: "dilithium: wrong public key size"}
	}
	pubKey := mode.PublicKeyFromBytes(pubKeyRaw)
	if !mode.Verify(pubKey, message, sigRaw) {
		return &Error{Kind: ErrKindInvalidSignature, Msg: "signature verification failed"}
	}
	return nil
}

// GenerateDilithiumKey generates a fresh Dilithium keypair at the given
// security level, returning scheme-tagged public/private key material.
func GenerateDilithiumKey(level SecurityLevel) (PublicKey, []byte, error) {
	mode, err := dilithiumMode(level)
	if err != nil {
		return PublicKey{}, nil, err
	}
	pub, priv, err := mode.GenerateKey(nil)
	if err != nil {
		return PublicKey{}, nil, &Error{Kind: ErrKindInvalidKey, Msg: err.Error()}
	}
	return PublicKey{Scheme: SchemeDilithium, Raw: pub.Bytes()}, priv.Bytes(), nil
}

// SignDilithium signs message with a raw Dilithium private key at the
// given security level.
func SignDilithium(level SecurityLevel, privKeyRaw, message []byte) ([]byte, error) {
	mode, err := dilithiumMode(level)
	if err != nil {
		return nil, err
	}
	priv := mode.PrivateKeyFromBytes(privKeyRaw)
	return mode.Sign(priv, message), nil
}
