package quantum

import (
	"encoding/binary"
	"fmt"
)

// HybridPublicKey bundles a classical and a post-quantum public key under
// one identity. §9 Open Questions leaves the composition of classical +
// quantum verification unspecified; Supernova adopts AND (both must
// verify) for safety, as the spec recommends absent an explicit protocol
// version saying otherwise.
type HybridPublicKey struct {
	Classical PublicKey
	Quantum   PublicKey // Scheme is always SchemeDilithium for the implemented path
}

// HybridSignature bundles the two component signatures produced for a
// single message under a HybridPublicKey.
type HybridSignature struct {
	Classical Signature
	Quantum   Signature
}

// EncodeHybridPublicKey packs a HybridPublicKey into the flat byte form
// stored as PublicKey.Raw when Scheme == SchemeHybrid.
func EncodeHybridPublicKey(k HybridPublicKey) []byte {
	return encodeParts(
		[]byte{byte(k.Classical.Scheme)}, k.Classical.Raw,
		[]byte{byte(k.Quantum.Scheme)}, k.Quantum.Raw,
	)
}

// DecodeHybridPublicKey is the inverse of EncodeHybridPublicKey.
func DecodeHybridPublicKey(raw []byte) (HybridPublicKey, error) {
	parts, err := decodeParts(raw, 4)
	if err != nil {
		return HybridPublicKey{}, err
	}
	if len(parts[0]) != 1 || len(parts[2]) != 1 {
		return HybridPublicKey{}, &Error{Kind: ErrKindInvalidKey, Msg: "hybrid: malformed scheme tag"}
	}
	return HybridPublicKey{
		Classical: PublicKey{Scheme: Scheme(parts[0][0]), Raw: parts[1]},
		Quantum:   PublicKey{Scheme: Scheme(parts[2][0]), Raw: parts[3]},
	}, nil
}

// EncodeHybridSignature packs a HybridSignature into the flat byte form
// stored as Signature.Raw when Scheme == SchemeHybrid.
func EncodeHybridSignature(s HybridSignature) []byte {
	return encodeParts(
		[]byte{byte(s.Quantum.Params.SecurityLevel)}, s.Classical.Raw, s.Quantum.Raw,
	)
}

// DecodeHybridSignature is the inverse of EncodeHybridSignature.
func DecodeHybridSignature(raw []byte) (classicalSig, quantumSig []byte, level SecurityLevel, err error) {
	parts, err := decodeParts(raw, 3)
	if err != nil {
		return nil, nil, 0, err
	}
	if len(parts[0]) != 1 {
		return nil, nil, 0, &Error{Kind: ErrKindInvalidSignature, Msg: "hybrid: malformed security level tag"}
	}
	return parts[1], parts[2], SecurityLevel(parts[0][0]), nil
}

// verifyHybrid requires both the classical and the Dilithium component to
// verify independently (AND semantics, per §9).
func verifyHybrid(pubKeyRaw, message, sigRaw []byte) error {
	hybridKey, err := DecodeHybridPublicKey(pubKeyRaw)
	if err != nil {
		return err
	}
	classicalSig, quantumSig, level, err := DecodeHybridSignature(sigRaw)
	if err != nil {
		return err
	}

	switch hybridKey.Classical.Scheme {
	case SchemeSecp256k1ECDSA:
		if err := verifySecp256k1ECDSA(hybridKey.Classical.Raw, message, classicalSig); err != nil {
			return err
		}
	case SchemeEd25519:
		if err := verifyEd25519(hybridKey.Classical.Raw, message, classicalSig); err != nil {
			return err
		}
	default:
		return &Error{Kind: ErrKindUnsupportedScheme, Msg: fmt.Sprintf("hybrid: unsupported classical component %s", hybridKey.Classical.Scheme)}
	}

	return verifyDilithium(level, hybridKey.Quantum.Raw, message, quantumSig)
}

// encodeParts writes a sequence of byte slices as length-prefixed (uint32
// BE) fields.
func encodeParts(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(p)))
		out = append(out, lenBuf[:]...)
		out = append(out, p...)
	}
	return out
}

// decodeParts is the inverse of encodeParts, expecting exactly n parts.
func decodeParts(raw []byte, n int) ([][]byte, error) {
	parts := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		if len(raw) < 4 {
			return nil, &Error{Kind: ErrKindInvalidKey, Msg: "hybrid: truncated encoding"}
		}
		l := binary.BigEndian.Uint32(raw[:4])
		raw = raw[4:]
		if uint64(len(raw)) < uint64(l) {
			return nil, &Error{Kind: ErrKindInvalidKey, Msg: "hybrid: truncated field"}
		}
		parts = append(parts, raw[:l])
		raw = raw[l:]
	}
	return parts, nil
}
