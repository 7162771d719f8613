package quantum

// PublicKey is the scheme-tagged public key carried by an output's
// locking script or a Lightning peer identity. Raw holds the
// scheme-specific encoding (33-byte compressed secp256k1 point, 32-byte
// Ed25519 key, circl-encoded Dilithium key, ...).
type PublicKey struct {
	Scheme Scheme
	Raw    []byte
}

// Signature is the scheme-tagged signature attached to a spending input.
type Signature struct {
	Params SignatureParams
	Raw    []byte
}
