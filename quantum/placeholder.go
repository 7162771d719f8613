package quantum

// verifyFalcon and verifySphincsPlus are structurally wired into the
// policy and Scheme machinery — allowed_schemes, strength ordering, and
// downgrade checks all treat them as first-class — but have no verifying
// implementation. original_source's Rust prototype carries the same gap
// (placeholder Sign/Verify returning "not yet implemented"); §9's Open
// Questions leaves shipping them to the implementer, and no pure-Go
// Falcon or SPHINCS+ library appears anywhere in the retrieval pack, so
// Supernova keeps the placeholder rather than inventing one.

func verifyFalcon(pubKeyRaw, message, sigRaw []byte) error {
	return &Error{Kind: ErrKindUnsupportedScheme, Msg: "Falcon verification is not implemented"}
}

func verifySphincsPlus(pubKeyRaw, message, sigRaw []byte) error {
	return &Error{Kind: ErrKindUnsupportedScheme, Msg: "SphincsPlus verification is not implemented"}
}
