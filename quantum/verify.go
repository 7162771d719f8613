package quantum

// VerifyWithPolicy is the single entry point every consumer (script
// interpreter, Lightning channel signing, ...) uses to check a signature.
// It first runs the stateless policy check — validating the from/to
// scheme transition against the current chain height — and only then
// consults cache before performing cryptographic verification, so a
// rejected transition never reaches expensive signature math (spec.md
// §4.1) and an already-verified signature never reaches it twice. cache
// may be nil, in which case every call verifies from scratch.
func VerifyWithPolicy(message []byte, sig Signature, key PublicKey, policy *AlgorithmPolicy, height uint64, cache *SigCache) error {
	if err := policy.ValidateSignatureTransition(key.Scheme, sig.Params.Scheme, height); err != nil {
		return err
	}
	if cache.Exists(message, key, sig) {
		return nil
	}
	if err := verify(key, sig, message); err != nil {
		return err
	}
	cache.Add(message, key, sig)
	return nil
}

// verify dispatches to the scheme-specific cryptographic check. It is
// never called before the policy check has already approved the
// transition.
func verify(key PublicKey, sig Signature, message []byte) error {
	switch sig.Params.Scheme {
	case SchemeSecp256k1ECDSA:
		return verifySecp256k1ECDSA(key.Raw, message, sig.Raw)
	case SchemeEd25519:
		return verifyEd25519(key.Raw, message, sig.Raw)
	case SchemeDilithium:
		return verifyDilithium(sig.Params.SecurityLevel, key.Raw, message, sig.Raw)
	case SchemeFalcon:
		return verifyFalcon(key.Raw, message, sig.Raw)
	case SchemeSphincsPlus:
		return verifySphincsPlus(key.Raw, message, sig.Raw)
	case SchemeHybrid:
		return verifyHybrid(key.Raw, message, sig.Raw)
	default:
		return &Error{Kind: ErrKindUnsupportedScheme, Msg: "unknown scheme"}
	}
}
