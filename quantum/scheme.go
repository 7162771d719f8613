// Package quantum implements Supernova's signature policy layer (C1):
// classical and post-quantum signature schemes plus the algorithm-downgrade
// prevention policy that gates every signature verification against the
// chain's current height.
package quantum

// Scheme tags a signature algorithm. The post-quantum schemes additionally
// carry a SecurityLevel (§9 Open Questions / original_source quantum.rs).
type Scheme int

const (
	SchemeSecp256k1ECDSA Scheme = iota
	SchemeEd25519
	SchemeDilithium
	SchemeFalcon
	SchemeSphincsPlus
	SchemeHybrid
)

// String renders a Scheme for diagnostics and error messages.
func (s Scheme) String() string {
	switch s {
	case SchemeSecp256k1ECDSA:
		return "Secp256k1ECDSA"
	case SchemeEd25519:
		return "Ed25519"
	case SchemeDilithium:
		return "Dilithium"
	case SchemeFalcon:
		return "Falcon"
	case SchemeSphincsPlus:
		return "SphincsPlus"
	case SchemeHybrid:
		return "Hybrid"
	default:
		return "Unknown"
	}
}

// strengthRank implements the strength total order from spec.md §3:
// Hybrid < Falcon < Dilithium < SphincsPlus. The two classical-only
// schemes are assigned the weakest rank: any transition into a pure
// post-quantum scheme is an upgrade, and transitions between the two
// classical schemes are same-strength (enforced by algorithm binding,
// not strength, in Strict mode).
func strengthRank(s Scheme) int {
	switch s {
	case SchemeSecp256k1ECDSA, SchemeEd25519:
		return 0
	case SchemeHybrid:
		return 1
	case SchemeFalcon:
		return 2
	case SchemeDilithium:
		return 3
	case SchemeSphincsPlus:
		return 4
	default:
		return -1
	}
}

// SecurityLevel is the NIST security category backing a Dilithium mode,
// carried as additional policy texture from original_source's quantum.rs.
type SecurityLevel int

const (
	SecurityLevel2 SecurityLevel = 2
	SecurityLevel3 SecurityLevel = 3
	SecurityLevel5 SecurityLevel = 5
)

// SignatureParams describes the scheme (and, for Dilithium, the security
// level) a concrete signature was produced under.
type SignatureParams struct {
	Scheme        Scheme
	SecurityLevel SecurityLevel // meaningful only when Scheme == SchemeDilithium
}
