package quantum

import "fmt"

// ErrorKind enumerates the QuantumError failure modes from spec.md §4.1.
type ErrorKind int

const (
	ErrKindAlgorithmDowngrade ErrorKind = iota
	ErrKindAlgorithmMismatch
	ErrKindAlgorithmNotAllowed
	ErrKindPrematureTransition
	ErrKindInvalidKey
	ErrKindInvalidSignature
	ErrKindUnsupportedSecurityLevel
	ErrKindUnsupportedScheme
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindAlgorithmDowngrade:
		return "AlgorithmDowngrade"
	case ErrKindAlgorithmMismatch:
		return "AlgorithmMismatch"
	case ErrKindAlgorithmNotAllowed:
		return "AlgorithmNotAllowed"
	case ErrKindPrematureTransition:
		return "PrematureTransition"
	case ErrKindInvalidKey:
		return "InvalidKey"
	case ErrKindInvalidSignature:
		return "InvalidSignature"
	case ErrKindUnsupportedSecurityLevel:
		return "UnsupportedSecurityLevel"
	case ErrKindUnsupportedScheme:
		return "UnsupportedScheme"
	default:
		return "Unknown"
	}
}

// Error is the typed error carried by every policy and verification
// failure in this package. From/To/Height are populated where relevant to
// the kind, so operator diagnostics never need to re-derive them.
type Error struct {
	Kind   ErrorKind
	From   Scheme
	To     Scheme
	Height uint64
	Msg    string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrKindAlgorithmDowngrade:
		return fmt.Sprintf("quantum: algorithm downgrade from %s to %s", e.From, e.To)
	case ErrKindAlgorithmMismatch:
		return fmt.Sprintf("quantum: algorithm mismatch, key is %s but signature is %s", e.From, e.To)
	case ErrKindAlgorithmNotAllowed:
		return fmt.Sprintf("quantum: scheme %s is not in the allowed set", e.To)
	case ErrKindPrematureTransition:
		return fmt.Sprintf("quantum: transition to %s premature at height %d", e.To, e.Height)
	case ErrKindInvalidKey:
		return "quantum: invalid key: " + e.Msg
	case ErrKindInvalidSignature:
		return "quantum: invalid signature: " + e.Msg
	case ErrKindUnsupportedSecurityLevel:
		return "quantum: unsupported security level: " + e.Msg
	case ErrKindUnsupportedScheme:
		return "quantum: unsupported scheme: " + e.Msg
	default:
		return "quantum: error: " + e.Msg
	}
}

// Is supports errors.Is comparisons against a sentinel built from just a
// Kind, e.g. errors.Is(err, &Error{Kind: ErrKindAlgorithmDowngrade}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func errDowngrade(from, to Scheme) error {
	return &Error{Kind: ErrKindAlgorithmDowngrade, From: from, To: to}
}

func errMismatch(from, to Scheme) error {
	return &Error{Kind: ErrKindAlgorithmMismatch, From: from, To: to}
}

func errNotAllowed(to Scheme) error {
	return &Error{Kind: ErrKindAlgorithmNotAllowed, To: to}
}

func errPremature(to Scheme, height uint64) error {
	return &Error{Kind: ErrKindPrematureTransition, To: to, Height: height}
}
