package mempool

import (
	"fmt"

	"github.com/supernova-labs/supernova/chainhash"
)

// ErrorKind enumerates mempool admission failure modes (spec.md §4.5).
type ErrorKind int

const (
	ErrKindTransactionExists ErrorKind = iota
	ErrKindMempoolFull
	ErrKindFeeTooLow
	ErrKindDoubleSpend
	ErrKindSerializationError
)

// Error is the typed error returned by pool admission and replacement.
// ConflictHash is populated only for DoubleSpend, naming the transaction
// that already claims the contested input.
type Error struct {
	Kind         ErrorKind
	Msg          string
	ConflictHash chainhash.Hash
}

func (e *Error) Error() string {
	if e.Kind == ErrKindDoubleSpend {
		return fmt.Sprintf("mempool: double spend conflicts with %s", e.ConflictHash)
	}
	return "mempool: " + e.Msg
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func errKind(kind ErrorKind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func errDoubleSpend(conflict chainhash.Hash) error {
	return &Error{Kind: ErrKindDoubleSpend, ConflictHash: conflict}
}
