// Package errkind defines the error taxonomy shared by every component of
// the substrate: invalid input, precondition violations, store I/O failures,
// cancellation, and internal invariant violations.
package errkind

import "fmt"

// Kind is a sentinel error classification. Callers use errors.Is against the
// package-level Kind values to branch on failure category without depending
// on a concrete error type.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	// InvalidInput covers malformed headers, unsupported dtypes, and
	// references to nonexistent ids. Reported synchronously; no partial
	// state is left behind.
	InvalidInput Kind = "invalid input"

	// PreconditionViolation covers empty input, mismatched child/multiplicity
	// lengths, and multiplicities below 1.
	PreconditionViolation Kind = "precondition violation"

	// StoreIO covers connection loss and constraint violations. The
	// operation is safe to retry: content addressing makes every insert
	// idempotent.
	StoreIO Kind = "store I/O failure"

	// Cancelled is raised between batches of a cancellable operation. Any
	// in-flight batch is rolled back wholesale.
	Cancelled Kind = "cancelled"

	// InvariantViolation signals a bug: a dangling id, a hash mismatch on
	// reconstruction, or any other state the substrate's own invariants
	// forbid. Never recovered from.
	InvariantViolation Kind = "internal invariant violation"
)

// Wrap annotates err with a message while preserving errors.Is(err, kind).
func Wrap(kind Kind, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}
