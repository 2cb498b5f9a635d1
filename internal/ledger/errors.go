package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the referenced transaction does not exist for
// the given user.
var ErrNotFound = errors.New("transaction not found")

// ValidationError marks input rejected at the write boundary. The aggregation
// engine never validates; everything it receives has passed this gate.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps err as a write-boundary rejection.
func NewValidationError(err error) error {
	return &ValidationError{Err: err}
}

// IsValidation reports whether err is a write-boundary rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a backend failure. It is propagated unchanged to the
// caller; nothing downstream catches or masks it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError tags err with the failing store operation.
func NewStorageError(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
