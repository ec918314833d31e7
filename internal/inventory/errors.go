package inventory

import (
	"errors"
	"fmt"
)

// Sentinel errors callers can match with errors.Is.
var (
	// ErrNotFound is returned by single-record lookups that find nothing.
	ErrNotFound = errors.New("inventory: not found")

	// ErrUnavailable is returned when the inventory cannot be reached at
	// all (pool exhausted, connection refused). Callers (the Scheduler)
	// treat this as transient: abandon the current tick and retry.
	ErrUnavailable = errors.New("inventory: unavailable")
)

// UnavailableError wraps a lower-level connectivity failure so callers can
// log the underlying cause while still matching ErrUnavailable via Unwrap.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("inventory: %s: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return ErrUnavailable
}

// NewUnavailableError wraps err as a transient inventory failure for op.
func NewUnavailableError(op string, err error) *UnavailableError {
	return &UnavailableError{Op: op, Err: err}
}
