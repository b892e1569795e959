// Package core provides the two-tier memory store orchestrator.
package core

import (
	"errors"
	"fmt"
)

// Predefined errors for common failure scenarios.
var (
	// ErrInvalidInput indicates that the provided input is invalid,
	// such as an empty content on store.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates that the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMissingSelector indicates that a forget call supplied neither a
	// memory id nor an age threshold.
	ErrMissingSelector = errors.New("forget requires a memory id or an age threshold")

	// ErrStoreUnavailable indicates that the durable backing store could
	// not be reached or a statement against it failed.
	ErrStoreUnavailable = errors.New("backing store unavailable")
)

// MemoryError wraps errors with operation context.
//
// It provides additional context about which operation failed,
// making error messages more informative for debugging.
//
// Example:
//
//	err := &MemoryError{
//	    Op:  "Remember",
//	    Err: ErrInvalidInput,
//	}
//	// Error() returns: "engram: Remember: invalid input"
type MemoryError struct {
	// Op is the name of the operation that failed.
	Op string

	// Err is the underlying error.
	Err error
}

// Error returns a formatted error message.
//
// The format is: "engram: <Op>: <Err>"
func (e *MemoryError) Error() string {
	return fmt.Sprintf("engram: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
//
// This allows using errors.Is() and errors.As() with MemoryError.
func (e *MemoryError) Unwrap() error {
	return e.Err
}

// NewMemoryError creates a new MemoryError wrapping the given error.
//
// If err is nil, returns nil. This allows safe error wrapping:
//
//	if err != nil {
//	    return NewMemoryError("Recall", err)
//	}
//
// Parameters:
//   - op: Name of the operation (e.g., "Remember", "Recall", "Forget")
//   - err: The underlying error to wrap
//
// Returns a MemoryError, or nil if err is nil.
func NewMemoryError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &MemoryError{
		Op:  op,
		Err: err,
	}
}

// storeUnavailable marks a backing-store failure as ErrStoreUnavailable
// while preserving the backend error text.
func storeUnavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return NewMemoryError(op, fmt.Errorf("%w: %v", ErrStoreUnavailable, err))
}
