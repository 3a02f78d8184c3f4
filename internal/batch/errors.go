package batch

import (
	"errors"
	"fmt"
)

// Common errors returned by the batch package
var (
	// ErrInvalidOptions is returned when dispatch is requested with options
	// that fail validation, before any task has started
	ErrInvalidOptions = errors.New("invalid batch options")

	// ErrNilLogger is returned when a dispatcher is constructed without a logger
	ErrNilLogger = errors.New("logger cannot be nil")
)

// TaskFailure records a single task's failure together with its position in
// the input sequence.
type TaskFailure struct {
	Index int
	Err   error
}

// AggregateError is returned by Run when one or more tasks failed. It
// carries every individual failure plus the partially-filled result
// sequence so the caller can salvage the successes. Partial has one slot
// per input task; a nil slot means that task failed.
type AggregateError[T any] struct {
	Failures []TaskFailure
	Partial  []*T
}

// Error implements the error interface.
func (e *AggregateError[T]) Error() string {
	return fmt.Sprintf("batch dispatch: %d of %d tasks failed", len(e.Failures), len(e.Partial))
}

// Unwrap exposes the individual task errors to errors.Is and errors.As.
func (e *AggregateError[T]) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}
