package compute

import (
	"fmt"

	"github.com/pkg/errors"
)

// RuntimeError is returned by backends when a call to the underlying runtime fails.
type RuntimeError struct {
	// Backend is the name of the backend that failed.
	Backend string

	// Op is the runtime operation that failed, e.g. "NewContext".
	Op string

	Err error
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s runtime error in %s: %v", e.Backend, e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// RuntimeErrorf creates a RuntimeError with a stack trace (see github.com/pkg/errors package).
func RuntimeErrorf(backend, op, format string, args ...any) error {
	return errors.WithStack(&RuntimeError{Backend: backend, Op: op, Err: errors.Errorf(format, args...)})
}

// WrapRuntimeError converts err, if not nil, to a RuntimeError with a stack trace.
// It returns nil if err is nil.
func WrapRuntimeError(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.WithStack(&RuntimeError{Backend: backend, Op: op, Err: err})
}
