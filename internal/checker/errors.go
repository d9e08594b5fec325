package checker

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by Source implementations when a repository or
	// path does not exist or is not visible with the configured token.
	ErrNotFound = errors.New("not found")

	// ErrChecksFailed is returned when the run completed but found
	// hard-missing or forbidden secrets.
	ErrChecksFailed = errors.New("secret checks failed")
)

// TransportError is a failed remote call. It aborts the run.
type TransportError struct {
	Op  string // e.g. "list repository secrets"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap allows errors.Is and errors.As to see the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}

func transportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
