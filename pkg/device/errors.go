package device

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTransport indicates the service could not be reached (network, timeout, open breaker)
	ErrTransport = errors.New("transport error")

	// ErrStatus indicates the service answered with a non-success status
	ErrStatus = errors.New("unexpected status")

	// ErrCancelled indicates the request was superseded and aborted by the caller
	ErrCancelled = errors.New("request cancelled")

	// ErrNotConnected indicates no remote service is configured
	ErrNotConnected = errors.New("gateway not connected")

	// ErrValidation indicates a command payload failed schema validation
	ErrValidation = errors.New("validation error")
)

// StatusError carries the HTTP status of a failed remote operation.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s %d", e.Op, ErrStatus, e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Cancelled wraps a context error so that it matches both ErrCancelled and the
// original context sentinel.
func Cancelled(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrCancelled, err)
}

// IsCancelled reports whether err stems from a superseded request.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}
