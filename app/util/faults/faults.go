// Package faults defines the error taxonomy for remote vendor operations and
// the retry classification built on it.
package faults

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTransport covers network failures and timeouts.
	ErrTransport = errors.New("transport failure")
	// ErrVendor covers non-2xx and vendor-reported failures.
	ErrVendor = errors.New("vendor failure")
	// ErrMalformed covers structurally invalid success responses. It is never
	// accepted as a conversational turn; it retries like a vendor failure.
	ErrMalformed = errors.New("malformed vendor response")
)

// Transport wraps err as a transport failure.
func Transport(err error) error {
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// Vendor builds a vendor failure from an HTTP status and body excerpt.
func Vendor(status int, detail string) error {
	return WithStatus(status, fmt.Errorf("%w: status %d: %s", ErrVendor, status, detail))
}

// Malformed wraps a structural validation failure.
func Malformed(detail string) error {
	return fmt.Errorf("%w: %s", ErrMalformed, detail)
}

// Transient reports whether the operation should be retried locally.
// 4xx vendor failures are permanent; everything else in the taxonomy retries.
func Transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var status int
	if ok := statusOf(err, &status); ok && status >= 400 && status < 500 && status != 429 {
		return false
	}

	return errors.Is(err, ErrTransport) || errors.Is(err, ErrVendor) || errors.Is(err, ErrMalformed)
}

type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string {
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

// WithStatus attaches an HTTP status to err for retry classification.
func WithStatus(status int, err error) error {
	return &statusError{status: status, err: err}
}

func statusOf(err error, out *int) bool {
	var se *statusError
	if errors.As(err, &se) {
		*out = se.status
		return true
	}
	return false
}
