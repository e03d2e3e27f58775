package domain

import "errors"

var (
	// ErrInvalidMessage is returned when a queued notification cannot be parsed
	ErrInvalidMessage = errors.New("invalid notification message")

	// ErrDeliveryRejected is returned when the push gateway rejects a message
	// for good (4xx); retrying will not help
	ErrDeliveryRejected = errors.New("delivery rejected by push gateway")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
