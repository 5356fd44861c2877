package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrQuotaExceeded is returned when a requester has used up the daily quota.
	ErrQuotaExceeded = errors.New("daily quota exceeded")

	// ErrMissingCredentials means the configured delivery channel cannot be used.
	ErrMissingCredentials = errors.New("missing delivery credentials")

	// ErrLocked means another run holds the store lock.
	ErrLocked = errors.New("store is locked by another run")

	// ErrNotFound is returned when a record ID is not in the store.
	ErrNotFound = errors.New("record not found")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
