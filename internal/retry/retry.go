package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

// RetryProducer is a decorator that retries transient failures with exponential
// backoff and jitter before giving up on the wrapped Producer.
type RetryProducer struct {
	inner      model.Producer
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
}

// NewRetryProducer wraps a Producer with retry logic.
// maxRetries is the number of additional attempts after the first failure.
// baseDelay is the delay before the first retry, doubled on each subsequent retry.
func NewRetryProducer(inner model.Producer, maxRetries int, baseDelay time.Duration, logger *slog.Logger) *RetryProducer {
	return &RetryProducer{
		inner:      inner,
		maxRetries: maxRetries,
		baseDelay:  baseDelay,
		logger:     logger,
	}
}

func (f *RetryProducer) Name() string { return f.inner.Name() }

// Fetch attempts to fetch records, retrying on transient errors. The last
// error is returned once the retries are used up.
func (f *RetryProducer) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	for attempt := 0; ; attempt++ {
		records, err := f.inner.Fetch(ctx)
		if err == nil {
			return records, nil
		}
		if attempt >= f.maxRetries || !isRetryable(err) {
			return nil, err
		}

		delay := f.backoffDelay(attempt+1, err)
		f.logger.Warn("retrying after transient error",
			"source", f.inner.Name(),
			"attempt", attempt+1,
			"max_retries", f.maxRetries,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry cancelled for %s: %w", f.inner.Name(), ctx.Err())
		case <-time.After(delay):
		}
	}
}

// backoffDelay computes the delay for a given attempt with ±30% jitter.
// If the error includes a Retry-After duration (HTTP 429), that takes precedence.
func (f *RetryProducer) backoffDelay(attempt int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	// Exponential: baseDelay * 2^(attempt-1)
	delay := f.baseDelay
	for i := 1; i < attempt; i++ {
		delay *= 2
	}

	// Apply ±30% jitter
	jitter := float64(delay) * 0.3
	delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)

	return delay
}

// isRetryable returns true if the error represents a transient failure worth retrying.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Context cancellation: never retry.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests: retryable.
		if httpErr.StatusCode == 429 {
			return true
		}
		// 5xx: retryable. Non-standard codes such as LinkedIn's 999 are not.
		if httpErr.StatusCode >= 500 && httpErr.StatusCode < 600 {
			return true
		}
		// 4xx (not 429): not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, etc.): retryable.
	return true
}
