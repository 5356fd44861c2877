package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out deliveries: the first call passes immediately, every
// later call waits until interval has elapsed since the previous one.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a pacer allowing one event per interval. A non-positive
// interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next event is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("pacing delivery: %w", err)
	}
	return nil
}
