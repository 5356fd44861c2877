// Package ratelimit keeps producers polite toward the sites they scrape and
// paces deliveries to the output channel.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

// KeyedLimiter enforces a minimum delay between requests that share a key,
// typically a source type or host. Different keys never block each other.
type KeyedLimiter struct {
	mu        sync.Mutex
	lastCall  map[string]time.Time
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewKeyedLimiter creates a limiter with a default minDelay and optional
// per-key overrides.
func NewKeyedLimiter(minDelay time.Duration, overrides map[string]time.Duration) *KeyedLimiter {
	return &KeyedLimiter{
		lastCall:  make(map[string]time.Time),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

// DelayFor returns the minimum delay that applies to key.
func (r *KeyedLimiter) DelayFor(key string) time.Duration {
	if d, ok := r.overrides[key]; ok {
		return d
	}
	return r.minDelay
}

// Wait blocks until enough time has passed since the last request for key.
// The slot is reserved before sleeping, so concurrent callers on one key are
// spaced out instead of all waking together.
func (r *KeyedLimiter) Wait(ctx context.Context, key string) error {
	delay := r.DelayFor(key)

	r.mu.Lock()
	now := time.Now()
	slot := now
	if last, ok := r.lastCall[key]; ok && last.Add(delay).After(now) {
		slot = last.Add(delay)
	}
	r.lastCall[key] = slot
	r.mu.Unlock()

	wait := slot.Sub(now)
	if wait <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", key, ctx.Err())
	case <-time.After(wait):
		return nil
	}
}

// RateLimitedProducer is a decorator that waits on a shared KeyedLimiter
// before delegating to the wrapped Producer.
type RateLimitedProducer struct {
	inner   model.Producer
	limiter *KeyedLimiter
	key     string
}

// NewRateLimitedProducer wraps a Producer. All producers hitting the same
// backend should share one limiter and key.
func NewRateLimitedProducer(inner model.Producer, limiter *KeyedLimiter, key string) *RateLimitedProducer {
	return &RateLimitedProducer{
		inner:   inner,
		limiter: limiter,
		key:     key,
	}
}

func (p *RateLimitedProducer) Name() string { return p.inner.Name() }

// Fetch waits for the limiter, then delegates.
func (p *RateLimitedProducer) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	if err := p.limiter.Wait(ctx, p.key); err != nil {
		return nil, err
	}
	return p.inner.Fetch(ctx)
}
