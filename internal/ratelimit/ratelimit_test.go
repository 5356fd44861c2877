package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/internfeed/internal/model"
)

func TestWait_SameKey_EnforcesMinDelay(t *testing.T) {
	limiter := NewKeyedLimiter(100*time.Millisecond, nil)
	ctx := context.Background()

	// First call should return immediately.
	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Should have waited at least ~100ms (allow 80ms for timer jitter).
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentKeys_NoCrossBlocking(t *testing.T) {
	limiter := NewKeyedLimiter(200*time.Millisecond, nil)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "greenhouse"); err != nil {
		t.Fatalf("greenhouse wait: %v", err)
	}

	// Immediately call for rss: should NOT block.
	start := time.Now()
	if err := limiter.Wait(ctx, "rss"); err != nil {
		t.Fatalf("rss wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected rss wait to be near-instant, got %v", elapsed)
	}
}

func TestWait_OverrideApplies(t *testing.T) {
	limiter := NewKeyedLimiter(5*time.Second, map[string]time.Duration{"rss": 0})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, "rss"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("override of 0 should not wait, took %v", elapsed)
	}
	if got := limiter.DelayFor("linkedin"); got != 5*time.Second {
		t.Errorf("DelayFor(linkedin) = %v, want default", got)
	}
}

func TestWait_ConcurrentCallersAreSpaced(t *testing.T) {
	limiter := NewKeyedLimiter(50*time.Millisecond, nil)
	ctx := context.Background()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiter.Wait(ctx, "internshala")
		}()
	}
	wg.Wait()

	// Slots at 0, 50ms, 100ms.
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("three concurrent callers finished in %v, want >= ~100ms", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewKeyedLimiter(5*time.Second, nil)

	// First call to seed the last-call time.
	if err := limiter.Wait(context.Background(), "greenhouse"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx, "greenhouse"); err == nil {
		t.Fatal("expected error from cancelled context, got nil")
	}
}

type recordingProducer struct {
	called bool
}

func (p *recordingProducer) Name() string { return "recording" }

func (p *recordingProducer) Fetch(_ context.Context) ([]model.RawRecord, error) {
	p.called = true
	return nil, nil
}

func TestRateLimitedProducer_WaitsBeforeDelegating(t *testing.T) {
	limiter := NewKeyedLimiter(100*time.Millisecond, nil)
	inner := &recordingProducer{}
	p := NewRateLimitedProducer(inner, limiter, "greenhouse")
	ctx := context.Background()

	if _, err := p.Fetch(ctx); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner producer was not called on first fetch")
	}
	inner.called = false

	start := time.Now()
	if _, err := p.Fetch(ctx); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if !inner.called {
		t.Fatal("inner producer was not called on second fetch")
	}
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait on second fetch, got %v", elapsed)
	}
	if p.Name() != "recording" {
		t.Errorf("Name = %q", p.Name())
	}
}

func TestPacer(t *testing.T) {
	p := NewPacer(60 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(ctx); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	// First is free, then two intervals.
	if elapsed := time.Since(start); elapsed < 100*time.Millisecond {
		t.Errorf("3 paced events took %v, want >= ~120ms", elapsed)
	}
}

func TestPacer_Disabled(t *testing.T) {
	p := NewPacer(0)
	start := time.Now()
	for i := 0; i < 10; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("wait: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("disabled pacer waited %v", elapsed)
	}
}

func TestPacer_ContextCancelled(t *testing.T) {
	p := NewPacer(time.Hour)
	p.Wait(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
