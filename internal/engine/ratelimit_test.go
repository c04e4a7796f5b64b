package engine

import (
	"context"
	"testing"
	"time"
)

// TestRateLimiterUnlimited tests that qps zero disables pacing.
func TestRateLimiterUnlimited(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0, 0)

	start := time.Now()
	for n := 0; n < 100; n++ {
		if err := rl.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("unlimited limiter delayed acquisitions: %v", elapsed)
	}
}

// TestRateLimiterCeiling tests that acquisitions respect the token rate.
func TestRateLimiterCeiling(t *testing.T) {
	t.Parallel()

	// qps=10, burst=1: the 3rd acquisition cannot complete before
	// roughly 200ms (one token banked, two refills at 100ms each).
	rl := NewRateLimiter(10, 1)

	start := time.Now()
	for n := 0; n < 3; n++ {
		if err := rl.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	elapsed := time.Since(start)

	if elapsed < 180*time.Millisecond {
		t.Errorf("3 acquisitions at qps=10 burst=1 took %v, want >= ~200ms", elapsed)
	}
}

// TestRateLimiterBurstCap tests that idle time does not bank more than
// the burst capacity.
func TestRateLimiterBurstCap(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(1000, 2)

	// Let tokens accrue well past the burst capacity.
	time.Sleep(20 * time.Millisecond)

	start := time.Now()
	for n := 0; n < 4; n++ {
		if err := rl.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	elapsed := time.Since(start)

	// 2 banked tokens + 2 refills at 1ms each: measurable, while an
	// unbounded bank would make all 4 instantaneous.
	if elapsed < 1*time.Millisecond {
		t.Errorf("4 acquisitions after idle took %v, burst cap not applied", elapsed)
	}
}

// TestRateLimiterCancellation tests that a blocked acquire observes
// context cancellation.
func TestRateLimiterCancellation(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(0.1, 1) // one token every 10s

	if err := rl.Acquire(context.Background()); err != nil {
		t.Fatalf("first acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := rl.Acquire(ctx)
	if err == nil {
		t.Fatal("expected error from cancelled acquire")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancelled acquire blocked for %v", elapsed)
	}
}
