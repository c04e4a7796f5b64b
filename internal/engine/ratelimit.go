package engine

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter is the token-bucket admission gate shared by every probe
// kind in a run. Tokens refill continuously at the configured rate up to
// the burst capacity; Acquire blocks until a token is available.
//
// Design decision: We build on golang.org/x/time/rate rather than a
// hand-rolled ticker-fed semaphore because the library already provides
// the exact contract this gate needs: monotonic-clock refill, a hard cap
// at the burst capacity regardless of idle time, and context-aware
// blocking waits. Callers are served in whatever order the runtime wakes
// them; starvation is bounded because tokens accrue continuously.
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a limiter admitting qps tokens per second with
// the given burst capacity. qps of zero disables pacing entirely.
func NewRateLimiter(qps float64, burst int) *RateLimiter {
	if qps <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(qps), burst)}
}

// Acquire blocks until one token is available, then consumes it.
// It never fails under normal operation; the only error is a cancelled
// or expired context, which is how a run deadline interrupts a waiter.
func (r *RateLimiter) Acquire(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Limit returns the configured rate, for logging.
func (r *RateLimiter) Limit() float64 {
	return float64(r.limiter.Limit())
}
