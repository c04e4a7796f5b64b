package engine

import "time"

// Default engine settings. These mirror the behavior of a polite but
// useful scan: modest concurrency, a single retry, sub-second attempts.
const (
	// DefaultGlobalConcurrency caps total in-flight probes. 256 keeps
	// file-descriptor usage well below common ulimits while saturating
	// most uplinks.
	DefaultGlobalConcurrency = 256

	// DefaultMaxRetries retries each transient failure or timeout once.
	// The global rate limiter, not backoff, is the dominant pacing
	// mechanism, so a small budget is enough to smooth over flaky paths.
	DefaultMaxRetries = 1

	// DefaultRetryDelay is the base of the linear backoff
	// (delay x attempt number).
	DefaultRetryDelay = 50 * time.Millisecond

	// DefaultAttemptTimeout bounds a single connect/read attempt.
	// A few hundred milliseconds covers same-continent RTTs; slow
	// targets surface as Timeout and get retried.
	DefaultAttemptTimeout = 500 * time.Millisecond

	// DefaultSinkQueue is the bounded queue between the aggregator and
	// the sink. When full, recording terminal outcomes blocks, which
	// backpressures dispatch through the concurrency governor.
	DefaultSinkQueue = 1024
)

// Options configures a run. The set is immutable for the run's duration;
// Validate is called before any probe executes.
type Options struct {
	// QPS is the global rate ceiling for probe attempts, shared by
	// every probe kind in the run. Zero disables pacing.
	QPS float64

	// Burst is the token bucket capacity. Zero derives a small multiple
	// of QPS (a quarter second of tokens, at least one) so an idle
	// period cannot bank an unbounded thundering herd.
	Burst int

	// GlobalConcurrency is the hard cap on total in-flight probes.
	GlobalConcurrency int

	// HostConcurrency caps in-flight probes to a single target.
	// Zero means unlimited (only the global cap applies).
	HostConcurrency int

	// MaxRetries is the number of retries after the initial attempt for
	// transient failures and timeouts.
	MaxRetries int

	// RetryDelay is the linear backoff base between attempts.
	RetryDelay time.Duration

	// AttemptTimeout is the deadline for a single probe attempt.
	AttemptTimeout time.Duration

	// Deadline bounds the whole run. Zero means no deadline.
	// Expiry is a hard stop unless GracefulDeadline is set.
	Deadline time.Duration

	// GracefulDeadline makes the run deadline stop admissions and drain
	// in-flight probes instead of abandoning them.
	GracefulDeadline bool

	// SinkQueue is the bounded aggregator-to-sink queue size.
	SinkQueue int
}

// DefaultOptions returns Options with documented defaults applied.
func DefaultOptions() Options {
	return Options{
		GlobalConcurrency: DefaultGlobalConcurrency,
		MaxRetries:        DefaultMaxRetries,
		RetryDelay:        DefaultRetryDelay,
		AttemptTimeout:    DefaultAttemptTimeout,
		SinkQueue:         DefaultSinkQueue,
	}
}

// Validate checks the option set and returns the first violation.
// A non-nil error is a configuration error: the run must not start.
func (o Options) Validate() error {
	if o.QPS < 0 {
		return ErrInvalidQPS
	}
	if o.Burst < 0 {
		return ErrInvalidBurst
	}
	if o.GlobalConcurrency < 1 {
		return ErrInvalidGlobalConcurrency
	}
	if o.HostConcurrency < 0 {
		return ErrInvalidHostConcurrency
	}
	if o.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}
	if o.RetryDelay < 0 {
		return ErrInvalidRetryDelay
	}
	if o.AttemptTimeout <= 0 {
		return ErrInvalidAttemptTimeout
	}
	if o.SinkQueue < 1 {
		return ErrInvalidSinkQueue
	}
	return nil
}

// effectiveBurst derives the bucket capacity when Burst is zero.
func (o Options) effectiveBurst() int {
	if o.Burst > 0 {
		return o.Burst
	}
	derived := int(o.QPS / 4)
	if derived < 1 {
		derived = 1
	}
	return derived
}
