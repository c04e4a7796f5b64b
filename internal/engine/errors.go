package engine

import "errors"

// Configuration errors returned by Options.Validate.
// These fail the run before any probe executes.
//
// Design decision: We use sentinel errors rather than a single formatted
// error because callers (CLI, tests) match on the specific violation,
// and the message for the user is attached where the option is set.
var (
	// ErrInvalidQPS is returned when the rate ceiling is negative.
	ErrInvalidQPS = errors.New("qps must be zero (unlimited) or positive")

	// ErrInvalidBurst is returned when the bucket capacity is negative.
	ErrInvalidBurst = errors.New("burst must be zero (derived) or positive")

	// ErrInvalidGlobalConcurrency is returned when the global in-flight
	// cap is less than one.
	ErrInvalidGlobalConcurrency = errors.New("global concurrency must be at least 1")

	// ErrInvalidHostConcurrency is returned when the per-host cap is negative.
	ErrInvalidHostConcurrency = errors.New("host concurrency must be zero (unlimited) or positive")

	// ErrInvalidMaxRetries is returned when the retry budget is negative.
	ErrInvalidMaxRetries = errors.New("max retries must be zero or positive")

	// ErrInvalidRetryDelay is returned when the retry delay is negative.
	ErrInvalidRetryDelay = errors.New("retry delay must be zero or positive")

	// ErrInvalidAttemptTimeout is returned when the per-attempt timeout
	// is not positive.
	ErrInvalidAttemptTimeout = errors.New("attempt timeout must be positive")

	// ErrInvalidSinkQueue is returned when the aggregator queue size is
	// less than one.
	ErrInvalidSinkQueue = errors.New("sink queue size must be at least 1")

	// ErrNilExecutor is returned when no probe executor was injected.
	ErrNilExecutor = errors.New("probe executor must not be nil")

	// ErrNilSink is returned when no sink was injected.
	ErrNilSink = errors.New("sink must not be nil")
)
