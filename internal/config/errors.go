package config

import "errors"

// Configuration errors. Each validation failure maps to one sentinel so
// callers and tests can match with errors.Is.
var (
	// ErrNoTarget is returned when no scan target was given.
	ErrNoTarget = errors.New("config: at least one target is required")

	// ErrInvalidQPS is returned for a negative rate limit.
	ErrInvalidQPS = errors.New("config: qps must be >= 0 (0 means unlimited)")

	// ErrInvalidConcurrency is returned for a non-positive global
	// concurrency cap.
	ErrInvalidConcurrency = errors.New("config: concurrency must be >= 1")

	// ErrInvalidHostConcurrency is returned for a negative per-host cap.
	ErrInvalidHostConcurrency = errors.New("config: host-concurrency must be >= 0 (0 means unlimited)")

	// ErrInvalidRetries is returned for a negative retry budget.
	ErrInvalidRetries = errors.New("config: max-retries must be >= 0")

	// ErrInvalidTimeout is returned for a non-positive attempt timeout.
	ErrInvalidTimeout = errors.New("config: timeout must be > 0")

	// ErrInvalidPortSpec is returned when the port spec parses to nothing.
	ErrInvalidPortSpec = errors.New("config: invalid port spec")

	// ErrInvalidOutputFormat is returned for an unknown output format.
	ErrInvalidOutputFormat = errors.New("config: output format must be text, jsonl, csv, or markdown")
)
