package model

import (
	"time"

	"github.com/google/uuid"
)

// RunSummary aggregates the statistics of a single scan run.
//
// Lifecycle: created at run start by NewRunSummary, mutated only by the
// result aggregator (single-writer discipline), frozen by the aggregator
// at finalize. It is never shared as ambient global state; the owner
// passes it by reference.
type RunSummary struct {
	// RunID is the time-ordered unique identifier for this run.
	RunID string `json:"run_id"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run was finalized. Zero until finalize.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// HostCount is the number of distinct hosts with at least one
	// terminal record.
	HostCount int `json:"host_count"`

	// ProbeCount is the number of logical probes with a terminal record.
	ProbeCount int `json:"probe_count"`

	// AttemptCount is the total number of probe attempts executed,
	// including retries.
	AttemptCount int `json:"attempt_count"`

	// ErrorCount is the number of probes whose terminal state came from
	// a permanent failure or exhausted retries, plus executor faults.
	ErrorCount int `json:"error_count"`

	// AchievedQPS is the realized attempt rate over the run duration.
	// Computed at finalize.
	AchievedQPS float64 `json:"achieved_qps"`

	// Cancelled reports that the run was stopped by a deadline or an
	// external signal before the task stream was exhausted.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewRunSummary creates a RunSummary with a fresh time-ordered run ID.
//
// UUIDv7 embeds a millisecond timestamp in its high bits, so run IDs
// sort chronologically in downstream storage.
func NewRunSummary(now time.Time) *RunSummary {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails if the random source fails; fall back to v4
		// rather than aborting the run over an ID.
		id = uuid.New()
	}
	return &RunSummary{
		RunID:     id.String(),
		StartedAt: now,
	}
}

// Duration returns the run duration, using now for unfinished runs.
func (s *RunSummary) Duration(now time.Time) time.Duration {
	if s.FinishedAt.IsZero() {
		return now.Sub(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
