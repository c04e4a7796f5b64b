package engine

import (
	"time"

	"github.com/nao1215/netscout/internal/model"
)

// Decision is the retry controller's verdict for one executed attempt:
// either the outcome is terminal, or the task should be re-enqueued
// after Delay with its attempt number incremented.
type Decision struct {
	// Retry reports whether the task gets another attempt.
	Retry bool

	// Delay is how long to wait before the retried task re-enters the
	// dispatch queue. Zero when Retry is false.
	Delay time.Duration

	// Outcome is the terminal outcome when Retry is false. When retries
	// are exhausted this is a PermanentFailure carrying the last
	// transient reason.
	Outcome model.ProbeOutcome
}

// RetryController decides, per probe attempt, whether to retry and with
// what delay. Success and PermanentFailure are always terminal;
// TransientFailure and Timeout are retried while the attempt budget
// lasts.
//
// Backoff is linear (delay x upcoming attempt number), not exponential:
// the global rate limiter is the dominant pacing mechanism, and retried
// tasks re-enter the limiter and governor gates exactly like fresh
// tasks, with no priority or rate-budget exemption.
type RetryController struct {
	maxRetries int
	delay      time.Duration
}

// NewRetryController creates a controller allowing maxRetries retries
// after the initial attempt, with the given linear backoff base.
func NewRetryController(maxRetries int, delay time.Duration) *RetryController {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if delay < 0 {
		delay = 0
	}
	return &RetryController{maxRetries: maxRetries, delay: delay}
}

// Decide returns the verdict for task's latest attempt.
func (c *RetryController) Decide(task model.ProbeTask, outcome model.ProbeOutcome) Decision {
	if outcome.Kind.Terminal() {
		return Decision{Outcome: outcome}
	}

	// Transient or timeout with budget left: one more attempt.
	if task.Attempt < c.maxRetries {
		next := task.Attempt + 1
		return Decision{Retry: true, Delay: c.delay * time.Duration(next)}
	}

	// Budget exhausted: the last transient reason becomes permanent.
	terminal := outcome
	terminal.Kind = model.PermanentFailure
	if terminal.State == "" {
		terminal.State = model.StateFiltered
	}
	return Decision{Outcome: terminal}
}

// MaxRetries returns the configured retry budget, for logging.
func (c *RetryController) MaxRetries() int {
	return c.maxRetries
}
