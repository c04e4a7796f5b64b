package engine

import (
	"context"

	"github.com/nao1215/netscout/internal/model"
)

// ProbeExecutor executes one unit of work (one host+port+protocol) and
// returns a classified outcome. Concrete variants (TCP connect,
// discovery ping, banner grab, UDP query) live in the probe package;
// the dispatcher is generic over this interface and never branches on
// protocol kind.
//
// Contract for implementations:
//   - Honor ctx: the dispatcher derives a per-attempt deadline from the
//     run options, and cancellation must interrupt connects and reads.
//   - Never retry internally; retry policy belongs to the engine.
//   - Classify per protocol semantics: connection-refused is a Success
//     with state closed, not a failure; an exceeded deadline is Timeout.
//   - Return a non-nil error only for internal faults that cannot be
//     classified. Such faults count against the run's error total and
//     are not retried.
type ProbeExecutor interface {
	Execute(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error)
}

// ExecutorFunc adapts a function to the ProbeExecutor interface, the
// same way http.HandlerFunc does. Used heavily by tests.
type ExecutorFunc func(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error)

// Execute implements ProbeExecutor.
func (f ExecutorFunc) Execute(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	return f(ctx, task)
}

// TaskSource produces a lazy, finite sequence of probe tasks: the
// cross-product of targets, ports, and protocol hints. The dispatcher
// pulls tasks one at a time so target sets far larger than memory are
// supported; implementations must not materialize the product.
type TaskSource interface {
	// Next returns the next task. ok is false when the sequence is
	// exhausted or ctx was cancelled; the source need not be
	// restartable afterwards.
	Next(ctx context.Context) (task model.ProbeTask, ok bool)
}

// SliceSource is a TaskSource over an in-memory task slice. Convenient
// for single-host scans and tests; large scans use the enumerate
// package's lazy source instead.
type SliceSource struct {
	tasks []model.ProbeTask
	next  int
}

// NewSliceSource creates a SliceSource over tasks.
func NewSliceSource(tasks []model.ProbeTask) *SliceSource {
	return &SliceSource{tasks: tasks}
}

// Next implements TaskSource.
func (s *SliceSource) Next(ctx context.Context) (model.ProbeTask, bool) {
	if ctx.Err() != nil || s.next >= len(s.tasks) {
		return model.ProbeTask{}, false
	}
	t := s.tasks[s.next]
	s.next++
	return t, true
}

// Sink consumes streamed result records. Implementations (JSONL, CSV,
// SQLite) live in the sink package. The engine guarantees at most one
// Write per (target, port, transport) per run and calls Flush exactly
// once at finalize.
type Sink interface {
	Write(ctx context.Context, record model.ResultRecord) error
	Flush(ctx context.Context) error
}
