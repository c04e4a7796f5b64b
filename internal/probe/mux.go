package probe

import (
	"context"
	"fmt"
	"sync"

	"github.com/nao1215/netscout/internal/engine"
	"github.com/nao1215/netscout/internal/model"
)

// Mux routes tasks to registered executors by protocol hint, so a
// single run can mix probe kinds while the dispatcher stays generic.
//
// Design decision: Routing lives in the probe layer rather than the
// engine because:
//  1. The dispatcher's invariants (rate, concurrency, retries) do not
//     depend on what a probe speaks
//  2. New probe kinds register here without touching engine code
//  3. Tests can register fakes under any hint
type Mux struct {
	mu        sync.RWMutex
	executors map[string]engine.ProbeExecutor
	fallback  engine.ProbeExecutor
}

// NewMux creates an empty mux.
func NewMux() *Mux {
	return &Mux{executors: make(map[string]engine.ProbeExecutor)}
}

// Register binds an executor to a protocol hint. Registering the same
// hint twice replaces the previous binding.
func (m *Mux) Register(hint string, executor engine.ProbeExecutor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executors[hint] = executor
}

// RegisterFallback binds the executor used when a task's hint has no
// registration.
func (m *Mux) RegisterFallback(executor engine.ProbeExecutor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = executor
}

// Execute implements the engine's ProbeExecutor.
func (m *Mux) Execute(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	m.mu.RLock()
	executor, ok := m.executors[task.ProtocolHint]
	if !ok {
		executor = m.fallback
	}
	m.mu.RUnlock()

	if executor == nil {
		return model.ProbeOutcome{}, fmt.Errorf("probe: no executor for hint %q", task.ProtocolHint)
	}
	return executor.Execute(ctx, task)
}
