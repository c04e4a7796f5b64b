package enumerate

import (
	"context"
	"sync"

	"github.com/nao1215/netscout/internal/model"
)

// Source is a lazy task source over the cross-product of targets and
// ports. Tasks are produced one at a time in (target, port) order; the
// product is never materialized, so the memory cost is the target and
// port lists themselves.
//
// Source is safe for concurrent Next calls, though the dispatcher pulls
// from a single goroutine.
type Source struct {
	targets   []model.Target
	ports     []uint16
	transport model.Transport
	hint      string

	mu sync.Mutex
	ti int
	pi int
}

// NewSource creates a Source yielding one task per (target, port) pair,
// all with the given transport and protocol hint.
func NewSource(targets []model.Target, ports []uint16, transport model.Transport, hint string) *Source {
	return &Source{
		targets:   targets,
		ports:     ports,
		transport: transport,
		hint:      hint,
	}
}

// Len returns the total number of tasks the source will yield.
func (s *Source) Len() int {
	return len(s.targets) * len(s.ports)
}

// Next implements the engine's TaskSource.
func (s *Source) Next(ctx context.Context) (model.ProbeTask, bool) {
	if ctx.Err() != nil {
		return model.ProbeTask{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ti >= len(s.targets) || len(s.ports) == 0 {
		return model.ProbeTask{}, false
	}

	task := model.ProbeTask{
		Target:       s.targets[s.ti],
		Port:         s.ports[s.pi],
		Transport:    s.transport,
		ProtocolHint: s.hint,
	}

	s.pi++
	if s.pi >= len(s.ports) {
		s.pi = 0
		s.ti++
	}
	return task, true
}
