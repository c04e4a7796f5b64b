package sink

import (
	"context"
	"slices"
	"sync"

	"github.com/nao1215/netscout/internal/model"
)

// Memory collects records in memory. The report writers render a whole
// run at once, so the command layer pairs a Memory sink with whatever
// streaming sink the output format calls for.
type Memory struct {
	mu      sync.Mutex
	records []model.ResultRecord
}

// NewMemory creates an empty in-memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Write implements the engine's Sink.
func (s *Memory) Write(_ context.Context, record model.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

// Flush implements the engine's Sink. Nothing to flush.
func (s *Memory) Flush(context.Context) error {
	return nil
}

// Records returns the collected records sorted by address then port,
// the order reports present them in.
func (s *Memory) Records() []model.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.records)
	slices.SortFunc(out, func(a, b model.ResultRecord) int {
		if a.Address != b.Address {
			if a.Address < b.Address {
				return -1
			}
			return 1
		}
		return int(a.Port) - int(b.Port)
	})
	return out
}
