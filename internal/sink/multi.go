package sink

import (
	"context"

	"github.com/nao1215/netscout/internal/model"
)

// Sink is the record consumer contract shared with the engine. Declared
// here as well so fan-out composition does not depend on engine types.
type Sink interface {
	Write(ctx context.Context, record model.ResultRecord) error
	Flush(ctx context.Context) error
}

// Multi fans every record out to several sinks, e.g. an in-memory
// collector for the report plus SQLite for history.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a sink writing to all provided sinks.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

// Write delivers the record to every sink, stopping on the first error.
func (s *Multi) Write(ctx context.Context, record model.ResultRecord) error {
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes every sink, stopping on the first error.
func (s *Multi) Flush(ctx context.Context) error {
	for _, sink := range s.sinks {
		if err := sink.Flush(ctx); err != nil {
			return err
		}
	}
	return nil
}
