package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/netscout/internal/model"
)

// fakeSink is a test Sink that records writes and flushes.
type fakeSink struct {
	mu       sync.Mutex
	records  []model.ResultRecord
	flushes  int
	writeErr error
}

// Write implements Sink.
func (s *fakeSink) Write(_ context.Context, record model.ResultRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.records = append(s.records, record)
	return nil
}

// Flush implements Sink.
func (s *fakeSink) Flush(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func (s *fakeSink) snapshot() []model.ResultRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ResultRecord(nil), s.records...)
}

func (s *fakeSink) flushCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushes
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTask(addr string, port uint16) model.ProbeTask {
	return model.ProbeTask{
		Target:    model.NewTarget(addr),
		Port:      port,
		Transport: model.TransportTCP,
	}
}

// TestAggregatorRecord tests summary counters and record fields.
func TestAggregatorRecord(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	agg := NewResultAggregator(context.Background(), sink, 8, discardLogger(), time.Now)

	open := testTask("10.0.0.1", 80)
	agg.NoteAttempt(open)
	agg.Record(open, model.SuccessOutcome(model.StateOpen))

	failed := testTask("10.0.0.2", 22)
	agg.NoteAttempt(failed)
	agg.NoteAttempt(failed)
	agg.Record(failed, model.ProbeOutcome{Kind: model.PermanentFailure, State: model.StateFiltered, Reason: "reset"})

	summary := agg.Finalize(context.Background(), false)

	if summary.ProbeCount != 2 {
		t.Errorf("ProbeCount = %d, want 2", summary.ProbeCount)
	}
	if summary.HostCount != 2 {
		t.Errorf("HostCount = %d, want 2", summary.HostCount)
	}
	if summary.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", summary.ErrorCount)
	}
	if summary.AttemptCount != 3 {
		t.Errorf("AttemptCount = %d, want 3", summary.AttemptCount)
	}
	if summary.FinishedAt.IsZero() {
		t.Error("expected FinishedAt to be set")
	}

	records := sink.snapshot()
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	for _, r := range records {
		if r.RunID != summary.RunID {
			t.Errorf("record run id %q does not match summary %q", r.RunID, summary.RunID)
		}
		if r.FirstSeenMS == 0 || r.LastSeenMS == 0 {
			t.Error("expected first/last seen timestamps to be populated")
		}
		if r.FirstSeenMS > r.LastSeenMS {
			t.Errorf("first seen %d after last seen %d", r.FirstSeenMS, r.LastSeenMS)
		}
	}
}

// TestAggregatorAtMostOneRecord tests that a duplicate terminal outcome
// for the same probe key is dropped.
func TestAggregatorAtMostOneRecord(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	agg := NewResultAggregator(context.Background(), sink, 8, discardLogger(), time.Now)

	task := testTask("10.0.0.1", 443)
	agg.NoteAttempt(task)
	agg.Record(task, model.SuccessOutcome(model.StateOpen))
	agg.Record(task, model.SuccessOutcome(model.StateClosed)) // dispatcher bug simulation

	summary := agg.Finalize(context.Background(), false)

	if summary.ProbeCount != 1 {
		t.Errorf("ProbeCount = %d, want 1", summary.ProbeCount)
	}
	if got := len(sink.snapshot()); got != 1 {
		t.Errorf("records = %d, want exactly 1 per (target, port, transport)", got)
	}
}

// TestAggregatorFinalizeIdempotent tests that a second finalize neither
// double-counts nor re-flushes.
func TestAggregatorFinalizeIdempotent(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	agg := NewResultAggregator(context.Background(), sink, 8, discardLogger(), time.Now)

	task := testTask("10.0.0.1", 80)
	agg.NoteAttempt(task)
	agg.Record(task, model.SuccessOutcome(model.StateOpen))

	first := agg.Finalize(context.Background(), false)
	second := agg.Finalize(context.Background(), true)

	if first != second {
		t.Error("expected the same frozen summary from both finalize calls")
	}
	if second.Cancelled {
		t.Error("second finalize mutated the frozen summary")
	}
	if got := sink.flushCount(); got != 1 {
		t.Errorf("flushes = %d, want 1", got)
	}
}

// TestAggregatorFault tests that executor faults surface in the error
// count and produce a terminal record.
func TestAggregatorFault(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	agg := NewResultAggregator(context.Background(), sink, 8, discardLogger(), time.Now)

	task := testTask("10.0.0.9", 8080)
	agg.NoteAttempt(task)
	agg.RecordFault(task, errors.New("prober panic recovered"))

	summary := agg.Finalize(context.Background(), false)

	if summary.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", summary.ErrorCount)
	}
	records := sink.snapshot()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if !records[0].Failed {
		t.Error("expected fault record to be marked failed")
	}
}

// TestAggregatorSinkWriteFailure tests that failed sink writes are
// counted but do not abort the run.
func TestAggregatorSinkWriteFailure(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{writeErr: errors.New("disk full")}
	agg := NewResultAggregator(context.Background(), sink, 8, discardLogger(), time.Now)

	task := testTask("10.0.0.1", 80)
	agg.NoteAttempt(task)
	agg.Record(task, model.SuccessOutcome(model.StateOpen))

	summary := agg.Finalize(context.Background(), false)

	if summary.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1 for the failed write", summary.ErrorCount)
	}
}

// TestAggregatorRetriesUpdateRecord tests that retries update attempt
// count and last-seen on the single record rather than duplicating it.
func TestAggregatorRetriesUpdateRecord(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	current := base
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}

	sink := &fakeSink{}
	agg := NewResultAggregator(context.Background(), sink, 8, discardLogger(), clock)

	task := testTask("10.0.0.1", 53)
	agg.NoteAttempt(task)
	task.Attempt = 1
	agg.NoteAttempt(task)
	task.Attempt = 2
	agg.NoteAttempt(task)
	agg.Record(task, model.ProbeOutcome{Kind: model.PermanentFailure, State: model.StateFiltered, Reason: "no reply"})

	agg.Finalize(context.Background(), false)

	records := sink.snapshot()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	r := records[0]
	if r.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", r.Attempts)
	}
	if r.FirstSeenMS >= r.LastSeenMS {
		t.Errorf("expected last seen (%d) after first seen (%d)", r.LastSeenMS, r.FirstSeenMS)
	}
}
