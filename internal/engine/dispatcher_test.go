package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/netscout/internal/model"
)

func successExecutor() ProbeExecutor {
	return ExecutorFunc(func(context.Context, model.ProbeTask) (model.ProbeOutcome, error) {
		return model.SuccessOutcome(model.StateOpen), nil
	})
}

func taskSlice(addrs []string, ports []uint16) []model.ProbeTask {
	tasks := make([]model.ProbeTask, 0, len(addrs)*len(ports))
	for _, a := range addrs {
		for _, p := range ports {
			tasks = append(tasks, model.ProbeTask{
				Target:    model.NewTarget(a),
				Port:      p,
				Transport: model.TransportTCP,
			})
		}
	}
	return tasks
}

// TestDispatcherConfigErrors tests that invalid options and missing
// collaborators prevent the run from ever starting.
func TestDispatcherConfigErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(*Options)
		executor ProbeExecutor
		sink     Sink
		wantErr  error
	}{
		{
			name:     "negative qps",
			mutate:   func(o *Options) { o.QPS = -1 },
			executor: successExecutor(),
			sink:     &fakeSink{},
			wantErr:  ErrInvalidQPS,
		},
		{
			name:     "zero global concurrency",
			mutate:   func(o *Options) { o.GlobalConcurrency = 0 },
			executor: successExecutor(),
			sink:     &fakeSink{},
			wantErr:  ErrInvalidGlobalConcurrency,
		},
		{
			name:     "negative retries",
			mutate:   func(o *Options) { o.MaxRetries = -1 },
			executor: successExecutor(),
			sink:     &fakeSink{},
			wantErr:  ErrInvalidMaxRetries,
		},
		{
			name:     "nil executor",
			mutate:   func(*Options) {},
			executor: nil,
			sink:     &fakeSink{},
			wantErr:  ErrNilExecutor,
		},
		{
			name:     "nil sink",
			mutate:   func(*Options) {},
			executor: successExecutor(),
			sink:     nil,
			wantErr:  ErrNilSink,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts := DefaultOptions()
			tt.mutate(&opts)

			if _, err := NewDispatcher(opts, tt.executor, tt.sink, discardLogger()); !errors.Is(err, tt.wantErr) {
				t.Errorf("NewDispatcher error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestDispatcherAllSuccess tests the happy path: every task yields one
// record, counters line up, no error is returned.
func TestDispatcherAllSuccess(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	sink := &fakeSink{}
	d, err := NewDispatcher(opts, successExecutor(), sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	tasks := taskSlice([]string{"10.0.0.1", "10.0.0.2"}, []uint16{22, 80, 443})
	summary, err := d.Run(context.Background(), NewSliceSource(tasks))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.ProbeCount != len(tasks) {
		t.Errorf("ProbeCount = %d, want %d", summary.ProbeCount, len(tasks))
	}
	if summary.AttemptCount != len(tasks) {
		t.Errorf("AttemptCount = %d, want %d", summary.AttemptCount, len(tasks))
	}
	if summary.HostCount != 2 {
		t.Errorf("HostCount = %d, want 2", summary.HostCount)
	}
	if summary.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", summary.ErrorCount)
	}
	if summary.Cancelled {
		t.Error("run reported cancelled")
	}
	if got := len(sink.snapshot()); got != len(tasks) {
		t.Errorf("records = %d, want %d", got, len(tasks))
	}
	if summary.AchievedQPS <= 0 {
		t.Errorf("AchievedQPS = %f, want > 0", summary.AchievedQPS)
	}
}

// TestDispatcherRateCeiling tests that the run's wall clock respects the
// configured rate: 3 tasks at qps=10 burst=1 need two 100ms refills.
func TestDispatcherRateCeiling(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.QPS = 10
	opts.Burst = 1

	sink := &fakeSink{}
	d, err := NewDispatcher(opts, successExecutor(), sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	tasks := taskSlice([]string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, []uint16{80})
	start := time.Now()
	summary, err := d.Run(context.Background(), NewSliceSource(tasks))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	elapsed := time.Since(start)

	if elapsed < 180*time.Millisecond {
		t.Errorf("3 probes at qps=10 burst=1 took %v, want >= ~200ms", elapsed)
	}
	if summary.ProbeCount != 3 {
		t.Errorf("ProbeCount = %d, want 3", summary.ProbeCount)
	}
	if summary.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", summary.ErrorCount)
	}
}

// TestDispatcherRetryExhaustion tests that a task that always times out
// is attempted exactly 1+maxRetries times and lands as a single
// permanent-failure record.
func TestDispatcherRetryExhaustion(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.MaxRetries = 2
	opts.RetryDelay = time.Millisecond

	var attempts atomic.Int64
	executor := ExecutorFunc(func(context.Context, model.ProbeTask) (model.ProbeOutcome, error) {
		attempts.Add(1)
		return model.FailureOutcome(model.Timeout, "i/o timeout"), nil
	})

	sink := &fakeSink{}
	d, err := NewDispatcher(opts, executor, sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	tasks := taskSlice([]string{"10.0.0.1"}, []uint16{9999})
	summary, err := d.Run(context.Background(), NewSliceSource(tasks))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := attempts.Load(); got != 3 {
		t.Errorf("executor invoked %d times, want exactly 3 (1 initial + 2 retries)", got)
	}
	if summary.AttemptCount != 3 {
		t.Errorf("AttemptCount = %d, want 3", summary.AttemptCount)
	}
	if summary.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", summary.ErrorCount)
	}

	records := sink.snapshot()
	if len(records) != 1 {
		t.Fatalf("records = %d, want exactly 1", len(records))
	}
	r := records[0]
	if !r.Failed {
		t.Error("expected exhausted record to be marked failed")
	}
	if r.State != model.StateFiltered {
		t.Errorf("state = %q, want %q", r.State, model.StateFiltered)
	}
	if r.Attempts != 3 {
		t.Errorf("record attempts = %d, want 3", r.Attempts)
	}
}

// TestDispatcherTransientThenSuccess tests that a recovery within the
// retry budget produces a success record, not an error.
func TestDispatcherTransientThenSuccess(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.MaxRetries = 2
	opts.RetryDelay = time.Millisecond

	var attempts atomic.Int64
	executor := ExecutorFunc(func(context.Context, model.ProbeTask) (model.ProbeOutcome, error) {
		if attempts.Add(1) < 3 {
			return model.FailureOutcome(model.TransientFailure, "connection reset"), nil
		}
		return model.SuccessOutcome(model.StateOpen), nil
	})

	sink := &fakeSink{}
	d, err := NewDispatcher(opts, executor, sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	summary, err := d.Run(context.Background(), NewSliceSource(taskSlice([]string{"10.0.0.1"}, []uint16{80})))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0 after recovery", summary.ErrorCount)
	}
	records := sink.snapshot()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].Failed {
		t.Error("recovered probe marked failed")
	}
	if records[0].State != model.StateOpen {
		t.Errorf("state = %q, want open", records[0].State)
	}
}

// TestDispatcherHostCap tests that per-host in-flight probes never
// exceed the host concurrency limit even with free global slots.
func TestDispatcherHostCap(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.HostConcurrency = 1
	opts.GlobalConcurrency = 64

	var inFlight, peak atomic.Int64
	executor := ExecutorFunc(func(context.Context, model.ProbeTask) (model.ProbeOutcome, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return model.SuccessOutcome(model.StateOpen), nil
	})

	sink := &fakeSink{}
	d, err := NewDispatcher(opts, executor, sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	tasks := taskSlice([]string{"10.0.0.1"}, []uint16{21, 22, 25, 80, 443})
	summary, err := d.Run(context.Background(), NewSliceSource(tasks))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if p := peak.Load(); p > 1 {
		t.Errorf("peak in-flight to one host = %d, want <= 1", p)
	}
	if summary.ProbeCount != len(tasks) {
		t.Errorf("ProbeCount = %d, want %d", summary.ProbeCount, len(tasks))
	}
}

// TestDispatcherExecutorFault tests that an unclassifiable executor
// error becomes a terminal failure without retries.
func TestDispatcherExecutorFault(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.MaxRetries = 3

	var attempts atomic.Int64
	executor := ExecutorFunc(func(context.Context, model.ProbeTask) (model.ProbeOutcome, error) {
		attempts.Add(1)
		return model.ProbeOutcome{}, errors.New("prober state corrupted")
	})

	sink := &fakeSink{}
	d, err := NewDispatcher(opts, executor, sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	summary, err := d.Run(context.Background(), NewSliceSource(taskSlice([]string{"10.0.0.1"}, []uint16{80})))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := attempts.Load(); got != 1 {
		t.Errorf("faulting executor invoked %d times, want 1 (faults are not retried)", got)
	}
	if summary.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", summary.ErrorCount)
	}
}

// TestDispatcherHardStop tests that context cancellation mid-run halts
// dispatch, returns the context error, and still produces a summary
// marked cancelled.
func TestDispatcherHardStop(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.GlobalConcurrency = 1

	started := make(chan struct{})
	var once sync.Once
	executor := ExecutorFunc(func(ctx context.Context, _ model.ProbeTask) (model.ProbeOutcome, error) {
		once.Do(func() { close(started) })
		select {
		case <-ctx.Done():
			return model.FailureOutcome(model.Timeout, "interrupted"), nil
		case <-time.After(5 * time.Second):
			return model.SuccessOutcome(model.StateOpen), nil
		}
	})

	sink := &fakeSink{}
	d, err := NewDispatcher(opts, executor, sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	tasks := taskSlice([]string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, []uint16{80})
	start := time.Now()
	summary, err := d.Run(ctx, NewSliceSource(tasks))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("hard stop took %v, want prompt shutdown", elapsed)
	}
	if summary == nil {
		t.Fatal("expected a summary even after a hard stop")
	}
	if !summary.Cancelled {
		t.Error("summary not marked cancelled")
	}
}

// TestDispatcherGracefulStop tests that Stop drains in-flight attempts
// and records their outcomes instead of abandoning them.
func TestDispatcherGracefulStop(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.GlobalConcurrency = 1

	started := make(chan struct{})
	var once sync.Once
	executor := ExecutorFunc(func(_ context.Context, _ model.ProbeTask) (model.ProbeOutcome, error) {
		once.Do(func() { close(started) })
		time.Sleep(20 * time.Millisecond)
		return model.SuccessOutcome(model.StateOpen), nil
	})

	sink := &fakeSink{}
	d, err := NewDispatcher(opts, executor, sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	go func() {
		<-started
		d.Stop()
	}()

	tasks := taskSlice([]string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}, []uint16{80})
	summary, err := d.Run(context.Background(), NewSliceSource(tasks))
	if err != nil {
		t.Fatalf("graceful stop returned error: %v", err)
	}

	// At least the in-flight probe completes and is recorded; the rest of
	// the stream is not admitted.
	if summary.ProbeCount < 1 {
		t.Errorf("ProbeCount = %d, want >= 1 (in-flight attempt drained)", summary.ProbeCount)
	}
	if summary.ProbeCount >= len(tasks) {
		t.Errorf("ProbeCount = %d, want < %d (admissions stopped)", summary.ProbeCount, len(tasks))
	}
	if got := len(sink.snapshot()); got != summary.ProbeCount {
		t.Errorf("records = %d, want %d", got, summary.ProbeCount)
	}
}

// TestDispatcherGracefulDeadline tests that a graceful deadline behaves
// like Stop rather than a cancellation.
func TestDispatcherGracefulDeadline(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.GlobalConcurrency = 1
	opts.Deadline = 30 * time.Millisecond
	opts.GracefulDeadline = true

	executor := ExecutorFunc(func(context.Context, model.ProbeTask) (model.ProbeOutcome, error) {
		time.Sleep(15 * time.Millisecond)
		return model.SuccessOutcome(model.StateOpen), nil
	})

	sink := &fakeSink{}
	d, err := NewDispatcher(opts, executor, sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	tasks := taskSlice([]string{"10.0.0.1"}, []uint16{1, 2, 3, 4, 5, 6, 7, 8, 9, 10})
	summary, err := d.Run(context.Background(), NewSliceSource(tasks))
	if err != nil {
		t.Fatalf("graceful deadline returned error: %v", err)
	}

	if summary.ProbeCount == 0 {
		t.Error("no probes completed before the deadline")
	}
	if summary.ProbeCount >= len(tasks) {
		t.Errorf("ProbeCount = %d, want < %d (deadline cut the stream short)", summary.ProbeCount, len(tasks))
	}
	if summary.Cancelled {
		t.Error("graceful deadline marked the run cancelled")
	}
}

// TestDispatcherSlotConservation tests that slots and live references
// are balanced over a mixed workload: after the run drains, the full
// concurrency budget is available again.
func TestDispatcherSlotConservation(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.GlobalConcurrency = 4
	opts.HostConcurrency = 2
	opts.MaxRetries = 1
	opts.RetryDelay = time.Millisecond

	var n atomic.Int64
	executor := ExecutorFunc(func(_ context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
		switch n.Add(1) % 4 {
		case 0:
			return model.FailureOutcome(model.TransientFailure, "reset"), nil
		case 1:
			return model.FailureOutcome(model.Timeout, "no reply"), nil
		case 2:
			return model.SuccessOutcome(model.StateClosed), nil
		default:
			return model.SuccessOutcome(model.StateOpen), nil
		}
	})

	sink := &fakeSink{}
	d, err := NewDispatcher(opts, executor, sink, discardLogger())
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}

	tasks := taskSlice([]string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}, []uint16{22, 80, 443, 8080})
	summary, err := d.Run(context.Background(), NewSliceSource(tasks))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if summary.ProbeCount != len(tasks) {
		t.Errorf("ProbeCount = %d, want %d (every task reaches a terminal record)", summary.ProbeCount, len(tasks))
	}
	if got := d.governor.HostGates(); got != 0 {
		t.Errorf("live host gates after drain = %d, want 0", got)
	}
	if live := d.live.Load(); live != 0 {
		t.Errorf("live counter after drain = %d, want 0", live)
	}
}
