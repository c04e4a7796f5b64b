package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nao1215/netscout/internal/model"
)

// ResultAggregator collects terminal probe outcomes into the run summary
// and forwards one result record per (target, port, transport) to the
// sink.
//
// Ownership: the aggregator is the only writer of the RunSummary; all
// mutation happens under its mutex. Records flow to the sink through a
// bounded queue serviced by a single forwarder goroutine, so a slow sink
// backpressures Record (and, through the dispatcher's governor, probe
// dispatch) instead of buffering without bound.
type ResultAggregator struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	summary *model.RunSummary
	hosts   map[string]struct{}
	probes  map[string]*probeTrack

	queue     chan model.ResultRecord
	forwarded sync.WaitGroup

	finalizeOnce sync.Once
	frozen       *model.RunSummary
}

// probeTrack accumulates per-probe attempt bookkeeping between the first
// attempt and the terminal record.
type probeTrack struct {
	firstSeenMS int64
	attempts    int
	recorded    bool
}

// NewResultAggregator creates an aggregator writing to sink through a
// bounded queue of queueSize records, and starts the forwarder.
// ctx bounds sink writes; the forwarder drains the queue even after
// cancellation so Record never deadlocks.
func NewResultAggregator(ctx context.Context, sink Sink, queueSize int, logger *slog.Logger, now func() time.Time) *ResultAggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	if queueSize < 1 {
		queueSize = 1
	}

	a := &ResultAggregator{
		sink:    sink,
		logger:  logger,
		now:     now,
		summary: model.NewRunSummary(now()),
		hosts:   make(map[string]struct{}),
		probes:  make(map[string]*probeTrack),
		queue:   make(chan model.ResultRecord, queueSize),
	}

	a.forwarded.Add(1)
	go a.forward(ctx)

	return a
}

// forward drains the record queue into the sink until the queue closes.
// Sink write failures are logged and counted; they never abort the run.
func (a *ResultAggregator) forward(ctx context.Context) {
	defer a.forwarded.Done()

	for record := range a.queue {
		if err := a.sink.Write(ctx, record); err != nil {
			a.logger.Error("sink write failed",
				"address", record.Address,
				"port", record.Port,
				"error", err,
			)
			a.mu.Lock()
			a.summary.ErrorCount++
			a.mu.Unlock()
		}
	}
}

// RunID returns the run identifier assigned at construction.
func (a *ResultAggregator) RunID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.summary.RunID
}

// NoteAttempt records that one attempt of task was executed. It stamps
// the probe's first-seen time on the first attempt and feeds the
// attempt counter behind the achieved-QPS figure.
func (a *ResultAggregator) NoteAttempt(task model.ProbeTask) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.summary.AttemptCount++

	key := task.Key()
	track, ok := a.probes[key]
	if !ok {
		track = &probeTrack{firstSeenMS: model.EpochMillis(a.now())}
		a.probes[key] = track
	}
	track.attempts++
}

// Record accepts the terminal outcome for task, updates the run summary,
// and enqueues the result record for the sink. It blocks when the sink
// queue is full. A second terminal outcome for the same probe key is a
// dispatcher bug; it is logged and dropped to preserve the at-most-one
// record guarantee.
func (a *ResultAggregator) Record(task model.ProbeTask, outcome model.ProbeOutcome) {
	a.mu.Lock()

	key := task.Key()
	track, ok := a.probes[key]
	if !ok {
		track = &probeTrack{firstSeenMS: model.EpochMillis(a.now())}
		a.probes[key] = track
	}
	if track.recorded {
		a.mu.Unlock()
		a.logger.Error("duplicate terminal outcome dropped", "task", task.String())
		return
	}
	track.recorded = true

	failed := outcome.Kind == model.PermanentFailure
	if failed {
		a.summary.ErrorCount++
	}
	a.summary.ProbeCount++
	if _, seen := a.hosts[task.Target.Address]; !seen {
		a.hosts[task.Target.Address] = struct{}{}
		a.summary.HostCount++
	}

	record := model.ResultRecord{
		RunID:       a.summary.RunID,
		Address:     task.Target.Address,
		Hostname:    task.Target.Hostname,
		Port:        task.Port,
		Transport:   task.Transport,
		State:       outcome.State,
		Reason:      outcome.Reason,
		Protocol:    outcome.Protocol,
		Banner:      outcome.Banner,
		Confidence:  outcome.Confidence,
		Detail:      outcome.Detail,
		Attempts:    track.attempts,
		FirstSeenMS: track.firstSeenMS,
		LastSeenMS:  model.EpochMillis(a.now()),
		Failed:      failed,
	}
	a.mu.Unlock()

	// Outside the lock: this send is the backpressure point.
	a.queue <- record
}

// RecordFault accepts an unclassifiable executor fault for task. The
// fault is surfaced to the run's error count and recorded as a permanent
// failure so downstream storage sees a terminal verdict for the probe.
func (a *ResultAggregator) RecordFault(task model.ProbeTask, err error) {
	a.logger.Error("probe executor fault",
		"task", task.String(),
		"error", err,
	)
	a.Record(task, model.ProbeOutcome{
		Kind:   model.PermanentFailure,
		State:  model.StateFiltered,
		Reason: "executor fault: " + err.Error(),
	})
}

// Finalize closes the run: it stops the forwarder after the queue
// drains, flushes the sink, freezes the summary, and computes the
// achieved QPS. Calling Finalize again returns the same frozen summary
// without re-flushing the sink or touching any counter.
func (a *ResultAggregator) Finalize(ctx context.Context, cancelled bool) *model.RunSummary {
	a.finalizeOnce.Do(func() {
		close(a.queue)
		a.forwarded.Wait()

		if err := a.sink.Flush(ctx); err != nil {
			a.logger.Error("sink flush failed", "error", err)
		}

		a.mu.Lock()
		defer a.mu.Unlock()

		a.summary.FinishedAt = a.now()
		a.summary.Cancelled = cancelled
		if d := a.summary.Duration(a.summary.FinishedAt); d > 0 {
			a.summary.AchievedQPS = float64(a.summary.AttemptCount) / d.Seconds()
		}
		a.frozen = a.summary
	})
	return a.frozen
}
