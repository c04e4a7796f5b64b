package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nao1215/netscout/internal/model"
)

// Dispatcher orchestrates a run: it consumes a lazy task stream, gates
// every admission on the rate limiter and the concurrency governor,
// invokes the probe executor asynchronously, routes outcomes through the
// retry controller, and hands terminal outcomes to the aggregator.
//
// The dispatcher exclusively owns the live task queue. Retries are
// modelled as re-enqueued tasks flowing back through the same gate path
// as fresh tasks (never as recursion), so the rate and concurrency
// invariants hold uniformly across attempts.
type Dispatcher struct {
	opts     Options
	limiter  *RateLimiter
	governor *ConcurrencyGovernor
	retry    *RetryController
	executor ProbeExecutor
	sink     Sink
	logger   *slog.Logger

	// pending carries retried tasks back into the admission loop.
	// Capacity is a small buffer; senders are timer goroutines that
	// also watch for cancellation, so a full buffer cannot deadlock.
	pending chan model.ProbeTask

	// live counts tasks admitted from the source that have not reached
	// a terminal outcome (including tasks parked on a retry timer).
	live atomic.Int64

	// liveZero receives a wake-up each time live drops to zero, so the
	// drain loop can re-check for completion.
	liveZero chan struct{}

	// stop is closed by Stop for a graceful shutdown: no new admissions,
	// in-flight attempts drain, parked retries are abandoned.
	stop     chan struct{}
	stopOnce sync.Once

	// wg tracks attempt goroutines and retry timers.
	wg sync.WaitGroup
}

// NewDispatcher validates opts and assembles a dispatcher. A validation
// failure is a configuration error: it is returned before any probe
// executes and the run never starts.
func NewDispatcher(opts Options, executor ProbeExecutor, sink Sink, logger *slog.Logger) (*Dispatcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if executor == nil {
		return nil, ErrNilExecutor
	}
	if sink == nil {
		return nil, ErrNilSink
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		opts:     opts,
		limiter:  NewRateLimiter(opts.QPS, opts.effectiveBurst()),
		governor: NewConcurrencyGovernor(opts.GlobalConcurrency, opts.HostConcurrency),
		retry:    NewRetryController(opts.MaxRetries, opts.RetryDelay),
		executor: executor,
		sink:     sink,
		logger:   logger,
		pending:  make(chan model.ProbeTask, 64),
		liveZero: make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}, nil
}

// Stop requests a graceful stop: the dispatcher admits no new tasks,
// lets already-dispatched attempts finish, and abandons parked retries.
// Safe to call multiple times and from any goroutine. A hard stop is a
// cancellation of the context passed to Run.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() { close(d.stop) })
}

// Run executes the full task stream from source and returns the
// finalized run summary. The summary is always produced, even when every
// task fails or the run is cancelled. The returned error is non-nil only
// for a hard stop (context cancellation or deadline).
func (d *Dispatcher) Run(ctx context.Context, source TaskSource) (*model.RunSummary, error) {
	runCtx := ctx
	var cancel context.CancelFunc
	if d.opts.Deadline > 0 {
		if d.opts.GracefulDeadline {
			// Graceful deadline: a timer converts expiry into Stop()
			// so in-flight work drains instead of being abandoned.
			timer := time.AfterFunc(d.opts.Deadline, d.Stop)
			defer timer.Stop()
		} else {
			runCtx, cancel = context.WithTimeout(ctx, d.opts.Deadline)
			defer cancel()
		}
	}

	agg := NewResultAggregator(runCtx, d.sink, d.opts.SinkQueue, d.logger, time.Now)

	d.logger.Info("run started",
		"run_id", agg.RunID(),
		"qps", d.opts.QPS,
		"global_concurrency", d.opts.GlobalConcurrency,
		"host_concurrency", d.opts.HostConcurrency,
		"max_retries", d.opts.MaxRetries,
	)

	d.admitLoop(runCtx, source, agg)

	// All admissions are done; wait for attempt goroutines and retry
	// timers to settle before finalizing.
	d.wg.Wait()

	cancelled := runCtx.Err() != nil
	// Finalization must proceed even after a hard stop, so the flush
	// uses a fresh context.
	summary := agg.Finalize(context.WithoutCancel(runCtx), cancelled)

	d.logger.Info("run finished",
		"run_id", summary.RunID,
		"probes", summary.ProbeCount,
		"hosts", summary.HostCount,
		"errors", summary.ErrorCount,
		"achieved_qps", summary.AchievedQPS,
		"cancelled", summary.Cancelled,
	)

	if cancelled {
		return summary, runCtx.Err()
	}
	return summary, nil
}

// admitLoop is the dispatcher's main loop: it merges fresh tasks from
// the source with retried tasks from the pending queue, gates each on
// the limiter and governor, and launches the attempt. It returns when
// the stream is drained, the run is stopped gracefully, or the context
// is cancelled.
func (d *Dispatcher) admitLoop(ctx context.Context, source TaskSource, agg *ResultAggregator) {
	sourceDone := false

	for {
		// Cancellation and graceful stop are observed on every
		// iteration, before any blocking acquire.
		select {
		case <-ctx.Done():
			return
		case <-d.stop:
			return
		default:
		}

		var task model.ProbeTask

		if sourceDone {
			// Source exhausted: only retries remain. Drain until no
			// task is live.
			if d.live.Load() == 0 {
				return
			}
			select {
			case task = <-d.pending:
			case <-d.liveZero:
				continue
			case <-ctx.Done():
				return
			case <-d.stop:
				return
			}
		} else {
			// No ordering preference between retries and fresh tasks;
			// retries are simply taken when ready.
			select {
			case task = <-d.pending:
			default:
				fresh, ok := source.Next(ctx)
				if !ok {
					sourceDone = true
					continue
				}
				task = fresh
				d.live.Add(1)
			}
		}

		d.admit(ctx, task, agg)
	}
}

// admit gates one task on the rate limiter and governor, then launches
// its attempt. A failed acquire means the run was cancelled; the task is
// abandoned and its live reference dropped.
func (d *Dispatcher) admit(ctx context.Context, task model.ProbeTask, agg *ResultAggregator) {
	if err := d.limiter.Acquire(ctx); err != nil {
		d.finishLive()
		return
	}
	release, err := d.governor.Acquire(ctx, task.Target.Address)
	if err != nil {
		d.finishLive()
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer release()
		d.attempt(ctx, task, agg)
	}()
}

// attempt executes one probe attempt and routes the outcome. The
// governor slots are held by the caller for exactly the duration of this
// call; retry delays happen after release, on a timer, so a backing-off
// task never occupies a slot.
func (d *Dispatcher) attempt(ctx context.Context, task model.ProbeTask, agg *ResultAggregator) {
	agg.NoteAttempt(task)

	attemptCtx, cancel := context.WithTimeout(ctx, d.opts.AttemptTimeout)
	outcome, err := d.executor.Execute(attemptCtx, task)
	cancel()

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			// Executors should classify their own timeouts, but an
			// escaped deadline error is still unambiguous.
			outcome = model.FailureOutcome(model.Timeout, "attempt deadline exceeded")
		case ctx.Err() != nil:
			// Hard stop mid-attempt: abandon without a record.
			d.finishLive()
			return
		default:
			agg.RecordFault(task, err)
			d.finishLive()
			return
		}
	}

	decision := d.retry.Decide(task, outcome)
	if !decision.Retry {
		agg.Record(task, decision.Outcome)
		d.finishLive()
		return
	}

	d.logger.Debug("retrying probe",
		"task", task.String(),
		"reason", outcome.Reason,
		"delay", decision.Delay,
	)

	retried := task
	retried.Attempt++
	d.requeue(ctx, retried, decision.Delay)
}

// requeue re-enqueues a retried task after delay. The delay is honored
// by deferring the task's next rate-limiter draw on a timer rather than
// by parking a worker. A graceful stop or cancellation abandons the
// parked retry.
func (d *Dispatcher) requeue(ctx context.Context, task model.ProbeTask, delay time.Duration) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			d.finishLive()
			return
		case <-d.stop:
			d.finishLive()
			return
		}

		select {
		case d.pending <- task:
		case <-ctx.Done():
			d.finishLive()
		case <-d.stop:
			d.finishLive()
		}
	}()
}

// finishLive drops one live task reference and wakes the drain loop when
// the count reaches zero.
func (d *Dispatcher) finishLive() {
	if d.live.Add(-1) == 0 {
		select {
		case d.liveZero <- struct{}{}:
		default:
		}
	}
}
