// Package engine implements the dispatch and rate-control core of the
// scanner: it decides when and how many probes run concurrently for an
// arbitrarily large stream of probe tasks, retries transient failures,
// and aggregates classified outcomes into streamed result records.
//
// The flow is:
//
//	TaskSource -> Dispatcher -> {RateLimiter, ConcurrencyGovernor} gate
//	  -> ProbeExecutor -> outcome -> RetryController (re-enqueue)
//	  or -> ResultAggregator -> Sink
//
// The engine is generic over the ProbeExecutor and Sink interfaces; it
// never inspects protocol payloads and never branches on probe kind.
package engine
