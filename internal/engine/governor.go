package engine

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ConcurrencyGovernor enforces two independent in-flight caps: a global
// cap on total concurrent probes, and an optional per-host cap on
// concurrent probes to the same target.
//
// Acquire blocks until both a global slot and a host slot are held, and
// returns a release closure that frees both. The closure is safe to call
// exactly once from any goroutine; the dispatcher defers it so slots are
// released on success, failure, timeout, and cancellation alike.
//
// Design decision: Per-host gates are weighted semaphores created lazily
// on first acquisition and deleted once no holder or waiter remains.
// A scan sweeping a /16 touches tens of thousands of short-lived hosts;
// keeping a semaphore per host for the whole run would grow without
// bound, so each gate is refcounted by holders plus waiters.
type ConcurrencyGovernor struct {
	global  *semaphore.Weighted
	hostCap int64

	mu    sync.Mutex
	hosts map[string]*hostGate
}

// hostGate is the per-host semaphore plus its refcount.
// refs counts current holders and waiters; the gate is removed from the
// map when refs drops to zero.
type hostGate struct {
	sem  *semaphore.Weighted
	refs int
}

// NewConcurrencyGovernor creates a governor with the given global cap
// and per-host cap. hostCap of zero disables the per-host gate.
func NewConcurrencyGovernor(globalCap, hostCap int) *ConcurrencyGovernor {
	if globalCap < 1 {
		globalCap = 1
	}
	return &ConcurrencyGovernor{
		global:  semaphore.NewWeighted(int64(globalCap)),
		hostCap: int64(hostCap),
		hosts:   make(map[string]*hostGate),
	}
}

// Acquire blocks until a global slot and a host slot for host are both
// available, then holds them. The returned release function frees both
// slots; it must be called exactly once. On error (cancelled context)
// nothing is held and release is nil.
func (g *ConcurrencyGovernor) Acquire(ctx context.Context, host string) (release func(), err error) {
	if err := g.global.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	if g.hostCap <= 0 {
		var once sync.Once
		return func() {
			once.Do(func() { g.global.Release(1) })
		}, nil
	}

	gate := g.retain(host)
	if err := gate.sem.Acquire(ctx, 1); err != nil {
		g.drop(host)
		g.global.Release(1)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			gate.sem.Release(1)
			g.drop(host)
			g.global.Release(1)
		})
	}, nil
}

// retain returns the gate for host, creating it on first use, and
// counts the caller as a holder-or-waiter.
func (g *ConcurrencyGovernor) retain(host string) *hostGate {
	g.mu.Lock()
	defer g.mu.Unlock()

	gate, ok := g.hosts[host]
	if !ok {
		gate = &hostGate{sem: semaphore.NewWeighted(g.hostCap)}
		g.hosts[host] = gate
	}
	gate.refs++
	return gate
}

// drop removes one holder-or-waiter reference for host and deletes the
// gate once nobody references it.
func (g *ConcurrencyGovernor) drop(host string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gate, ok := g.hosts[host]
	if !ok {
		return
	}
	gate.refs--
	if gate.refs <= 0 {
		delete(g.hosts, host)
	}
}

// HostGates returns the number of live per-host gates. Used by tests to
// verify that idle host entries are garbage collected.
func (g *ConcurrencyGovernor) HostGates() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.hosts)
}
