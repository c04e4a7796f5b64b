package model

import "fmt"

// Transport is the L4 transport a probe uses.
type Transport string

// Supported transports. The values match the strings stored by downstream
// sinks, so they must not change.
const (
	TransportTCP Transport = "tcp"
	TransportUDP Transport = "udp"
)

// Valid reports whether the transport is one of the supported values.
func (tr Transport) Valid() bool {
	return tr == TransportTCP || tr == TransportUDP
}

// ProbeTask is one unit of dispatchable work: a single (target, port,
// transport, protocol hint) tuple plus its attempt number.
//
// Attempt starts at 0 and is incremented by the dispatcher each time the
// retry controller re-enqueues the task. Two tasks with the same key but
// different attempt numbers describe the same logical probe.
type ProbeTask struct {
	// Target is the destination host.
	Target Target

	// Port is the destination port (1-65535).
	Port uint16

	// Transport selects TCP or UDP.
	Transport Transport

	// ProtocolHint names the probe kind that should execute this task
	// (e.g. "connect", "discovery", "banner", "dns"). The dispatcher
	// treats it opaquely; the executor mux routes on it.
	ProtocolHint string

	// Attempt is the zero-based attempt number.
	Attempt int
}

// Key identifies the logical probe independent of the attempt number.
// The aggregator uses it to enforce at-most-one record per
// (target, port, transport).
func (t ProbeTask) Key() string {
	return fmt.Sprintf("%s/%s/%d", t.Target.Address, t.Transport, t.Port)
}

// String returns a compact description for logging.
func (t ProbeTask) String() string {
	return fmt.Sprintf("%s:%d/%s attempt=%d", t.Target.Address, t.Port, t.Transport, t.Attempt)
}
