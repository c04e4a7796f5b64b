package model

// OutcomeKind classifies the result of one executed probe attempt.
type OutcomeKind int

// Outcome classifications. Success and PermanentFailure are terminal;
// TransientFailure and Timeout may be retried by the engine.
const (
	// Success means the probe completed and produced a classified port
	// state. Note that "closed" is a Success: the target answered.
	Success OutcomeKind = iota

	// TransientFailure is a network-level error that may succeed on
	// retry (connection reset, resolver timeout, unreachable).
	TransientFailure

	// PermanentFailure is an unrecoverable condition: protocol-level
	// rejection, invalid address, or exhausted retries.
	PermanentFailure

	// Timeout means the attempt exceeded its per-attempt deadline.
	Timeout
)

// String returns the classification name used in logs and sinks.
func (k OutcomeKind) String() string {
	switch k {
	case Success:
		return "success"
	case TransientFailure:
		return "transient"
	case PermanentFailure:
		return "permanent"
	case Timeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Terminal reports whether this kind ends the task's retry loop.
func (k OutcomeKind) Terminal() bool {
	return k == Success || k == PermanentFailure
}

// PortState is the scan verdict for a port. It is derived by the probe
// executor from protocol semantics; the engine never guesses it.
type PortState string

// Port states, matching the values downstream storage accepts.
const (
	StateOpen         PortState = "open"
	StateClosed       PortState = "closed"
	StateFiltered     PortState = "filtered"
	StateOpenFiltered PortState = "open|filtered"
)

// Valid reports whether the state is one of the recognized values.
func (s PortState) Valid() bool {
	switch s {
	case StateOpen, StateClosed, StateFiltered, StateOpenFiltered:
		return true
	}
	return false
}

// ProbeOutcome is the result of one executed ProbeTask attempt.
//
// The payload fields (Protocol, Banner, Detail) are owned by the probe
// executor until the outcome is handed to the dispatcher; the engine
// carries them opaquely into the ResultRecord.
type ProbeOutcome struct {
	// Kind is the classification driving retry and aggregation.
	Kind OutcomeKind

	// State is the derived port state. Meaningful when Kind is Success;
	// probers may also set it for failures (e.g. open|filtered for an
	// unanswered UDP probe) so the terminal record carries a verdict.
	State PortState

	// Reason is a short human-readable cause ("refused", "reset",
	// "deadline exceeded"). Required for failures and timeouts.
	Reason string

	// Protocol is the application protocol the prober identified
	// ("http", "ssh", "dns"), if any.
	Protocol string

	// Banner is the captured service banner, if any.
	Banner string

	// Confidence is the prober's confidence in State, in [0,1].
	Confidence float64

	// Detail carries probe-kind specific extras (TLS certificate info,
	// redirect target, SNMP sysDescr). Opaque to the engine.
	Detail map[string]string
}

// SuccessOutcome builds a Success outcome with the given state and full
// confidence. Probers adjust fields on the returned value as needed.
func SuccessOutcome(state PortState) ProbeOutcome {
	return ProbeOutcome{Kind: Success, State: state, Confidence: 1.0}
}

// FailureOutcome builds a failure or timeout outcome with a reason.
func FailureOutcome(kind OutcomeKind, reason string) ProbeOutcome {
	return ProbeOutcome{Kind: kind, Reason: reason}
}
