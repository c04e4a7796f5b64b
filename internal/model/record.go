package model

import "time"

// ResultRecord is the unit streamed to a Sink: the terminal verdict for
// one (target, port, transport) in one run. Retries update the record's
// LastSeenMS; they never produce a second record.
//
// Field names and semantics follow the shape downstream storage expects
// (state string set, confidence in [0,1], first/last seen epoch
// milliseconds), so sinks can persist records without translation.
type ResultRecord struct {
	// RunID is the run this record belongs to.
	RunID string `json:"run_id"`

	// Address is the probed host.
	Address string `json:"address"`

	// Hostname is the original hostname, when known.
	Hostname string `json:"hostname,omitempty"`

	// Port is the probed port.
	Port uint16 `json:"port"`

	// Transport is "tcp" or "udp".
	Transport Transport `json:"transport"`

	// State is the terminal port state.
	State PortState `json:"state"`

	// Reason is the terminal cause for non-open states, if any.
	Reason string `json:"reason,omitempty"`

	// Protocol is the identified application protocol, if any.
	Protocol string `json:"protocol,omitempty"`

	// Banner is the captured service banner, if any.
	Banner string `json:"banner,omitempty"`

	// Confidence is the prober's confidence in State, in [0,1].
	Confidence float64 `json:"confidence"`

	// Detail carries probe-specific extras, opaque to the engine.
	Detail map[string]string `json:"detail,omitempty"`

	// Attempts is the total number of attempts executed for this probe.
	Attempts int `json:"attempts"`

	// FirstSeenMS is the epoch-millisecond timestamp of the first attempt.
	FirstSeenMS int64 `json:"first_seen_ms"`

	// LastSeenMS is the epoch-millisecond timestamp of the terminal attempt.
	LastSeenMS int64 `json:"last_seen_ms"`

	// Failed reports whether the terminal outcome was a permanent
	// failure (including exhausted retries).
	Failed bool `json:"failed,omitempty"`
}

// EpochMillis converts a time to the epoch-millisecond representation
// used by record timestamps.
func EpochMillis(t time.Time) int64 {
	return t.UnixMilli()
}
