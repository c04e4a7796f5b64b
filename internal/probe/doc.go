// Package probe implements the concrete probe executors: TCP connect
// scanning, host liveness checks, banner grabbing (HTTP, HTTPS, SSH),
// and UDP service probes (DNS, NTP, SNMP).
//
// Every executor implements the engine's ProbeExecutor interface and
// owns its own transient-versus-permanent error mapping. Classification
// is data, not error: a refused connection is a successful probe whose
// verdict is "closed". A non-nil error escapes an executor only for
// internal faults the engine cannot act on.
package probe
