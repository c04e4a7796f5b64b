package probe

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/nao1215/netscout/internal/model"
)

// classifyDialError maps a dial error onto the engine's outcome
// taxonomy. The mapping follows connect-scan semantics:
//   - refused: the host answered with RST, the port is closed. This is
//     a Success, not a failure, and is never retried.
//   - deadline or i/o timeout: Timeout, retryable. Silence usually
//     means a filtering device dropped the SYN.
//   - reset, unreachable: TransientFailure, retryable. Often load or
//     transient routing rather than a stable verdict.
//   - address or resolution errors: PermanentFailure. Retrying an
//     unparseable address cannot help.
func classifyDialError(err error) model.ProbeOutcome {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		out := model.SuccessOutcome(model.StateClosed)
		out.Reason = "connection refused"
		return out

	case errors.Is(err, context.DeadlineExceeded):
		return model.FailureOutcome(model.Timeout, "deadline exceeded")

	case errors.Is(err, context.Canceled):
		// Run shutdown, not a network verdict. The dispatcher abandons
		// the attempt when it sees its own context cancelled.
		return model.FailureOutcome(model.TransientFailure, "cancelled")

	case errors.Is(err, syscall.ECONNRESET):
		return model.FailureOutcome(model.TransientFailure, "connection reset")

	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		return model.FailureOutcome(model.TransientFailure, "unreachable")
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return model.FailureOutcome(model.PermanentFailure, "host not found")
		}
		if dnsErr.IsTimeout {
			return model.FailureOutcome(model.Timeout, "resolver timeout")
		}
		return model.FailureOutcome(model.TransientFailure, "resolver error")
	}

	var addrErr *net.AddrError
	if errors.As(err, &addrErr) {
		return model.FailureOutcome(model.PermanentFailure, "invalid address: "+addrErr.Err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.FailureOutcome(model.Timeout, "i/o timeout")
	}

	// Unrecognized network error. Treat as transient so a flaky path
	// gets its retry budget rather than a spurious permanent verdict.
	return model.FailureOutcome(model.TransientFailure, err.Error())
}

// dialer returns a net.Dialer whose lifetime is bounded by ctx. The
// per-attempt deadline arrives on the context from the dispatcher.
func dialer() *net.Dialer {
	return &net.Dialer{}
}
