package probe

import (
	"context"
	"net"
	"strconv"

	"github.com/nao1215/netscout/internal/model"
)

// Liveness answers a coarser question than Connect: is the host up at
// all? A TCP-level answer on the probe port, whether accept or refuse,
// proves a live stack. Only silence leaves the question open.
//
// Design decision: We probe with TCP rather than ICMP echo because:
//  1. ICMP requires raw sockets and privileges
//  2. ICMP is widely filtered while common TCP ports often answer
//  3. The same connect machinery serves both scan and discovery
type Liveness struct{}

// NewLiveness creates a liveness prober.
func NewLiveness() *Liveness {
	return &Liveness{}
}

// Execute implements the engine's ProbeExecutor. State open means the
// host answered (live); a timeout means no evidence either way and is
// left to the retry budget.
func (l *Liveness) Execute(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	addr := net.JoinHostPort(task.Target.Address, strconv.Itoa(int(task.Port)))
	conn, err := dialer().DialContext(ctx, "tcp", addr)
	if err == nil {
		_ = conn.Close()
		out := model.SuccessOutcome(model.StateOpen)
		out.Reason = "host live (accepted)"
		out.Protocol = "discovery"
		return out, nil
	}

	out := classifyDialError(err)
	out.Protocol = "discovery"
	if out.Kind == model.Success && out.State == model.StateClosed {
		// Refusal is still proof of life for discovery purposes.
		out.Reason = "host live (refused)"
	}
	return out, nil
}
