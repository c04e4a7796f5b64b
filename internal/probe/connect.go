package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/nao1215/netscout/internal/model"
)

// Connect performs TCP connect scanning: a full three-way handshake per
// port, no raw sockets, no privileges required.
//
// Design decision: We use connect() rather than half-open SYN scanning
// because:
//  1. It needs no elevated privileges or packet-crafting dependencies
//  2. The kernel answers the state question authoritatively
//  3. The accept/refuse/silence trichotomy maps directly onto
//     open/closed/filtered
type Connect struct{}

// NewConnect creates a TCP connect prober.
func NewConnect() *Connect {
	return &Connect{}
}

// Execute implements the engine's ProbeExecutor.
func (c *Connect) Execute(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	if task.Transport != model.TransportTCP {
		return model.ProbeOutcome{}, fmt.Errorf("probe: connect prober received %s task", task.Transport)
	}

	addr := net.JoinHostPort(task.Target.Address, strconv.Itoa(int(task.Port)))
	conn, err := dialer().DialContext(ctx, "tcp", addr)
	if err != nil {
		out := classifyDialError(err)
		out.Protocol = task.ProtocolHint
		return out, nil
	}
	_ = conn.Close()

	out := model.SuccessOutcome(model.StateOpen)
	out.Reason = "connected"
	out.Protocol = task.ProtocolHint
	return out, nil
}
