package probe

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/nao1215/netscout/internal/model"
)

// UDP probes connectionless services by speaking just enough of each
// protocol to provoke a reply: a DNS A query, an NTP client packet, and
// an SNMP v2c sysDescr.0 GET.
//
// UDP verdicts are inherently weaker than TCP: an ICMP port-unreachable
// proves closed, a valid reply proves open, and silence proves nothing.
// Silence is reported as a Timeout so the retry budget applies; a probe
// that stays silent through every retry ends up open|filtered.
type UDP struct {
	// community is the SNMP community string.
	community string
}

// UDPOption configures a UDP prober.
type UDPOption func(*UDP)

// WithSNMPCommunity sets the SNMP community string. Defaults to
// "public", the conventional read-only community.
func WithSNMPCommunity(community string) UDPOption {
	return func(u *UDP) {
		u.community = community
	}
}

// NewUDP creates a UDP prober.
func NewUDP(opts ...UDPOption) *UDP {
	u := &UDP{community: "public"}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Execute implements the engine's ProbeExecutor. The protocol spoken is
// chosen by hint, falling back to the well-known port.
func (u *UDP) Execute(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	if task.Transport != model.TransportUDP {
		return model.ProbeOutcome{}, fmt.Errorf("probe: udp prober received %s task", task.Transport)
	}

	service := task.ProtocolHint
	if service == "" || service == "udp" {
		switch task.Port {
		case 53:
			service = "dns"
		case 123:
			service = "ntp"
		case 161:
			service = "snmp"
		default:
			service = "dns"
		}
	}

	switch service {
	case "ntp":
		return u.probeNTP(ctx, task)
	case "snmp":
		return u.probeSNMP(ctx, task)
	default:
		return u.probeDNS(ctx, task)
	}
}

// probeDNS sends an A query for example.com and checks the QR bit in
// the reply flags.
func (u *UDP) probeDNS(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	reply, outcome, ok := u.exchange(ctx, task, "dns", dnsQuery(), 512)
	if !ok {
		return outcome, nil
	}

	// Byte 2 carries the flags; bit 7 is QR (response).
	if len(reply) >= 3 && reply[2]&0x80 != 0 {
		out := model.SuccessOutcome(model.StateOpen)
		out.Protocol = "dns"
		out.Reason = "dns response"
		out.Banner = fmt.Sprintf("dns: %d bytes", len(reply))
		return out, nil
	}

	out := model.SuccessOutcome(model.StateOpenFiltered)
	out.Protocol = "dns"
	out.Reason = "reply without QR bit"
	out.Confidence = 0.5
	return out, nil
}

// probeNTP sends a 48-byte client-mode packet and expects a 48-byte
// server reply.
func (u *UDP) probeNTP(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	pkt := make([]byte, 48)
	pkt[0] = 0x23 // LI=0, VN=4, Mode=3 (client)

	reply, outcome, ok := u.exchange(ctx, task, "ntp", pkt, 96)
	if !ok {
		return outcome, nil
	}

	if len(reply) >= 48 {
		out := model.SuccessOutcome(model.StateOpen)
		out.Protocol = "ntp"
		out.Reason = "ntp reply"
		out.Banner = fmt.Sprintf("ntp: version %d, mode %d", (reply[0]>>3)&0x07, reply[0]&0x07)
		return out, nil
	}

	out := model.SuccessOutcome(model.StateOpenFiltered)
	out.Protocol = "ntp"
	out.Reason = "short ntp reply"
	out.Confidence = 0.5
	return out, nil
}

// probeSNMP queries sysDescr.0 over SNMP v2c.
func (u *UDP) probeSNMP(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	timeout := 2 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = max(time.Until(deadline), 10*time.Millisecond)
	}

	client := &gosnmp.GoSNMP{
		Context:   ctx,
		Target:    task.Target.Address,
		Port:      task.Port,
		Community: u.community,
		Version:   gosnmp.Version2c,
		Timeout:   timeout,
		Retries:   0, // retry policy belongs to the engine
	}

	if err := client.Connect(); err != nil {
		out := classifyDialError(err)
		out.Protocol = "snmp"
		return udpSoften(out), nil
	}
	defer func() { _ = client.Conn.Close() }()

	const sysDescr = "1.3.6.1.2.1.1.1.0"
	result, err := client.Get([]string{sysDescr})
	if err != nil {
		out := classifyDialError(err)
		out.Protocol = "snmp"
		return udpSoften(out), nil
	}

	out := model.SuccessOutcome(model.StateOpen)
	out.Protocol = "snmp"
	out.Reason = "snmp response"
	for _, v := range result.Variables {
		if v.Type == gosnmp.OctetString {
			if descr, ok := v.Value.([]byte); ok {
				out.Banner = string(descr)
				out.Detail = map[string]string{"sysdescr": string(descr)}
			}
			break
		}
	}
	return out, nil
}

// exchange sends a datagram and reads one reply. ok false means the
// outcome is already terminal or retryable as returned.
func (u *UDP) exchange(ctx context.Context, task model.ProbeTask, protocol string, payload []byte, replySize int) ([]byte, model.ProbeOutcome, bool) {
	addr := net.JoinHostPort(task.Target.Address, strconv.Itoa(int(task.Port)))
	conn, err := dialer().DialContext(ctx, "udp", addr)
	if err != nil {
		out := classifyDialError(err)
		out.Protocol = protocol
		return nil, udpSoften(out), false
	}
	defer func() { _ = conn.Close() }()

	applyConnDeadline(ctx, conn)

	if _, err := conn.Write(payload); err != nil {
		out := classifyDialError(err)
		out.Protocol = protocol
		return nil, udpSoften(out), false
	}

	reply := make([]byte, replySize)
	n, err := conn.Read(reply)
	if err != nil {
		// Silence. An ICMP port-unreachable surfaces as ECONNREFUSED on
		// a connected UDP socket and proves closed via classify; a plain
		// timeout proves nothing and goes to the retry budget.
		out := classifyDialError(err)
		out.Protocol = protocol
		return nil, udpSoften(out), false
	}
	return reply[:n], model.ProbeOutcome{}, true
}

// udpSoften adjusts TCP-flavored classifications for UDP semantics:
// a timeout on UDP carries the open|filtered verdict so retry
// exhaustion reports it instead of plain filtered.
func udpSoften(out model.ProbeOutcome) model.ProbeOutcome {
	if out.Kind == model.Timeout && out.State == "" {
		out.State = model.StateOpenFiltered
	}
	return out
}

// dnsQuery builds a wire-format A query for example.com.
func dnsQuery() []byte {
	var q []byte
	q = binary.BigEndian.AppendUint16(q, 0x1234) // ID
	q = binary.BigEndian.AppendUint16(q, 0x0100) // RD
	q = binary.BigEndian.AppendUint16(q, 1)      // QDCOUNT
	q = binary.BigEndian.AppendUint16(q, 0)      // ANCOUNT
	q = binary.BigEndian.AppendUint16(q, 0)      // NSCOUNT
	q = binary.BigEndian.AppendUint16(q, 0)      // ARCOUNT
	for _, label := range []string{"example", "com"} {
		q = append(q, byte(len(label)))
		q = append(q, label...)
	}
	q = append(q, 0)                        // end of name
	q = binary.BigEndian.AppendUint16(q, 1) // QTYPE A
	q = binary.BigEndian.AppendUint16(q, 1) // QCLASS IN
	return q
}
