package probe

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/nao1215/netscout/internal/model"
)

// maxBannerBytes bounds how much of a response a banner probe reads.
// Enough for any status line plus headers, small enough that a
// malicious endpoint cannot balloon memory.
const maxBannerBytes = 4096

// Banner grabs service banners over an established TCP connection:
// HTTP status line and Server header, HTTPS with certificate common
// names and page title, SSH version line.
//
// Design decision: We speak raw wire protocol for HTTP and SSH rather
// than using net/http or an SSH library because:
//  1. A banner grab wants the exact first bytes, not a parsed response
//  2. net/http retries, normalizes, and follows redirects on its own
//  3. For SSH we only read the version line, never authenticate
type Banner struct {
	// userAgent is sent in HTTP requests.
	userAgent string

	// tlsConfig is used for HTTPS probes.
	tlsConfig *tls.Config
}

// BannerOption configures a Banner prober.
type BannerOption func(*Banner)

// WithUserAgent sets the HTTP User-Agent header.
func WithUserAgent(ua string) BannerOption {
	return func(b *Banner) {
		b.userAgent = ua
	}
}

// NewBanner creates a banner prober.
func NewBanner(opts ...BannerOption) *Banner {
	b := &Banner{
		userAgent: "netscout/1.0",
		// Certificate verification is intentionally disabled: the probe
		// reports what a certificate claims, it does not make a trust
		// decision. Verifying would hide every self-signed service.
		tlsConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // banner collection, not a trust decision
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Execute implements the engine's ProbeExecutor. The service to speak
// is chosen by the task's protocol hint ("http", "https", "ssh"), with
// a port-based fallback when the hint is empty.
func (b *Banner) Execute(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	service := task.ProtocolHint
	if service == "" || service == "banner" {
		service = serviceForPort(task.Port)
	}

	switch service {
	case "https":
		return b.grabHTTPS(ctx, task)
	case "ssh":
		return b.grabSSH(ctx, task)
	default:
		return b.grabHTTP(ctx, task)
	}
}

// serviceForPort picks a banner protocol for well-known ports.
func serviceForPort(port uint16) string {
	switch port {
	case 22:
		return "ssh"
	case 443, 8443:
		return "https"
	default:
		return "http"
	}
}

// grabHTTP sends a HEAD request over plain TCP and summarizes the
// status line, Server header, and any redirect target.
func (b *Banner) grabHTTP(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	conn, outcome, ok := b.dial(ctx, task, "http")
	if !ok {
		return outcome, nil
	}
	defer func() { _ = conn.Close() }()

	raw, err := b.headRequest(ctx, conn, task.Target.Address)
	if err != nil {
		out := model.SuccessOutcome(model.StateOpen)
		out.Protocol = "http"
		out.Reason = "connected, no http banner"
		out.Confidence = 0.5
		return out, nil
	}

	return b.summarizeHTTP(raw, "http", nil), nil
}

// grabHTTPS performs a TLS handshake, extracts the leaf certificate's
// subject and issuer common names, then issues a bounded GET so the
// HTML title can be reported alongside the headers.
func (b *Banner) grabHTTPS(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	conn, outcome, ok := b.dial(ctx, task, "https")
	if !ok {
		return outcome, nil
	}
	defer func() { _ = conn.Close() }()

	cfg := b.tlsConfig.Clone()
	if host := task.Target.Hostname; host != "" {
		cfg.ServerName = host
	} else {
		cfg.ServerName = task.Target.Address
	}

	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		// The TCP connection was accepted, so the port is open even
		// though it does not speak TLS we can complete.
		out := model.SuccessOutcome(model.StateOpen)
		out.Protocol = "https"
		out.Reason = "tls handshake failed"
		out.Confidence = 0.7
		return out, nil
	}

	detail := map[string]string{}
	state := tlsConn.ConnectionState()
	if len(state.PeerCertificates) > 0 {
		leaf := state.PeerCertificates[0]
		detail["cert_subject_cn"] = leaf.Subject.CommonName
		detail["cert_issuer_cn"] = leaf.Issuer.CommonName
		if len(leaf.DNSNames) > 0 {
			detail["cert_dns_names"] = strings.Join(leaf.DNSNames, ",")
		}
	}
	if proto := state.NegotiatedProtocol; proto != "" {
		detail["alpn"] = proto
	}

	raw, err := b.getRequest(ctx, tlsConn, cfg.ServerName)
	if err != nil {
		out := model.SuccessOutcome(model.StateOpen)
		out.Protocol = "https"
		out.Reason = "tls established, no http response"
		out.Confidence = 0.8
		out.Detail = detail
		return out, nil
	}

	outcome = b.summarizeHTTP(raw, "https", detail)
	if title := htmlTitle(raw); title != "" {
		outcome.Detail["title"] = title
	}
	return outcome, nil
}

// grabSSH reads the version line an SSH server sends on connect.
func (b *Banner) grabSSH(ctx context.Context, task model.ProbeTask) (model.ProbeOutcome, error) {
	conn, outcome, ok := b.dial(ctx, task, "ssh")
	if !ok {
		return outcome, nil
	}
	defer func() { _ = conn.Close() }()

	applyConnDeadline(ctx, conn)

	line, err := bufio.NewReader(io.LimitReader(conn, maxBannerBytes)).ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		out := model.SuccessOutcome(model.StateOpen)
		out.Protocol = "ssh"
		out.Reason = "connected, no ssh banner"
		out.Confidence = 0.5
		return out, nil
	}

	out := model.SuccessOutcome(model.StateOpen)
	out.Protocol = "ssh"
	out.Banner = line
	out.Reason = "ssh banner"
	if !strings.HasPrefix(line, "SSH-") {
		out.Confidence = 0.6
		out.Reason = "non-ssh banner on ssh port"
	}
	return out, nil
}

// dial establishes the TCP connection all banner grabs start from.
// ok false means the outcome is already terminal (refused, timeout, ...).
func (b *Banner) dial(ctx context.Context, task model.ProbeTask, protocol string) (net.Conn, model.ProbeOutcome, bool) {
	addr := net.JoinHostPort(task.Target.Address, strconv.Itoa(int(task.Port)))
	conn, err := dialer().DialContext(ctx, "tcp", addr)
	if err != nil {
		out := classifyDialError(err)
		out.Protocol = protocol
		return nil, out, false
	}
	return conn, model.ProbeOutcome{}, true
}

// headRequest writes a HEAD request and reads up to maxBannerBytes of
// the response.
func (b *Banner) headRequest(ctx context.Context, conn net.Conn, host string) (string, error) {
	return b.rawRequest(ctx, conn, "HEAD", host)
}

// getRequest writes a GET request so a body (and its title) comes back.
func (b *Banner) getRequest(ctx context.Context, conn net.Conn, host string) (string, error) {
	return b.rawRequest(ctx, conn, "GET", host)
}

func (b *Banner) rawRequest(ctx context.Context, conn net.Conn, method, host string) (string, error) {
	applyConnDeadline(ctx, conn)

	req := fmt.Sprintf("%s / HTTP/1.0\r\nHost: %s\r\nUser-Agent: %s\r\nConnection: close\r\n\r\n",
		method, host, b.userAgent)
	if _, err := conn.Write([]byte(req)); err != nil {
		return "", err
	}

	buf, err := io.ReadAll(io.LimitReader(conn, maxBannerBytes))
	if len(buf) == 0 {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return "", err
	}
	return string(buf), nil
}

// summarizeHTTP extracts the status line, Server header, and redirect
// target from a raw response.
func (b *Banner) summarizeHTTP(raw, protocol string, detail map[string]string) model.ProbeOutcome {
	if detail == nil {
		detail = map[string]string{}
	}

	var status, server, location string
	for i, line := range strings.Split(raw, "\r\n") {
		if i == 0 {
			status = strings.TrimSpace(line)
		}
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "server:") {
			server = strings.TrimSpace(line[len("server:"):])
		}
		if strings.HasPrefix(lower, "location:") {
			location = strings.TrimSpace(line[len("location:"):])
		}
		if i > 20 || line == "" {
			break
		}
	}

	out := model.SuccessOutcome(model.StateOpen)
	out.Protocol = protocol
	out.Banner = status
	out.Reason = "http banner"
	out.Detail = detail
	if server != "" {
		out.Detail["server"] = server
		out.Banner = status + " | " + server
	}
	if location != "" {
		// One redirect hop is noted, never followed: following would
		// probe a host the operator did not name.
		out.Detail["redirect"] = location
	}
	return out
}

// htmlTitle extracts the first <title> text from a raw HTTP response.
func htmlTitle(raw string) string {
	_, body, ok := strings.Cut(raw, "\r\n\r\n")
	if !ok {
		return ""
	}

	tokenizer := html.NewTokenizer(strings.NewReader(body))
	inTitle := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			inTitle = string(name) == "title"
		case html.TextToken:
			if inTitle {
				return strings.TrimSpace(string(tokenizer.Text()))
			}
		case html.EndTagToken:
			inTitle = false
		}
	}
}

// applyConnDeadline mirrors the context deadline onto the connection so
// reads and writes cannot outlive the attempt.
func applyConnDeadline(ctx context.Context, conn net.Conn) {
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	}
}
