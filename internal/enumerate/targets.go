package enumerate

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/netip"
	"os"
	"strings"

	"github.com/nao1215/netscout/internal/model"
)

// ExpandTarget turns a single user-supplied target into concrete probe
// targets. A CIDR prefix expands to its host addresses, a literal IP
// passes through, and a hostname is resolved to its first address with
// the hostname preserved for reporting.
func ExpandTarget(input string) ([]model.Target, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("enumerate: empty target")
	}

	if strings.Contains(input, "/") {
		return ExpandCIDR(input)
	}

	if addr, err := netip.ParseAddr(input); err == nil {
		return []model.Target{model.NewTarget(addr.String())}, nil
	}

	ips, err := net.LookupHost(input)
	if err != nil || len(ips) == 0 {
		return nil, fmt.Errorf("enumerate: resolve %q: %w", input, err)
	}
	return []model.Target{{Address: ips[0], Hostname: input}}, nil
}

// ExpandCIDR expands a CIDR prefix into its host addresses. For IPv4
// prefixes shorter than /31 the network and broadcast addresses are
// skipped, matching conventional host enumeration.
func ExpandCIDR(cidr string) ([]model.Target, error) {
	prefix, err := netip.ParsePrefix(cidr)
	if err != nil {
		return nil, fmt.Errorf("enumerate: parse CIDR %q: %w", cidr, err)
	}
	prefix = prefix.Masked()

	skipEdges := prefix.Addr().Is4() && prefix.Bits() < 31

	var targets []model.Target
	first := prefix.Addr()
	for addr := first; prefix.Contains(addr); addr = addr.Next() {
		if skipEdges && (addr == first || !prefix.Contains(addr.Next())) {
			continue
		}
		targets = append(targets, model.NewTarget(addr.String()))
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("enumerate: CIDR %q contains no host addresses", cidr)
	}
	return targets, nil
}

// ReadTargets reads newline-delimited targets from r. Blank lines and
// lines starting with '#' are skipped; each remaining line is expanded
// like a command-line target.
func ReadTargets(r io.Reader) ([]model.Target, error) {
	var targets []model.Target
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		expanded, err := ExpandTarget(text)
		if err != nil {
			return nil, fmt.Errorf("enumerate: line %d: %w", line, err)
		}
		targets = append(targets, expanded...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("enumerate: read targets: %w", err)
	}
	return targets, nil
}

// ReadTargetsFile reads targets from the named file via ReadTargets.
func ReadTargetsFile(path string) ([]model.Target, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the operator's own flag
	if err != nil {
		return nil, fmt.Errorf("enumerate: open targets file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ReadTargets(f)
}
