package enumerate

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ErrEmptyPortSpec is returned when a port spec contains no ports.
var ErrEmptyPortSpec = errors.New("enumerate: port spec contains no ports")

// topPorts is a curated list of commonly exposed ports, most common
// first. The order is intentional: TopPorts(n) takes a prefix.
var topPorts = []uint16{
	21, 22, 23, 25, 53, 80, 110, 123, 135, 139, 143, 389, 443, 445, 465,
	500, 587, 636, 993, 995, 1080, 1194, 1352, 1433, 1521, 1723, 2049,
	2375, 2376, 3000, 3128, 3268, 3306, 3389, 4444, 4500, 5000, 5060,
	5432, 5601, 5671, 5672, 5900, 5985, 5986, 6379, 7001, 7002, 8000,
	8080, 8081, 8200, 8443, 8500, 8530, 8888, 9000, 9092, 9200, 9300,
	9418, 9999, 10000, 11211, 15672, 27017,
}

// ParsePorts parses a comma-separated port spec such as "22,80,443" or
// "1-1024,8080". Ranges are inclusive, port 0 is rejected, duplicates
// are removed, and the result is sorted ascending.
func ParsePorts(spec string) ([]uint16, error) {
	var ports []uint16
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if start, end, ok := strings.Cut(part, "-"); ok {
			s, err := parsePort(start)
			if err != nil {
				return nil, fmt.Errorf("enumerate: invalid port range %q: %w", part, err)
			}
			e, err := parsePort(end)
			if err != nil {
				return nil, fmt.Errorf("enumerate: invalid port range %q: %w", part, err)
			}
			if s > e {
				return nil, fmt.Errorf("enumerate: invalid port range %q: start exceeds end", part)
			}
			for p := uint32(s); p <= uint32(e); p++ {
				ports = append(ports, uint16(p))
			}
			continue
		}

		p, err := parsePort(part)
		if err != nil {
			return nil, fmt.Errorf("enumerate: invalid port %q: %w", part, err)
		}
		ports = append(ports, p)
	}
	if len(ports) == 0 {
		return nil, ErrEmptyPortSpec
	}

	slices.Sort(ports)
	return slices.Compact(ports), nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errors.New("port must be 1-65535")
	}
	return uint16(n), nil
}

// TopPorts returns the n most commonly exposed ports from the curated
// list. n larger than the list returns the whole list.
func TopPorts(n int) []uint16 {
	if n < 0 {
		n = 0
	}
	return slices.Clone(topPorts[:min(n, len(topPorts))])
}

// DefaultPorts is the port set used when no spec is given.
func DefaultPorts() []uint16 {
	return TopPorts(64)
}
