package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/netscout/internal/model"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [target...]",
		Short: "TCP connect scan against hosts, ranges, and CIDR blocks",
		Long: `Scan performs a TCP connect scan: each (target, port) pair is probed
with a full three-way handshake and classified as open, closed, or
filtered.

Targets are IP addresses, hostnames, or CIDR blocks. Without -p or
--top-ports, a curated set of the most common ports is probed.

Examples:
  # Scan a host's common ports
  netscout scan 192.168.1.10

  # Scan a subnet for web and SSH ports at 100 probes per second
  netscout scan 192.168.1.0/24 -p 22,80,443 -q 100

  # Scan targets from a file, save results to the database
  netscout scan -f targets.txt --save

  # Stream results as JSON lines
  netscout scan 10.0.0.1 -p 1-1024 -F jsonl -o results.jsonl`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args, "scan")
			if err != nil {
				return err
			}
			return runProbes(cmd.Context(), cfg, model.TransportTCP, "connect", nil)
		},
	}

	addEngineFlags(cmd)
	return cmd
}
