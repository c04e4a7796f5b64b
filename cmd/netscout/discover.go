package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/netscout/internal/model"
)

// discoveryPorts are the defaults for host discovery: ports that close
// fast and are open or actively refused on most live hosts.
var discoveryPorts = []uint16{80, 443, 22}

// NewDiscoverCmd creates the discover command.
func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover [target...]",
		Short: "Find live hosts without a full port scan",
		Long: `Discover checks which targets are alive. A host counts as live when a
probe port accepts the connection or actively refuses it; only silence
leaves the host unproven.

Unprivileged TCP probes are used instead of ICMP, so discover works
without raw socket capabilities and through most firewalls.

Examples:
  # Sweep a subnet
  netscout discover 192.168.1.0/24

  # Custom probe ports and a run deadline
  netscout discover 10.0.0.0/16 -p 443,3389 --deadline 2m --graceful-stop`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args, "discover")
			if err != nil {
				return err
			}
			return runProbes(cmd.Context(), cfg, model.TransportTCP, "discovery", discoveryPorts)
		},
	}

	addEngineFlags(cmd)
	return cmd
}
