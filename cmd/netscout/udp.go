package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/netscout/internal/config"
	"github.com/nao1215/netscout/internal/model"
)

// udpPorts are the defaults for UDP probing: the services the prober
// knows how to provoke a reply from.
var udpPorts = []uint16{53, 123, 161}

// NewUDPCmd creates the udp command.
func NewUDPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "udp [target...]",
		Short: "Probe UDP services (DNS, NTP, SNMP)",
		Long: `UDP probes connectionless services by speaking just enough of each
protocol to provoke a reply: a DNS query on port 53, an NTP client
packet on port 123, and an SNMP sysDescr query on port 161.

A valid reply proves open and an ICMP port-unreachable proves closed;
silence proves nothing, so unanswered probes are retried and finally
reported as open|filtered.

Examples:
  # Check a resolver and time server
  netscout udp 192.168.1.1 -p 53,123

  # SNMP sweep with a site community string
  netscout udp 10.0.0.0/24 -p 161 --snmp-community internal-ro`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args, "udp")
			if err != nil {
				return err
			}
			return runProbes(cmd.Context(), cfg, model.TransportUDP, "udp", udpPorts)
		},
	}

	addEngineFlags(cmd)
	cmd.Flags().String("snmp-community", config.DefaultSNMPCommunity,
		"SNMP community string for port 161 probes")
	return cmd
}
