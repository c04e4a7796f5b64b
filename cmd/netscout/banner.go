package main

import (
	"github.com/spf13/cobra"

	"github.com/nao1215/netscout/internal/config"
	"github.com/nao1215/netscout/internal/model"
)

// bannerPorts are the defaults for banner grabbing: the services the
// prober can actually speak.
var bannerPorts = []uint16{22, 80, 443, 8080, 8443}

// NewBannerCmd creates the banner command.
func NewBannerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banner [target...]",
		Short: "Grab service banners from open TCP ports",
		Long: `Banner connects to each port and records what the service announces:
the HTTP status line and Server header, the TLS certificate subject and
page title for HTTPS, and the SSH version line.

The protocol spoken is chosen by well-known port; unknown ports get a
plain HTTP request.

Examples:
  # Grab banners from a web server
  netscout banner example.com -p 80,443

  # Identify SSH versions across a subnet
  netscout banner 192.168.1.0/24 -p 22 -F csv -o ssh.csv`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, args, "banner")
			if err != nil {
				return err
			}
			return runProbes(cmd.Context(), cfg, model.TransportTCP, "banner", bannerPorts)
		},
	}

	addEngineFlags(cmd)
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with HTTP banner requests")
	return cmd
}
