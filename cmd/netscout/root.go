package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for netscout.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "netscout",
		Short: "Rate-limited network reconnaissance engine",
		Long: `netscout probes many hosts and ports concurrently while honoring a
global rate ceiling, a total concurrency cap, and a per-host fairness cap.

Targets are IPs, hostnames, or CIDR blocks. Transient failures and
timeouts are retried with linear backoff; every probe ends in exactly
one result record.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .netscout in current or home directory)")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewDiscoverCmd())
	cmd.AddCommand(NewBannerCmd())
	cmd.AddCommand(NewUDPCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
