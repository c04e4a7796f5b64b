package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/netscout/internal/config"
)

// addEngineFlags registers the flags shared by every probing subcommand.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("ports", "p", "",
		"Port specification: comma-separated ports and ranges (e.g. 22,80,8000-8100)")
	cmd.Flags().Int("top-ports", 0,
		"Probe the N most common ports instead of a port specification")
	cmd.Flags().Float64P("qps", "q", config.DefaultQPS,
		"Global probe rate ceiling in probes per second (0 = unlimited)")
	cmd.Flags().Int("burst", 0,
		"Token bucket capacity (0 = derived from qps)")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Total in-flight probe cap")
	cmd.Flags().Int("host-concurrency", config.DefaultHostConcurrency,
		"In-flight probe cap per target host (0 = unlimited)")
	cmd.Flags().Int("max-retries", config.DefaultMaxRetries,
		"Retry budget per probe for transient failures and timeouts")
	cmd.Flags().Duration("retry-delay", config.DefaultRetryDelay,
		"Linear backoff base between attempts")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for a single probe attempt")
	cmd.Flags().Duration("deadline", 0,
		"Deadline for the whole run (0 = none)")
	cmd.Flags().Bool("graceful-stop", false,
		"On deadline expiry, drain in-flight probes instead of aborting them")
	cmd.Flags().StringP("format", "F", string(config.FormatText),
		"Output format: text, jsonl, csv, or markdown")
	cmd.Flags().StringP("output", "o", "",
		"Write results to specified file path instead of stdout")
	cmd.Flags().StringP("target-file", "f", "",
		"Read targets from file, one per line ('#' starts a comment)")
	cmd.Flags().Bool("save", false,
		"Additionally persist results to the SQLite results database")
	cmd.Flags().String("db-dir", "",
		"Results database directory (default: XDG data directory)")
}

// buildConfig creates a Config for one subcommand invocation. Precedence
// from weakest to strongest: built-in defaults, the config file's
// defaults section, the config file's subcommand section, explicitly set
// CLI flags.
func buildConfig(cmd *cobra.Command, args []string, section string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ConfigFilePath = persistentString(cmd, "config")
	cfg.Verbose = persistentBool(cmd, "verbose")

	// If the user explicitly specified a config file, a missing file is
	// an error; an absent implicit file just means defaults.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Defaults.Apply(cfg)
		cf.Section(section).Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	// Explicit flags win over anything the config file set.
	overlayString(cmd, "ports", &cfg.Ports)
	overlayInt(cmd, "top-ports", &cfg.TopPorts)
	overlayFloat(cmd, "qps", &cfg.QPS)
	overlayInt(cmd, "burst", &cfg.Burst)
	overlayInt(cmd, "concurrency", &cfg.Concurrency)
	overlayInt(cmd, "host-concurrency", &cfg.HostConcurrency)
	overlayInt(cmd, "max-retries", &cfg.MaxRetries)
	overlayDuration(cmd, "retry-delay", &cfg.RetryDelay)
	overlayDuration(cmd, "timeout", &cfg.Timeout)
	overlayDuration(cmd, "deadline", &cfg.Deadline)
	overlayBool(cmd, "graceful-stop", &cfg.GracefulStop)
	overlayString(cmd, "target-file", &cfg.TargetFile)
	overlayString(cmd, "output", &cfg.OutputFile)
	overlayBool(cmd, "save", &cfg.SaveToDB)
	overlayString(cmd, "db-dir", &cfg.DBDir)

	var format string
	overlayString(cmd, "format", &format)
	if format != "" {
		cfg.Format = config.OutputFormat(format)
	}

	// Subcommand-specific flags; absent lookups are simply skipped.
	overlayString(cmd, "user-agent", &cfg.UserAgent)
	overlayString(cmd, "snmp-community", &cfg.SNMPCommunity)

	cfg.Targets = args
	return cfg, nil
}

// persistentString reads a string flag, falling back to the root
// command's persistent flag set for inherited flags.
func persistentString(cmd *cobra.Command, name string) string {
	if v, err := cmd.Flags().GetString(name); err == nil && v != "" {
		return v
	}
	if v, err := cmd.Root().PersistentFlags().GetString(name); err == nil {
		return v
	}
	return ""
}

// persistentBool reads a bool flag, falling back to the root command's
// persistent flag set for inherited flags.
func persistentBool(cmd *cobra.Command, name string) bool {
	if v, err := cmd.Flags().GetBool(name); err == nil && v {
		return true
	}
	if v, err := cmd.Root().PersistentFlags().GetBool(name); err == nil {
		return v
	}
	return false
}

// The overlay helpers copy a flag value only when the user set it, so
// config-file values survive for untouched flags.

func overlayString(cmd *cobra.Command, name string, dst *string) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func overlayInt(cmd *cobra.Command, name string, dst *int) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

func overlayFloat(cmd *cobra.Command, name string, dst *float64) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetFloat64(name)
	}
}

func overlayDuration(cmd *cobra.Command, name string, dst *time.Duration) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetDuration(name)
	}
}

func overlayBool(cmd *cobra.Command, name string, dst *bool) {
	if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
		*dst, _ = cmd.Flags().GetBool(name)
	}
}
