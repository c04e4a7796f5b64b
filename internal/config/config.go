package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/netscout/internal/engine"
)

// Default configuration values. The rate and concurrency defaults lean
// polite: a scan against infrastructure you operate can always be told
// to go faster.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "netscout"

	// DefaultQPS of 0 means unlimited: the concurrency cap is the only
	// brake. Operators scanning across shared links set an explicit rate.
	DefaultQPS = 0

	// DefaultConcurrency caps total in-flight probes. 256 stays well
	// under common file-descriptor limits.
	DefaultConcurrency = 256

	// DefaultHostConcurrency of 32 keeps a single target from absorbing
	// the whole global budget and tripping per-source rate limiting.
	DefaultHostConcurrency = 32

	// DefaultMaxRetries retries each transient failure or timeout once.
	DefaultMaxRetries = 1

	// DefaultRetryDelay is the linear backoff base between attempts.
	DefaultRetryDelay = 50 * time.Millisecond

	// DefaultTimeout bounds a single probe attempt. Sub-second keeps
	// scans of filtered networks from crawling; slow targets surface as
	// timeouts and get retried.
	DefaultTimeout = 500 * time.Millisecond

	// DefaultUserAgent identifies netscout in HTTP banner requests.
	// A descriptive User-Agent lets operators recognize scanner traffic.
	DefaultUserAgent = "netscout/1.0 (+https://github.com/nao1215/netscout)"

	// DefaultSNMPCommunity is the conventional read-only community.
	DefaultSNMPCommunity = "public"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

// Supported output formats.
const (
	FormatText     OutputFormat = "text"
	FormatJSONL    OutputFormat = "jsonl"
	FormatCSV      OutputFormat = "csv"
	FormatMarkdown OutputFormat = "markdown"
)

// Valid reports whether the format is supported.
func (f OutputFormat) Valid() bool {
	switch f {
	case FormatText, FormatJSONL, FormatCSV, FormatMarkdown:
		return true
	}
	return false
}

// Config holds all options for one scan invocation. It is populated
// from CLI flags over config-file defaults and passed through the
// application by dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested
// structs because the option count is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// Targets are the scan destinations: IPs, hostnames, or CIDRs.
	Targets []string

	// TargetFile is an optional newline-delimited target list.
	// Lines starting with '#' are comments.
	TargetFile string

	// Ports is the port spec ("22,80,443", "1-1024"). Empty means the
	// curated default port set.
	Ports string

	// TopPorts selects the N most common ports instead of a spec.
	// Zero means not used.
	TopPorts int

	// QPS is the global probe rate ceiling. Zero means unlimited.
	QPS float64

	// Burst is the token bucket capacity. Zero derives it from QPS.
	Burst int

	// Concurrency is the global in-flight probe cap.
	Concurrency int

	// HostConcurrency caps in-flight probes per target host.
	// Zero means unlimited.
	HostConcurrency int

	// MaxRetries is the retry budget per probe for transient failures
	// and timeouts.
	MaxRetries int

	// RetryDelay is the linear backoff base between attempts.
	RetryDelay time.Duration

	// Timeout bounds a single probe attempt.
	Timeout time.Duration

	// Deadline bounds the whole run. Zero means no deadline.
	Deadline time.Duration

	// GracefulStop makes the run deadline drain in-flight probes
	// instead of abandoning them.
	GracefulStop bool

	// Format selects the result rendering.
	Format OutputFormat

	// OutputFile writes results there instead of stdout.
	OutputFile string

	// DBDir is the directory for the results SQLite database. When set,
	// records are additionally persisted for cross-run queries.
	// Defaults to the XDG data directory when SaveToDB is set.
	DBDir string

	// SaveToDB persists results to the SQLite database.
	SaveToDB bool

	// UserAgent is sent with HTTP banner requests.
	UserAgent string

	// SNMPCommunity is the community string for SNMP probes.
	SNMPCommunity string

	// Verbose enables debug-level log output.
	Verbose bool

	// ConfigFilePath is an explicit config file path. Empty means
	// search .netscout in the working directory, then the home
	// directory, then the XDG config directory.
	ConfigFilePath string
}

// NewConfig creates a Config with default values.
//
// Design decision: We use a constructor instead of relying on zero
// values because many defaults are non-zero, and the constructor
// doubles as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		QPS:             DefaultQPS,
		Concurrency:     DefaultConcurrency,
		HostConcurrency: DefaultHostConcurrency,
		MaxRetries:      DefaultMaxRetries,
		RetryDelay:      DefaultRetryDelay,
		Timeout:         DefaultTimeout,
		Format:          FormatText,
		UserAgent:       DefaultUserAgent,
		SNMPCommunity:   DefaultSNMPCommunity,
	}
}

// Validate checks the configuration and returns the first violation.
// Called once after flag parsing, before any probe executes.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 && c.TargetFile == "" {
		return ErrNoTarget
	}
	if c.QPS < 0 {
		return ErrInvalidQPS
	}
	if c.Concurrency < 1 {
		return ErrInvalidConcurrency
	}
	if c.HostConcurrency < 0 {
		return ErrInvalidHostConcurrency
	}
	if c.MaxRetries < 0 {
		return ErrInvalidRetries
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if !c.Format.Valid() {
		return ErrInvalidOutputFormat
	}
	return nil
}

// EngineOptions maps the configuration onto the engine's option set.
func (c *Config) EngineOptions() engine.Options {
	opts := engine.DefaultOptions()
	opts.QPS = c.QPS
	opts.Burst = c.Burst
	opts.GlobalConcurrency = c.Concurrency
	opts.HostConcurrency = c.HostConcurrency
	opts.MaxRetries = c.MaxRetries
	opts.RetryDelay = c.RetryDelay
	opts.AttemptTimeout = c.Timeout
	opts.Deadline = c.Deadline
	opts.GracefulDeadline = c.GracefulStop
	return opts
}

// XDGDataDir returns the XDG data directory for netscout.
// On Linux: ~/.local/share/netscout
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for netscout.
// On Linux: ~/.config/netscout
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}
