package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".netscout"

// ErrConfigNotFound is returned when the configuration file does not
// exist. Callers treat it as fatal only when the path was explicit.
var ErrConfigNotFound = errors.New("config: configuration file not found")

// File is the YAML config file shape: global defaults plus per-command
// sections that win over the globals. CLI flags win over both.
type File struct {
	// Defaults apply to every subcommand.
	Defaults Overrides `yaml:"defaults"`

	// Scan applies to the scan subcommand only.
	Scan Overrides `yaml:"scan"`

	// Discover applies to the discover subcommand only.
	Discover Overrides `yaml:"discover"`

	// Banner applies to the banner subcommand only.
	Banner Overrides `yaml:"banner"`

	// UDP applies to the udp subcommand only.
	UDP Overrides `yaml:"udp"`
}

// Duration wraps time.Duration so YAML values can be written in the
// human form ("250ms", "1m30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Overrides is one config-file section. Pointer fields distinguish
// "not set" from an explicit zero, so a section can set qps: 0
// (unlimited) without clobbering everything else.
type Overrides struct {
	Ports           *string   `yaml:"ports"`
	TopPorts        *int      `yaml:"top_ports"`
	QPS             *float64  `yaml:"qps"`
	Burst           *int      `yaml:"burst"`
	Concurrency     *int      `yaml:"concurrency"`
	HostConcurrency *int      `yaml:"host_concurrency"`
	MaxRetries      *int      `yaml:"max_retries"`
	RetryDelay      *Duration `yaml:"retry_delay"`
	Timeout         *Duration `yaml:"timeout"`
	Deadline        *Duration `yaml:"deadline"`
	GracefulStop    *bool     `yaml:"graceful_stop"`
	Format          *string   `yaml:"format"`
	UserAgent       *string   `yaml:"user_agent"`
	SNMPCommunity   *string   `yaml:"snmp_community"`
}

// Section returns the overrides for a subcommand name.
func (f *File) Section(command string) Overrides {
	switch command {
	case "scan":
		return f.Scan
	case "discover":
		return f.Discover
	case "banner":
		return f.Banner
	case "udp":
		return f.UDP
	default:
		return Overrides{}
	}
}

// Apply overlays the set fields onto cfg.
func (o Overrides) Apply(cfg *Config) {
	if o.Ports != nil {
		cfg.Ports = *o.Ports
	}
	if o.TopPorts != nil {
		cfg.TopPorts = *o.TopPorts
	}
	if o.QPS != nil {
		cfg.QPS = *o.QPS
	}
	if o.Burst != nil {
		cfg.Burst = *o.Burst
	}
	if o.Concurrency != nil {
		cfg.Concurrency = *o.Concurrency
	}
	if o.HostConcurrency != nil {
		cfg.HostConcurrency = *o.HostConcurrency
	}
	if o.MaxRetries != nil {
		cfg.MaxRetries = *o.MaxRetries
	}
	if o.RetryDelay != nil {
		cfg.RetryDelay = time.Duration(*o.RetryDelay)
	}
	if o.Timeout != nil {
		cfg.Timeout = time.Duration(*o.Timeout)
	}
	if o.Deadline != nil {
		cfg.Deadline = time.Duration(*o.Deadline)
	}
	if o.GracefulStop != nil {
		cfg.GracefulStop = *o.GracefulStop
	}
	if o.Format != nil {
		cfg.Format = OutputFormat(*o.Format)
	}
	if o.UserAgent != nil {
		cfg.UserAgent = *o.UserAgent
	}
	if o.SNMPCommunity != nil {
		cfg.SNMPCommunity = *o.SNMPCommunity
	}
}

// LoadConfigFile loads the YAML config file at path.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file:
//  1. If configPath is specified, use it directly
//  2. .netscout in the current directory
//  3. .netscout in the user's home directory
//  4. config.yaml in the XDG config directory
//
// Returns the path if found, or empty string.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		candidate := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		candidate := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	candidate := filepath.Join(XDGConfigDir(), "config.yaml")
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}
