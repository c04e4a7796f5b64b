// Package config holds the scan configuration: defaults, validation,
// and the optional YAML config file that overlays per-command defaults
// under the CLI flags.
package config
