// Package log provides secure logging functionality with automatic
// sanitization of sensitive information, built on top of the standard
// slog package.
//
// The SecureHandler masks credential-ish attribute values before they
// reach the underlying handler:
//   - HTTP headers (Authorization, Cookie, Set-Cookie, X-Api-Key)
//   - SNMP community strings from scan configuration
//   - Secret values detected by pattern matching (tokens, keys)
//
// Even in verbose mode, sensitive values are masked, so debug logs can
// be shared without scrubbing.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Info("snmp probe",
//	    "community", "public", // masked
//	    "target", "10.0.0.1",
//	)
package log
