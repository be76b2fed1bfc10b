// Package logging provides structured logging for the mqttpool runtime.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("pool ready", "max_size", 8)
//	logger.Error("broker unreachable", "error", err)
//
// # Security
//
// Never log secrets, broker passwords, or tokens. Redact where needed:
//
//	logger.Info("authenticating", "username", cfg.Auth.Username)
package logging
