// Package config handles loading and parsing of configuration from YAML files
// and environment variables. It defines the application configuration structure
// including server settings, upstream telemetry APIs, fetch/retry policy
// defaults, circuit breaker tuning, and the primary store location.
package config
