// Package logger provides structured logging for the telemetry gateway.
// It wraps the standard log/slog package, selecting a JSON handler in
// production and a text handler everywhere else.
package logger
