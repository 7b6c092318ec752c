// Package handler implements the gateway's HTTP handlers: the telemetry
// dataset endpoints backed by the fallback coordinator, and the
// operational status surface (breaker states, on-demand diagnosis,
// liveness).
package handler
