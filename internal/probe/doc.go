// Package probe implements reachability checks and deeper diagnostics for
// upstream telemetry endpoints.
//
// IsReachable is a cheap HEAD-then-GET liveness check that treats any HTTP
// response, error statuses included, as "reachable". Diagnose performs one
// permissive GET and builds an operator-facing report: status, latency,
// content type, body-shape classification, and rule-driven recommendations.
// Watch runs the reachability check on an interval for operational
// visibility.
package probe
