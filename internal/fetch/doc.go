// Package fetch implements the resilient data-acquisition pipeline for
// remote telemetry APIs.
//
// A single Fetch call composes, in order: a per-endpoint circuit breaker
// check, a bounded retry loop with exponential backoff and positive jitter,
// an optional paginated fetcher for page-able (OData-style) endpoints, and
// response normalization into the canonical record collection.
//
// Fault taxonomy:
//
//   - transport faults (refused, timeout, DNS) are retried and counted
//     against the endpoint's circuit
//   - structural faults (response received but no record array extractable)
//     are retried and counted the same way
//   - policy faults (missing or malformed URL) fail fast without a retry
//     or a circuit update
//   - a breaker-open fault is raised synthetically without any network
//     attempt
//
// Endpoint identity for circuit state is the full request URL, query string
// included. Every sleep and page request honors context cancellation, so a
// host needing an end-to-end deadline passes a deadline context.
package fetch
