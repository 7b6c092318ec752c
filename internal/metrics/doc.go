// Package metrics provides real-time metrics collection for the
// data-acquisition layer.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Fetch attempts, failures, and scheduled retries per endpoint
//   - Page counts for paginated fetches
//   - Attempt latencies with percentile calculations (P50, P95, P99)
//   - Which source ultimately served each dataset (primary store, remote
//     API, fallback data, or nothing)
//   - Upstream reachability status from the background watcher
//
// The collector runs in a dedicated goroutine and processes events without
// blocking the fetch path. Emit never blocks; events are dropped under
// backpressure. Shutdown drains the channel so short-lived processes do not
// lose trailing events.
package metrics
