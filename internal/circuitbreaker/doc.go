// Package circuitbreaker implements the circuit breaker pattern for remote
// telemetry endpoints.
//
// A circuit breaker prevents hammering a failing upstream by temporarily
// rejecting requests to it. Each endpoint URL gets its own circuit with
// three states:
//
//   - closed: normal operation, requests pass through
//   - open: endpoint failing, requests rejected without a network attempt
//   - half-open: cooldown elapsed, one probe request allowed through
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(3, 30*time.Second)
//	if !registry.IsOpen(url) {
//	    // Make request...
//	    if err != nil {
//	        registry.RecordFailure(url)
//	    } else {
//	        registry.RecordSuccess(url)
//	    }
//	}
//
// State is held in memory only and resets on process restart.
package circuitbreaker
