package circuitbreaker

import (
	"sync"
	"time"
)

// Registry tracks one circuit per endpoint key. The key is the full request
// URL, query string included: two requests to the same resource differing
// only by pagination offset are tracked as different circuits. Entries are
// created lazily on the first recorded failure and live for the process
// lifetime.
//
// The registry is an injected dependency of every fetch call rather than a
// package singleton, so tests and multi-tenant hosts can own isolated
// instances.
type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*Breaker
	threshold int
	timeout   time.Duration
}

func NewRegistry(threshold int, timeout time.Duration) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		threshold: threshold,
		timeout:   timeout,
	}
}

// Get returns the circuit for an endpoint, creating it if necessary.
func (r *Registry) Get(endpoint string) *Breaker {
	r.mutex.RLock()
	cb, exists := r.breakers[endpoint]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[endpoint]; exists {
		return cb
	}

	cb = NewBreaker(r.threshold, r.timeout)
	r.breakers[endpoint] = cb
	return cb
}

// IsOpen reports whether the endpoint's circuit is rejecting calls. An
// endpoint with no recorded failures has no circuit and is never open.
func (r *Registry) IsOpen(endpoint string) bool {
	r.mutex.RLock()
	cb, exists := r.breakers[endpoint]
	r.mutex.RUnlock()

	if !exists {
		return false
	}

	return cb.IsOpen()
}

// RecordFailure notes a failed call, creating the circuit on first use.
func (r *Registry) RecordFailure(endpoint string) {
	r.Get(endpoint).RecordFailure()
}

// RecordSuccess closes the endpoint's circuit. A success against an
// endpoint with no circuit is a no-op; an absent entry already means
// closed with zero failures.
func (r *Registry) RecordSuccess(endpoint string) {
	r.mutex.RLock()
	cb, exists := r.breakers[endpoint]
	r.mutex.RUnlock()

	if exists {
		cb.RecordSuccess()
	}
}

// Reset drops all tracked circuits.
func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.breakers = make(map[string]*Breaker)
}

// Snapshot returns a read-only view of every tracked circuit.
func (r *Registry) Snapshot() map[string]Status {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[string]Status, len(r.breakers))
	for endpoint, cb := range r.breakers {
		states[endpoint] = cb.Status()
	}
	return states
}
