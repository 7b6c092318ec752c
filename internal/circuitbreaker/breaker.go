package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Normal operation
	StateOpen                  // Blocking requests
	StateHalfOpen              // Testing with a probe request
)

// Status is a read-only snapshot of one circuit, exposed on the
// operational status surface.
type Status struct {
	State       State      `json:"state"`
	Failures    int        `json:"failures"`
	LastFailure *time.Time `json:"last_failure,omitempty"`
	NextRetry   *time.Time `json:"next_retry,omitempty"`
}

type Breaker struct {
	mutex            sync.Mutex
	state            State
	failures         int
	lastFailure      time.Time
	nextRetry        time.Time
	failureThreshold int
	resetTimeout     time.Duration
}

func NewBreaker(threshold int, timeout time.Duration) *Breaker {
	return &Breaker{
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     timeout,
	}
}

// IsOpen reports whether calls to the endpoint should be rejected. When an
// open circuit's cooldown has elapsed it transitions to half-open and
// reports false, letting the caller send a probe request. The transition is
// a side effect of the check; IsOpen never contacts the upstream itself.
func (cb *Breaker) IsOpen() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	if cb.state != StateOpen {
		return false
	}

	if !time.Now().Before(cb.nextRetry) {
		cb.state = StateHalfOpen
		return false
	}

	return true
}

// RecordFailure increments the failure count. Reaching the threshold, or
// any failure while half-open, opens the circuit with a fresh cooldown.
func (cb *Breaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.lastFailure = time.Now()

	if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
		cb.state = StateOpen
		cb.nextRetry = cb.lastFailure.Add(cb.resetTimeout)
	}
}

// RecordSuccess unconditionally closes the circuit and clears the
// failure count.
func (cb *Breaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
	cb.state = StateClosed
	cb.nextRetry = time.Time{}
}

func (cb *Breaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

func (cb *Breaker) Status() Status {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	st := Status{
		State:    cb.state,
		Failures: cb.failures,
	}

	if !cb.lastFailure.IsZero() {
		t := cb.lastFailure
		st.LastFailure = &t
	}
	if !cb.nextRetry.IsZero() {
		t := cb.nextRetry
		st.NextRetry = &t
	}

	return st
}

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// MarshalText lets Status snapshots serialize states as their names.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
