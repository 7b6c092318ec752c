package fetch

import (
	"errors"
	"fmt"
)

// Policy faults: the request itself is unusable. These fail fast, are never
// retried, and never count against the endpoint's circuit.
var (
	ErrNoURL      = errors.New("no URL provided")
	ErrInvalidURL = errors.New("invalid URL format")
)

// ErrServiceUnavailable is the synthetic fault raised when the endpoint's
// circuit is open. No network attempt was made.
var ErrServiceUnavailable = errors.New("service unavailable: circuit open")

// TransportError wraps a network-level failure: connection refused,
// timeout, DNS failure. Retried and counted against the circuit.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// HTTPError marks an upstream response with an error status code. Retried
// and counted against the circuit, like a structural fault.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.StatusCode)
}

// isPolicyFault reports whether the error must bypass the retry loop and
// the circuit breaker entirely.
func isPolicyFault(err error) bool {
	return errors.Is(err, ErrNoURL) || errors.Is(err, ErrInvalidURL)
}
