package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dcmon/telemetry-gateway/internal/circuitbreaker"
	"github.com/dcmon/telemetry-gateway/internal/metrics"
	"github.com/dcmon/telemetry-gateway/internal/normalize"
)

const (
	// DefaultTimeout bounds each individual network attempt. There is no
	// end-to-end deadline across retries and pages; hosts wanting one pass
	// a deadline context to Fetch.
	DefaultTimeout = 10 * time.Second

	// DefaultPageSize is used when a paginated policy does not set one.
	DefaultPageSize = 50

	// maxPages is the hard safety cap on page requests per fetch,
	// regardless of what total the upstream reports.
	maxPages = 20

	// defaultPageDelay spaces successive page requests so a large result
	// set does not hammer the upstream.
	defaultPageDelay = 300 * time.Millisecond
)

// Request describes the target of one logical fetch. Immutable for the
// lifetime of the call.
type Request struct {
	URL     string
	Method  string            // defaults to GET
	Headers map[string]string // optional, e.g. Authorization
	Timeout time.Duration     // per attempt, defaults to DefaultTimeout
}

// Policy configures resilience behavior for one logical fetch.
type Policy struct {
	Retries         int
	RetryDelay      time.Duration
	UseBreaker      bool
	UsePagination   bool
	PageSize        int
	UseFallbackData bool
	FallbackData    []json.RawMessage
}

// Client is the resilient acquisition pipeline: circuit breaker, backoff
// retry, pagination, and response normalization behind one Fetch call. The
// breaker registry is injected so hosts and tests own circuit state.
type Client struct {
	http      *http.Client
	breakers  *circuitbreaker.Registry
	collector *metrics.Collector
	logger    *slog.Logger

	// PageDelay overrides the pacing between page requests. Tests shrink
	// it; production uses the default.
	PageDelay time.Duration
}

func NewClient(breakers *circuitbreaker.Registry, collector *metrics.Collector, logger *slog.Logger) *Client {
	return &Client{
		http:      &http.Client{},
		breakers:  breakers,
		collector: collector,
		logger:    logger,
		PageDelay: defaultPageDelay,
	}
}

// Fetch performs one logical acquisition and returns the canonical record
// collection. Pagination is used when both the policy enables it and the
// URL carries page-able query markers.
func (c *Client) Fetch(ctx context.Context, req Request, policy Policy) ([]json.RawMessage, error) {
	if req.URL == "" {
		return nil, ErrNoURL
	}

	parsed, err := url.Parse(req.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, req.URL)
	}

	paginated := policy.UsePagination && IsPageable(req.URL)

	attempt := func(ctx context.Context) ([]json.RawMessage, error) {
		if paginated {
			return c.fetchPages(ctx, req, parsed, policy.PageSize)
		}

		result, err := c.do(ctx, req, req.URL)
		if err != nil {
			return nil, err
		}
		return result.Records, nil
	}

	return c.withRetry(ctx, req.URL, policy, attempt)
}

// do issues one HTTP attempt against targetURL and normalizes the body.
// A response only counts as successful when a record array can be
// extracted from it.
func (c *Client) do(ctx context.Context, req Request, targetURL string) (normalize.Result, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, targetURL, nil)
	if err != nil {
		return normalize.Result{}, fmt.Errorf("%w: %q", ErrInvalidURL, targetURL)
	}

	for name, value := range req.Headers {
		httpReq.Header.Set(name, value)
	}

	start := time.Now()
	res, err := c.http.Do(httpReq)
	if err != nil {
		c.emitAttempt(targetURL, time.Since(start), false)
		return normalize.Result{}, &TransportError{URL: targetURL, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	duration := time.Since(start)
	if err != nil {
		c.emitAttempt(targetURL, duration, false)
		return normalize.Result{}, &TransportError{URL: targetURL, Err: err}
	}

	if res.StatusCode >= http.StatusBadRequest {
		c.emitAttempt(targetURL, duration, false)
		return normalize.Result{}, &HTTPError{URL: targetURL, StatusCode: res.StatusCode}
	}

	result, err := normalize.Normalize(body)
	if err != nil {
		c.emitAttempt(targetURL, duration, false)
		return normalize.Result{}, err
	}

	c.emitAttempt(targetURL, duration, true)
	return result, nil
}

func (c *Client) emitAttempt(endpoint string, duration time.Duration, success bool) {
	if c.collector == nil {
		return
	}
	c.collector.Emit(metrics.Event{
		Type:      metrics.EventFetchAttempt,
		Timestamp: time.Now(),
		Endpoint:  endpoint,
		Duration:  duration,
		Success:   success,
	})
}

func (c *Client) emit(event metrics.Event) {
	if c.collector == nil {
		return
	}
	event.Timestamp = time.Now()
	c.collector.Emit(event)
}
