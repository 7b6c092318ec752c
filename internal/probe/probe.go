package probe

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const (
	// reachabilityTimeout bounds the lightweight liveness checks.
	reachabilityTimeout = 5 * time.Second

	// diagnoseTimeout bounds the deeper diagnostic GET. It is wider than
	// the reachability timeout so the slow-response rule can still fire.
	diagnoseTimeout = 10 * time.Second
)

// Prober performs liveness checks and diagnostics against upstream
// endpoints.
type Prober struct {
	quick  *http.Client
	deep   *http.Client
	logger *slog.Logger
}

func NewProber(logger *slog.Logger) *Prober {
	return &Prober{
		quick:  &http.Client{Timeout: reachabilityTimeout},
		deep:   &http.Client{Timeout: diagnoseTimeout},
		logger: logger,
	}
}

// IsReachable checks network-level liveness. It tries a cheap HEAD first
// and falls back to GET when that transport-fails, since some servers
// reject HEAD. Any received HTTP response counts as reachable, error
// status codes included: this distinguishes network reachability from
// application-level success.
func (p *Prober) IsReachable(ctx context.Context, url string) bool {
	if p.attempt(ctx, http.MethodHead, url) {
		return true
	}
	return p.attempt(ctx, http.MethodGet, url)
}

func (p *Prober) attempt(ctx context.Context, method, url string) bool {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return false
	}

	res, err := p.quick.Do(req)
	if err != nil {
		return false
	}
	res.Body.Close()
	return true
}
