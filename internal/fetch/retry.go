package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dcmon/telemetry-gateway/internal/metrics"
)

// maxJitter is the upper bound of the backoff jitter fraction. Jitter is
// always positive: a delay is stretched by up to 30%, never shortened.
const maxJitter = 0.3

// withRetry runs attempt up to policy.Retries+1 times with exponential
// backoff. The circuit for endpoint is consulted before every try and
// updated after it; an open circuit aborts the call immediately rather
// than waiting out the cooldown.
func (c *Client) withRetry(
	ctx context.Context,
	endpoint string,
	policy Policy,
	attempt func(context.Context) ([]json.RawMessage, error),
) ([]json.RawMessage, error) {
	var lastErr error

	for try := 0; try <= policy.Retries; try++ {
		if try > 0 {
			delay := backoffDelay(policy.RetryDelay, try)
			c.logger.Debug("Retrying fetch",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", try),
				slog.Duration("delay", delay))
			c.emit(metrics.Event{Type: metrics.EventRetryScheduled, Endpoint: endpoint})

			if err := sleepCtx(ctx, delay); err != nil {
				return nil, err
			}
		}

		if policy.UseBreaker && c.breakers.IsOpen(endpoint) {
			c.logger.Warn("Circuit open, aborting fetch",
				slog.String("endpoint", endpoint))
			if policy.UseFallbackData {
				return policy.FallbackData, nil
			}
			return nil, ErrServiceUnavailable
		}

		records, err := attempt(ctx)
		if err != nil {
			if isPolicyFault(err) {
				return nil, err
			}

			lastErr = err
			if policy.UseBreaker {
				c.breakers.RecordFailure(endpoint)
			}
			c.logger.Warn("Fetch attempt failed",
				slog.String("endpoint", endpoint),
				slog.Int("attempt", try),
				slog.String("error", err.Error()))
			continue
		}

		if policy.UseBreaker {
			c.breakers.RecordSuccess(endpoint)
		}
		return records, nil
	}

	if policy.UseFallbackData {
		c.logger.Warn("All attempts exhausted, serving fallback data",
			slog.String("endpoint", endpoint))
		return policy.FallbackData, nil
	}

	return nil, lastErr
}

// backoffDelay computes base * 2^(try-1) stretched by uniform jitter in
// [0, maxJitter]. Doubling dominates the jitter band, so successive delays
// are strictly increasing.
func backoffDelay(base time.Duration, try int) time.Duration {
	exp := base << (try - 1)
	jitter := 1 + rand.Float64()*maxJitter
	return time.Duration(float64(exp) * jitter)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
