package probe

import (
	"context"
	"log/slog"
	"time"

	"github.com/dcmon/telemetry-gateway/internal/metrics"
)

// Watch periodically checks an upstream's reachability, logging status
// transitions and feeding health events to the metrics collector. It runs
// until the context is cancelled; callers start one goroutine per upstream.
func Watch(
	ctx context.Context,
	prober *Prober,
	endpoint string,
	interval time.Duration,
	collector *metrics.Collector,
	logger *slog.Logger,
) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	known := false
	healthy := false

	for {
		select {
		case <-ctx.Done():
			logger.Info("Upstream watcher stopped",
				slog.String("endpoint", endpoint))
			return

		case <-ticker.C:
			reachable := prober.IsReachable(ctx, endpoint)

			if known && reachable == healthy {
				continue
			}

			if reachable {
				logger.Info("Upstream is reachable",
					slog.String("endpoint", endpoint))
			} else {
				logger.Warn("Upstream is unreachable",
					slog.String("endpoint", endpoint))
			}

			known = true
			healthy = reachable

			if collector != nil {
				collector.Emit(metrics.Event{
					Type:      metrics.EventHealthChanged,
					Timestamp: time.Now(),
					Endpoint:  endpoint,
					Healthy:   reachable,
				})
			}
		}
	}
}
