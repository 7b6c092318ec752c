package fallback

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dcmon/telemetry-gateway/internal/fetch"
	"github.com/dcmon/telemetry-gateway/internal/metrics"
)

// Accessor reads a dataset from the primary store. A nil accessor means
// the dataset has no primary source.
type Accessor func(ctx context.Context) ([]json.RawMessage, error)

// RemoteFetcher is the acquisition pipeline the coordinator falls back to.
// Satisfied by *fetch.Client.
type RemoteFetcher interface {
	Fetch(ctx context.Context, req fetch.Request, policy fetch.Policy) ([]json.RawMessage, error)
}

// Source identifies which path ultimately served a dataset.
const (
	SourcePrimary  = "primary"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
	SourceEmpty    = "empty"
)

// Coordinator resolves a dataset by precedence: primary store, then remote
// API, then configured fallback data, then an empty collection. It is the
// terminal absorber of the acquisition layer: no fault ever escapes to its
// caller, total failure degrades to "no data".
type Coordinator struct {
	remote    RemoteFetcher
	collector *metrics.Collector
	logger    *slog.Logger
}

func NewCoordinator(remote RemoteFetcher, collector *metrics.Collector, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		remote:    remote,
		collector: collector,
		logger:    logger,
	}
}

// Fetch resolves one dataset. Every stage logs under a fresh request_id so
// the serving source of any call can be traced end to end.
func (c *Coordinator) Fetch(ctx context.Context, dataset string, primary Accessor, req fetch.Request, policy fetch.Policy) []json.RawMessage {
	log := c.logger.With(
		slog.String("request_id", uuid.NewString()),
		slog.String("dataset", dataset),
	)

	if primary != nil {
		records, err := primary(ctx)
		switch {
		case err != nil:
			log.Warn("Primary store failed, trying remote",
				slog.String("error", err.Error()))
		case len(records) > 0:
			log.Info("Served from primary store",
				slog.Int("records", len(records)))
			c.emitServed(dataset, SourcePrimary)
			return records
		default:
			log.Info("Primary store empty, trying remote")
		}
	}

	if req.URL != "" {
		if fetch.IsPageable(req.URL) {
			policy.UsePagination = true
		}

		// The coordinator owns step-5 fallback data so the serving source
		// stays attributable; the pipeline must not substitute it first.
		remotePolicy := policy
		remotePolicy.UseFallbackData = false

		records, err := c.remote.Fetch(ctx, req, remotePolicy)
		switch {
		case err != nil:
			log.Warn("Remote fetch failed",
				slog.String("endpoint", req.URL),
				slog.String("error", err.Error()))
		case len(records) > 0:
			log.Info("Served from remote API",
				slog.String("endpoint", req.URL),
				slog.Int("records", len(records)))
			c.emitServed(dataset, SourceRemote)
			return records
		default:
			log.Warn("Remote API returned no usable data",
				slog.String("endpoint", req.URL))
		}
	}

	if policy.UseFallbackData {
		log.Warn("All sources failed, serving fallback data",
			slog.Int("records", len(policy.FallbackData)))
		c.emitServed(dataset, SourceFallback)
		return policy.FallbackData
	}

	log.Warn("All sources failed, serving empty dataset")
	c.emitServed(dataset, SourceEmpty)
	return []json.RawMessage{}
}

func (c *Coordinator) emitServed(dataset, source string) {
	if c.collector == nil {
		return
	}
	c.collector.Emit(metrics.Event{
		Type:      metrics.EventSourceServed,
		Timestamp: time.Now(),
		Dataset:   dataset,
		Source:    source,
	})
}
