package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventFetchAttempt   EventType = "fetch_attempt"
	EventRetryScheduled EventType = "retry_scheduled"
	EventPageFetched    EventType = "page_fetched"
	EventSourceServed   EventType = "source_served"
	EventHealthChanged  EventType = "health_changed"
)

type Event struct {
	Type      EventType
	Timestamp time.Time
	Endpoint  string
	Dataset   string
	Source    string
	Duration  time.Duration
	Success   bool
	Healthy   bool
}

// Collector receives acquisition events over a buffered channel and folds
// them into Metrics off the fetch path.
type Collector struct {
	eventCh chan Event
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan Event, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit sends an event without blocking; under backpressure the event is
// dropped rather than stalling a fetch.
func (c *Collector) Emit(event Event) {
	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event Event) {
	switch event.Type {
	case EventFetchAttempt:
		c.metrics.RecordAttempt(event.Endpoint, event.Duration, event.Success)

	case EventRetryScheduled:
		c.metrics.RecordRetry(event.Endpoint)

	case EventPageFetched:
		c.metrics.RecordPage(event.Endpoint)

	case EventSourceServed:
		c.metrics.RecordServed(event.Dataset, event.Source)

	case EventHealthChanged:
		c.metrics.UpdateHealthStatus(event.Endpoint, event.Healthy)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot() Snapshot {
	return c.metrics.Snapshot()
}
