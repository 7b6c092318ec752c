package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dcmon/telemetry-gateway/config"
	"github.com/dcmon/telemetry-gateway/internal/circuitbreaker"
	"github.com/dcmon/telemetry-gateway/internal/fallback"
	"github.com/dcmon/telemetry-gateway/internal/fetch"
	"github.com/dcmon/telemetry-gateway/internal/handler"
	"github.com/dcmon/telemetry-gateway/internal/httpserver"
	"github.com/dcmon/telemetry-gateway/internal/metrics"
	"github.com/dcmon/telemetry-gateway/internal/probe"
	"github.com/dcmon/telemetry-gateway/internal/store"
	"github.com/dcmon/telemetry-gateway/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.Store.Path, log)
	if err != nil {
		log.Error("Failed to open telemetry store", slog.Any("err", err))
		os.Exit(1)
	}
	defer st.Close()

	registry := circuitbreaker.NewRegistry(cfg.Breaker.FailureThreshold, cfg.ResetTimeoutDuration())

	collector := metrics.NewCollector(1000, log)
	collector.Start(ctx)

	client := fetch.NewClient(registry, collector, log)
	coordinator := fallback.NewCoordinator(client, collector, log)
	prober := probe.NewProber(log)

	datasets := buildDatasets(cfg, st)

	for _, upstream := range cfg.Upstreams {
		go probe.Watch(ctx, prober, upstream.URL, cfg.WatchIntervalDuration(), collector, log)
	}

	telemetryHandler := handler.New(log, coordinator, registry, prober, datasets)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(telemetryHandler, collector))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	log.Info("Telemetry gateway started", slog.String("address", cfg.Server.Address))

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error running gateway", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// buildDatasets wires the served datasets: the primary store accessor plus
// the configured remote upstream, if any, for each.
func buildDatasets(cfg *config.Config, st *store.Store) []handler.Dataset {
	policy := fetch.Policy{
		Retries:         cfg.Fetch.Retries,
		RetryDelay:      cfg.RetryDelayDuration(),
		UseBreaker:      true,
		UsePagination:   cfg.Fetch.UsePagination,
		PageSize:        cfg.Fetch.PageSize,
		UseFallbackData: cfg.Fetch.UseFallbackData,
	}

	datasets := []handler.Dataset{
		{Name: "racks", Primary: st.RackPower, Policy: policy},
		{Name: "sensors", Primary: st.SensorReadings, Policy: policy},
	}

	for i := range datasets {
		if cfg.Fetch.UseFallbackData {
			datasets[i].Policy.FallbackData = sampleDataset(datasets[i].Name)
		}

		for _, upstream := range cfg.Upstreams {
			if upstream.Name != datasets[i].Name {
				continue
			}

			req := fetch.Request{URL: upstream.URL}
			if upstream.TokenEnv != "" {
				if token := os.Getenv(upstream.TokenEnv); token != "" {
					req.Headers = map[string]string{"Authorization": "Bearer " + token}
				}
			}
			datasets[i].Request = req
		}
	}

	return datasets
}
