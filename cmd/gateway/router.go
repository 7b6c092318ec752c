package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dcmon/telemetry-gateway/internal/handler"
	"github.com/dcmon/telemetry-gateway/internal/metrics"
)

func setupRouter(telemetryHandler *handler.TelemetryHandler, collector *metrics.Collector) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", telemetryHandler.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/racks/power", telemetryHandler.Dataset("racks"))
		r.Get("/sensors", telemetryHandler.Dataset("sensors"))
	})

	r.Route("/status", func(r chi.Router) {
		r.Get("/breakers", telemetryHandler.BreakerStates)
		r.Get("/diagnose", telemetryHandler.Diagnose)
		r.Get("/metrics", collector.Handler())
	})

	return r
}
