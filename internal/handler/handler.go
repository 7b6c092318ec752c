package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dcmon/telemetry-gateway/internal/circuitbreaker"
	"github.com/dcmon/telemetry-gateway/internal/fallback"
	"github.com/dcmon/telemetry-gateway/internal/fetch"
	"github.com/dcmon/telemetry-gateway/internal/probe"
)

// Dataset binds one served dataset to its primary accessor and remote
// acquisition parameters.
type Dataset struct {
	Name    string
	Primary fallback.Accessor
	Request fetch.Request
	Policy  fetch.Policy
}

// TelemetryHandler serves telemetry datasets and the operational status
// surface.
type TelemetryHandler struct {
	logger      *slog.Logger
	coordinator *fallback.Coordinator
	registry    *circuitbreaker.Registry
	prober      *probe.Prober
	datasets    map[string]Dataset
}

func New(
	logger *slog.Logger,
	coordinator *fallback.Coordinator,
	registry *circuitbreaker.Registry,
	prober *probe.Prober,
	datasets []Dataset,
) *TelemetryHandler {
	byName := make(map[string]Dataset, len(datasets))
	for _, ds := range datasets {
		byName[ds.Name] = ds
	}

	return &TelemetryHandler{
		logger:      logger,
		coordinator: coordinator,
		registry:    registry,
		prober:      prober,
		datasets:    byName,
	}
}

// Dataset returns the handler serving one named dataset. The coordinator
// never faults, so this endpoint always answers 200 with a (possibly
// empty) record array.
func (h *TelemetryHandler) Dataset(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ds, ok := h.datasets[name]
		if !ok {
			http.Error(w, "unknown dataset", http.StatusNotFound)
			return
		}

		records := h.coordinator.Fetch(r.Context(), ds.Name, ds.Primary, ds.Request, ds.Policy)
		h.writeJSON(w, records)
	}
}

// BreakerStates exposes the circuit registry snapshot for the status UI.
func (h *TelemetryHandler) BreakerStates(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.registry.Snapshot())
}

// Diagnose runs an on-demand diagnostic probe against the url query
// parameter.
func (h *TelemetryHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return
	}

	report := h.prober.Diagnose(r.Context(), target)
	h.writeJSON(w, report)
}

// Healthz reports gateway liveness.
func (h *TelemetryHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

func (h *TelemetryHandler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response",
			slog.String("error", err.Error()))
	}
}
