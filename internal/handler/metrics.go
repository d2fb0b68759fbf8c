package handler

import (
	"net/http"
)

// MetricsHandler exposes metrics in the Prometheus exposition format.
type MetricsHandler struct {
	exporter http.Handler
}

// NewMetricsHandler creates a MetricsHandler serving exporter.
// A nil exporter makes the endpoint report 503.
func NewMetricsHandler(exporter http.Handler) *MetricsHandler {
	return &MetricsHandler{exporter: exporter}
}

// Metrics serves the current metrics.
// GET /metrics
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeText(w, http.StatusServiceUnavailable, "Metrics are not enabled.")
		return
	}
	h.exporter.ServeHTTP(w, r)
}
