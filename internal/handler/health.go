package handler

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds the dependency checks of one readiness probe.
const readinessTimeout = 3 * time.Second

// HealthChecker defines an interface for checking service health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler manages health check endpoints.
type HealthHandler struct {
	store  HealthChecker
	ledger HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
// The ledger is optional; pass nil when it is not configured.
func NewHealthHandler(store, ledger HealthChecker) *HealthHandler {
	return &HealthHandler{
		store:  store,
		ledger: ledger,
	}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz is a liveness probe endpoint.
// It returns 200 if the server is running. No dependency checks.
//
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz is a readiness probe endpoint.
// Redis is required. Postgres only holds the audit ledger, so a failing
// ledger is reported without failing the probe.
//
// GET /readyz
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	checks := map[string]string{
		"redis":    probe(ctx, h.store),
		"postgres": probe(ctx, h.ledger),
	}

	status := "ok"
	statusCode := http.StatusOK
	switch {
	case checks["redis"] != "ok":
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	case checks["postgres"] != "ok" && checks["postgres"] != "not configured":
		status = "degraded"
	}

	writeJSON(w, statusCode, HealthResponse{Status: status, Checks: checks})
}

func probe(ctx context.Context, checker HealthChecker) string {
	if checker == nil {
		return "not configured"
	}
	if err := checker.Ping(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
