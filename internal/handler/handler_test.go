package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quotegate/quotegate/internal/apperr"
	"github.com/quotegate/quotegate/internal/testutil"
)

func TestHandler_Index(t *testing.T) {
	h := New("Stocks")

	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "Stocks is up and running." {
		t.Errorf("unexpected body: %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain, got %s", ct)
	}
}

func TestHandler_NotFound(t *testing.T) {
	h := New("Stocks")

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nonexistent", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rec.Code)
	}
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := New("Stocks")

	rec := httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", rec.Code)
	}
}

func TestWriteError(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:6379: connection refused")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"validation", apperr.Validation("Symbol is required."), http.StatusBadRequest, "Symbol is required."},
		{"already_registered", apperr.AlreadyRegistered("taken"), http.StatusConflict, "taken"},
		{"not_found", apperr.NotFound("Validation key not found."), http.StatusNotFound, "Validation key not found."},
		{"provider", apperr.Provider(cause, "Error retrieving data from provider."), http.StatusBadGateway, "Error retrieving data from provider."},
		{"internal", apperr.Internal(cause, "Error creating user."), http.StatusInternalServerError, "Error creating user."},
		{"wrapped", fmt.Errorf("outer: %w", apperr.NotFound("gone")), http.StatusNotFound, "gone"},
		{"plain", cause, http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, testutil.DiscardLogger(), httptest.NewRequest(http.MethodGet, "/", nil), tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), "10.0.0.1") {
				t.Error("response leaks the internal cause")
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMetricsHandler(nil).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503 without exporter, got %d", rec.Code)
	}

	exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("quotegate_up 1\n"))
	})
	rec = httptest.NewRecorder()
	NewMetricsHandler(exporter).Metrics(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "quotegate_up 1\n" {
		t.Errorf("unexpected exporter response: %d %q", rec.Code, rec.Body.String())
	}
}
