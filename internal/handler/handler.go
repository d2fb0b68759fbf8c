// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/quotegate/quotegate/internal/apperr"
)

// Handler serves the routes that carry no domain logic.
type Handler struct {
	appName string
}

// New creates a new Handler instance.
func New(appName string) *Handler {
	return &Handler{appName: appName}
}

// Index reports that the service is running.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, h.appName+" is up and running.")
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusNotFound, "Resource not found.")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusMethodNotAllowed, "Method not allowed.")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeText writes a plain text response with the given status code.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// writeError maps an application error to its status and message.
// Internal failures never expose their cause.
func writeError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	status := apperr.Status(err)
	kind := apperr.KindOf(err)

	message := apperr.Message(err)
	if kind == apperr.KindUnknown {
		message = http.StatusText(http.StatusInternalServerError)
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("kind", kind.String()),
			slog.Any("error", err),
		)
	}

	writeText(w, status, message)
}
