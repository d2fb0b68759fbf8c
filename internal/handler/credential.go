package handler

import (
	"context"
	"log/slog"
	"net/http"
)

// CredentialService is the credential lifecycle used by the handlers.
type CredentialService interface {
	Register(ctx context.Context, email, givenName, familyName string) error
	Validate(ctx context.Context, token string) error
}

// CredentialHandler handles registration and validation.
type CredentialHandler struct {
	service CredentialService
	logger  *slog.Logger
}

// NewCredentialHandler creates a new CredentialHandler.
func NewCredentialHandler(service CredentialService, logger *slog.Logger) *CredentialHandler {
	return &CredentialHandler{service: service, logger: logger}
}

// Register starts a registration and mails the validation link.
// GET /register?email=&name=&last_name=
func (h *CredentialHandler) Register(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := q.Get("email")

	if err := h.service.Register(r.Context(), email, q.Get("name"), q.Get("last_name")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	writeText(w, http.StatusOK, "A validation email has been sent to "+email+
		". Please follow the instructions to get your API key.")
}

// Validate consumes a validation token and mails the API key.
// GET /validate?id=
func (h *CredentialHandler) Validate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Validate(r.Context(), r.URL.Query().Get("id")); err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	writeText(w, http.StatusOK, "Your API key has been sent to your email address.")
}
