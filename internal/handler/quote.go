package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quotegate/quotegate/internal/apperr"
	"github.com/quotegate/quotegate/internal/model"
)

// QuoteService fetches normalized quotes.
type QuoteService interface {
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// QuoteHandler serves quotes to authenticated clients.
type QuoteHandler struct {
	service QuoteService
	logger  *slog.Logger
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(service QuoteService, logger *slog.Logger) *QuoteHandler {
	return &QuoteHandler{service: service, logger: logger}
}

// GetStock returns the quote for the form field symbol.
// POST /get_stock
func (h *QuoteHandler) GetStock(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, h.logger, r, apperr.Validation("Malformed form body."))
		return
	}

	quote, err := h.service.FetchQuote(r.Context(), r.PostForm.Get("symbol"))
	if err != nil {
		writeError(w, h.logger, r, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}
