package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quotegate/quotegate/internal/auth"
	"github.com/quotegate/quotegate/internal/mail"
	"github.com/quotegate/quotegate/internal/metrics"
)

// InvalidAPIKeyMessage is the body of every rejected request.
const InvalidAPIKeyMessage = "Invalid API_KEY."

// KeyChecker reports whether an API key was issued.
type KeyChecker interface {
	KeyIsValid(ctx context.Context, apiKey string) bool
}

// APIKeyConfig holds configuration for the API key gate.
type APIKeyConfig struct {
	Logger  *slog.Logger
	Checker KeyChecker
	Metrics metrics.Recorder
}

// apiKeyHolder lets the request logger see the key accepted further down
// the chain.
type apiKeyHolder struct {
	key string
}

const apiKeyHolderKey contextKey = "api_key_holder"

// RequireAPIKey rejects requests without an issued key in the API_KEY
// header with 403 and stores accepted keys in the request context.
func RequireAPIKey(cfg APIKeyConfig) func(http.Handler) http.Handler {
	recorder := cfg.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(mail.APIKeyHeader))

			reason := ""
			switch {
			case key == "":
				reason = "missing_key"
			case !auth.ValidateKeyFormat(key):
				reason = "invalid_format"
			case !cfg.Checker.KeyIsValid(r.Context(), key):
				reason = "unknown_key"
			}

			if reason != "" {
				recorder.IncAuthRejected()
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", reason),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeText(w, http.StatusForbidden, InvalidAPIKeyMessage)
				return
			}

			if holder, ok := r.Context().Value(apiKeyHolderKey).(*apiKeyHolder); ok {
				holder.key = key
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithAPIKey(r.Context(), key)))
		})
	}
}

// writeText writes a plain text response.
func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
