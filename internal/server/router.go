package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/quotegate/quotegate/internal/handler"
	"github.com/quotegate/quotegate/internal/metrics"
	"github.com/quotegate/quotegate/internal/middleware"
)

// RouterDeps holds everything the router wires together.
type RouterDeps struct {
	AppName string
	Logger  *slog.Logger
	Metrics metrics.Recorder
	// MetricsExporter serves /metrics. Nil disables the endpoint.
	MetricsExporter http.Handler

	Credentials handler.CredentialService
	Quotes      handler.QuoteService
	KeyChecker  middleware.KeyChecker
	RateLimiter middleware.RateLimiter

	Store  handler.HealthChecker
	Ledger handler.HealthChecker

	IsDevelopment      bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
	RateLimitEnabled   bool
	QuotesPerMinute    int
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	h := handler.New(deps.AppName)
	healthHandler := handler.NewHealthHandler(deps.Store, deps.Ledger)
	metricsHandler := handler.NewMetricsHandler(deps.MetricsExporter)
	credentialHandler := handler.NewCredentialHandler(deps.Credentials, deps.Logger)
	quoteHandler := handler.NewQuoteHandler(deps.Quotes, deps.Logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = deps.CORSAllowedOrigins

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: deps.IsDevelopment}))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(deps.MaxRequestBodySize))

	// Probes and metrics
	r.Get("/", h.Index)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	r.Get("/metrics", metricsHandler.Metrics)

	// Credential lifecycle
	r.Get("/register", credentialHandler.Register)
	r.Get("/validate", credentialHandler.Validate)

	// Quotes require an issued key and are limited per key.
	r.With(
		middleware.RequireAPIKey(middleware.APIKeyConfig{
			Logger:  deps.Logger,
			Checker: deps.KeyChecker,
			Metrics: recorder,
		}),
		middleware.RateLimitQuote(middleware.RateLimitConfig{
			Logger:    deps.Logger,
			Limiter:   deps.RateLimiter,
			Metrics:   recorder,
			Enabled:   deps.RateLimitEnabled,
			PerMinute: deps.QuotesPerMinute,
		}),
	).Post("/get_stock", quoteHandler.GetStock)

	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
