// Package main is the entrypoint for the quote gateway API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/quotegate/quotegate/internal/config"
	"github.com/quotegate/quotegate/internal/handler"
	"github.com/quotegate/quotegate/internal/keylock"
	"github.com/quotegate/quotegate/internal/mail"
	"github.com/quotegate/quotegate/internal/marketdata"
	"github.com/quotegate/quotegate/internal/metrics"
	"github.com/quotegate/quotegate/internal/repository"
	"github.com/quotegate/quotegate/internal/server"
	"github.com/quotegate/quotegate/internal/service"
	"github.com/quotegate/quotegate/internal/store"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	st, err := store.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error(
			"failed to connect to Redis",
			slog.String("error", sanitizeError(err, cfg.RedisURL)),
			slog.String("redis_url", redactURL(cfg.RedisURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to Redis")

	// The issuance ledger is optional.
	var (
		ledger       service.Ledger
		ledgerHealth handler.HealthChecker
		repo         *repository.Repository
	)
	if cfg.LedgerEnabled() {
		repo, err = repository.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			_ = st.Close()
			os.Exit(1)
		}
		if err := repo.Migrate(ctx); err != nil {
			logger.Error("failed to apply migrations", slog.String("error", sanitizeError(err, cfg.DatabaseURL)))
			repo.Close()
			_ = st.Close()
			os.Exit(1)
		}
		ledger, ledgerHealth = repo, repo
		logger.Info("connected to database")
	} else {
		logger.Warn("DATABASE_URL not set, issuance ledger disabled")
	}

	var sender mail.Sender
	if cfg.MailEnabled() {
		sender = mail.NewRetryingSender(
			mail.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridEndpoint, mail.NewHTTPClient()),
			cfg.MailMaxAttempts,
			cfg.MailSendTimeout,
			logger,
		)
	} else {
		logger.Warn("SENDGRID_API_KEY not set, mail is written to the log")
		sender = mail.NewLogSender(logger)
	}
	dispatcher := mail.NewDispatcher(mail.DispatcherConfig{
		ApplicationName: cfg.AppName,
		ExternalAddress: cfg.ExternalAddress,
		From:            cfg.FromEmail,
	}, sender)

	recorder := metrics.NewPrometheus()

	credentials := service.NewCredentialService(st, dispatcher, service.CredentialOptions{
		RegistrationTTL: cfg.RegistrationTTL,
		Locks:           keylock.New(),
		Ledger:          ledger,
		Metrics:         recorder,
		Logger:          logger,
	})

	provider := marketdata.NewClient(marketdata.Config{
		BaseURL:           cfg.AlphaVantageURL,
		APIKey:            cfg.AlphaVantageAPIKey,
		RequestsPerMinute: cfg.ProviderRequestsPerMin,
		Burst:             cfg.ProviderBurst,
		BreakerFailures:   cfg.ProviderBreakerFailures,
		BreakerCooldown:   cfg.ProviderBreakerCooldown,
		Logger:            logger,
	})
	quotes := service.NewQuoteService(provider, recorder, logger)

	router := server.NewRouter(server.RouterDeps{
		AppName:            cfg.AppName,
		Logger:             logger,
		Metrics:            recorder,
		MetricsExporter:    recorder.Handler(),
		Credentials:        credentials,
		Quotes:             quotes,
		KeyChecker:         credentials,
		RateLimiter:        st,
		Store:              st,
		Ledger:             ledgerHealth,
		IsDevelopment:      cfg.IsDevelopment(),
		CORSAllowedOrigins: cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RateLimitEnabled:   cfg.RateLimitQuoteEnabled,
		QuotesPerMinute:    cfg.RateLimitQuotePerMinute,
	})

	srv := server.New(router, server.Config{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("redis", func(ctx context.Context) error {
		return st.Close()
	})
	if repo != nil {
		srv.OnShutdown("postgres", func(ctx context.Context) error {
			repo.Close()
			return nil
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"external_address", cfg.ExternalAddress,
		"env", cfg.AppEnv,
		"registration_ttl", cfg.RegistrationTTL,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With(slog.String("app", cfg.AppName))
	slog.SetDefault(logger)

	return logger
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		if username := parsed.User.Username(); username != "" {
			parsed.User = url.User(username)
		} else {
			parsed.User = url.User("redacted")
		}
	}
	q := parsed.Query()
	if q.Has("password") {
		q.Set("password", "redacted")
		parsed.RawQuery = q.Encode()
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
