// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`
	AppName string `env:"APP_NAME" envDefault:"Stocks"`

	// Address users reach the service on; used in mailed links.
	ExternalAddress string `env:"EXTERNAL_ADDRESS" envDefault:"http://localhost:8080"`

	// Store (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Issuance ledger (PostgreSQL). Optional.
	DatabaseURL string `env:"DATABASE_URL"`

	// Mail. Without a SendGrid key mails are logged instead of sent.
	SendGridAPIKey   string `env:"SENDGRID_API_KEY"`
	SendGridEndpoint string `env:"SENDGRID_ENDPOINT" envDefault:"https://api.sendgrid.com/v3/mail/send"`
	MailMaxAttempts  int    `env:"MAIL_MAX_ATTEMPTS" envDefault:"3"`
	// MailSendTimeout bounds one send including retries. It must stay below
	// WriteTimeout so the caller still gets a response.
	MailSendTimeout time.Duration `env:"MAIL_SEND_TIMEOUT" envDefault:"10s"`
	FromEmail       string        `env:"FROM_EMAIL" envDefault:"no-reply@localhost"`

	// Credential lifecycle
	RegistrationTTL time.Duration `env:"REGISTRATION_TTL" envDefault:"600s"`

	// Market data provider
	AlphaVantageAPIKey      string        `env:"ALPHAVANTAGE_API_KEY"`
	AlphaVantageURL         string        `env:"ALPHAVANTAGE_URL" envDefault:"https://www.alphavantage.co"`
	ProviderRequestsPerMin  int           `env:"PROVIDER_REQUESTS_PER_MINUTE" envDefault:"5"`
	ProviderBurst           int           `env:"PROVIDER_BURST" envDefault:"1"`
	ProviderBreakerFailures int           `env:"PROVIDER_BREAKER_FAILURES" envDefault:"5"`
	ProviderBreakerCooldown time.Duration `env:"PROVIDER_BREAKER_COOLDOWN" envDefault:"30s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// Rate limiting of the quote route, per API key
	RateLimitQuoteEnabled   bool `env:"RATE_LIMIT_QUOTE_ENABLED" envDefault:"true"`
	RateLimitQuotePerMinute int  `env:"RATE_LIMIT_QUOTE_PER_MINUTE" envDefault:"2"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 64KB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"65536"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// LedgerEnabled reports whether issued keys are recorded in Postgres.
func (c *Config) LedgerEnabled() bool {
	return c.DatabaseURL != ""
}

// MailEnabled reports whether mails go to SendGrid.
func (c *Config) MailEnabled() bool {
	return c.SendGridAPIKey != ""
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// Validate checks values env tags cannot express.
func (c *Config) Validate() error {
	if c.RegistrationTTL <= 0 {
		return fmt.Errorf("REGISTRATION_TTL must be positive, got %s", c.RegistrationTTL)
	}
	if c.RateLimitQuotePerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_QUOTE_PER_MINUTE must not be negative, got %d", c.RateLimitQuotePerMinute)
	}
	if c.IsProduction() && !c.MailEnabled() {
		return fmt.Errorf("SENDGRID_API_KEY is required in production")
	}
	if c.MailEnabled() && (c.MailSendTimeout <= 0 || c.MailSendTimeout >= c.WriteTimeout) {
		return fmt.Errorf("MAIL_SEND_TIMEOUT must be positive and below WRITE_TIMEOUT (%s), got %s",
			c.WriteTimeout, c.MailSendTimeout)
	}
	return nil
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
