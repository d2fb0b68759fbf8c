package middleware

import (
	"context"
	"testing"

	"github.com/quotegate/quotegate/internal/auth"
	"github.com/quotegate/quotegate/internal/store"
)

// staticChecker accepts the keys mapped to true.
type staticChecker map[string]bool

func (c staticChecker) KeyIsValid(ctx context.Context, apiKey string) bool {
	return c[apiKey]
}

func issuedKey(t *testing.T) string {
	t.Helper()
	key, err := auth.GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}
	return key
}

// failingLimiter always errors.
type failingLimiter struct{}

func (failingLimiter) CheckRateLimit(context.Context, string, int, int) (*store.RateLimitResult, error) {
	return nil, context.DeadlineExceeded
}

type checkerFunc func(key string) bool

func (f checkerFunc) KeyIsValid(ctx context.Context, apiKey string) bool {
	return f(apiKey)
}
