package auth

import "context"

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// apiKeyContextKey is the context key for the authenticated API key.
	apiKeyContextKey contextKey = "api_key"
)

// ContextWithAPIKey adds the authenticated API key to the context.
func ContextWithAPIKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, apiKeyContextKey, key)
}

// APIKeyFromContext retrieves the authenticated API key from the context.
// Returns empty string if not authenticated.
func APIKeyFromContext(ctx context.Context) string {
	key, _ := ctx.Value(apiKeyContextKey).(string)
	return key
}
