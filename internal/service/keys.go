package service

import (
	"strings"

	"github.com/quotegate/quotegate/internal/auth"
)

// Keyspace prefixes. Each lifecycle record lives under its own prefix so
// an email, a validation token and an API key can never address the same
// record.
const (
	prefixEmail   = "email:"
	prefixPending = "pending:"
	prefixAPIKey  = "key:"
)

// emailSentinel is the value stored under an email claim.
const emailSentinel = "1"

func emailKey(email string) string {
	return prefixEmail + strings.ToLower(email)
}

func pendingKey(token string) string {
	return prefixPending + token
}

// apiKeyKey stores issued keys under their digest so a store dump does not
// expose bearer credentials.
func apiKeyKey(apiKey string) string {
	return prefixAPIKey + auth.Fingerprint(apiKey)
}
