// Package auth provides credential generation utilities.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/blake2b"
)

// Identifier formats:
//
//	validation token: 7a9x3k4f8d2e1b9c7a5f3d2e1b9c7a5f (32 hex chars)
//	API key:          qk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	APIKeyPrefix = "qk_"
	SecretBytes  = 16 // 128 bits of randomness per identifier
	SecretLen    = SecretBytes * 2
)

var (
	// ErrInvalidKeyFormat indicates the key format is invalid.
	ErrInvalidKeyFormat = errors.New("invalid API key format")

	keyFormatRegex   = regexp.MustCompile(`^qk_[a-f0-9]{32}$`)
	tokenFormatRegex = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// GenerateToken returns a new single-use validation token.
func GenerateToken() (string, error) {
	secret, err := randomHex(SecretBytes)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return secret, nil
}

// GenerateAPIKey returns a new plaintext API key.
// The plaintext is shown to the user once, by mail, and never stored.
func GenerateAPIKey() (string, error) {
	secret, err := randomHex(SecretBytes)
	if err != nil {
		return "", fmt.Errorf("generate api key: %w", err)
	}
	return APIKeyPrefix + secret, nil
}

// ParseAPIKey returns the secret part of key.
func ParseAPIKey(key string) (string, error) {
	if !keyFormatRegex.MatchString(key) {
		return "", ErrInvalidKeyFormat
	}
	return key[len(APIKeyPrefix):], nil
}

// ValidateKeyFormat checks if the key matches the expected format.
func ValidateKeyFormat(key string) bool {
	return keyFormatRegex.MatchString(key)
}

// ValidateTokenFormat checks if token looks like a validation token.
func ValidateTokenFormat(token string) bool {
	return tokenFormatRegex.MatchString(token)
}

// Fingerprint returns the BLAKE2b-256 digest of key, hex encoded.
// Issued keys are stored under their fingerprint so the store never holds
// plaintext bearer credentials.
func Fingerprint(key string) string {
	sum := blake2b.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ShortFingerprint returns the first 8 hex chars of the fingerprint for logs.
func ShortFingerprint(key string) string {
	return Fingerprint(key)[:8]
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
