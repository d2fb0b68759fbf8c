package auth

import (
	"context"
	"strings"
	"testing"
)

func TestGenerateAPIKey_Format(t *testing.T) {
	t.Parallel()

	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey failed: %v", err)
	}

	if !strings.HasPrefix(key, APIKeyPrefix) {
		t.Errorf("Key should start with %s, got: %s", APIKeyPrefix, key)
	}
	if len(key) != len(APIKeyPrefix)+SecretLen {
		t.Errorf("Key length = %d, want %d", len(key), len(APIKeyPrefix)+SecretLen)
	}
	if !ValidateKeyFormat(key) {
		t.Errorf("Generated key failed format validation: %s", key)
	}
}

func TestGenerateToken_Format(t *testing.T) {
	t.Parallel()

	token, err := GenerateToken()
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if !ValidateTokenFormat(token) {
		t.Errorf("Generated token failed format validation: %s", token)
	}
	// A validation token must never be accepted as an API key.
	if ValidateKeyFormat(token) {
		t.Errorf("Token %s must not pass API key validation", token)
	}
}

func TestGenerate_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		key, err := GenerateAPIKey()
		if err != nil {
			t.Fatalf("GenerateAPIKey failed: %v", err)
		}
		token, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken failed: %v", err)
		}
		if seen[key] || seen[token] {
			t.Fatalf("duplicate identifier generated at iteration %d", i)
		}
		seen[key] = true
		seen[token] = true
	}
}

func TestParseAPIKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"valid", "qk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", false},
		{"empty", "", true},
		{"missing prefix", "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", true},
		{"uppercase hex", "qk_4F8D2E1B9C7A5F3D2E1B9C7A5F3D2E1B", true},
		{"too short", "qk_4f8d2e1b", true},
		{"too long", "qk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b00", true},
		{"wrong prefix", "pk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			secret, err := ParseAPIKey(tt.key)
			if tt.wantErr {
				if err != ErrInvalidKeyFormat {
					t.Errorf("expected ErrInvalidKeyFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if secret != "4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b" {
				t.Errorf("unexpected secret: %s", secret)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	key := "qk_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b"

	fp := Fingerprint(key)
	if len(fp) != 64 {
		t.Errorf("Fingerprint length = %d, want 64", len(fp))
	}
	if fp != Fingerprint(key) {
		t.Error("Fingerprint should be deterministic")
	}
	if strings.Contains(fp, key[len(APIKeyPrefix):]) {
		t.Error("Fingerprint must not contain the secret")
	}
	if fp == Fingerprint("qk_00000000000000000000000000000000") {
		t.Error("Different keys should produce different fingerprints")
	}
	if ShortFingerprint(key) != fp[:8] {
		t.Error("ShortFingerprint should be the fingerprint prefix")
	}
}

func TestAPIKeyContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := APIKeyFromContext(ctx); got != "" {
		t.Errorf("expected empty key, got %q", got)
	}

	ctx = ContextWithAPIKey(ctx, "qk_abc")
	if got := APIKeyFromContext(ctx); got != "qk_abc" {
		t.Errorf("APIKeyFromContext() = %q", got)
	}
}
