// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/quotegate/quotegate/internal/apperr"
	"github.com/quotegate/quotegate/internal/auth"
	"github.com/quotegate/quotegate/internal/keylock"
	"github.com/quotegate/quotegate/internal/metrics"
	"github.com/quotegate/quotegate/internal/model"
)

// DefaultRegistrationTTL is how long a registration waits for validation.
const DefaultRegistrationTTL = 600 * time.Second

// Caller-facing messages.
const (
	MsgRequiredFields       = "Required fields: name, last_name, email."
	MsgAlreadyRegistered    = "User is already registered or has a pending validation."
	MsgValidationKeyMissing = "Validation key required."
	MsgValidationKeyUnknown = "Validation key not found."
	msgCreateUser           = "Error creating user."
	msgIssueKey             = "Error issuing API key."
)

// emailRegex must match the whole address.
var emailRegex = regexp.MustCompile(`^\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b$`)

// KVStore is the expiring key-value store backing the credential lifecycle.
type KVStore interface {
	SetHash(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	GetHash(ctx context.Context, key string) (map[string]string, bool, error)
	SetScalar(ctx context.Context, key, value string, ttl time.Duration) error
	SetScalarNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Notifier delivers lifecycle mails.
type Notifier interface {
	SendValidation(ctx context.Context, token string, user model.User, expiresIn time.Duration) error
	SendAPIKey(ctx context.Context, apiKey string, user model.User) error
}

// Ledger records issued credentials for auditing.
type Ledger interface {
	RecordIssuance(ctx context.Context, cred *model.IssuedCredential) error
}

// CredentialOptions holds the optional collaborators of a CredentialService.
type CredentialOptions struct {
	RegistrationTTL time.Duration
	Locks           *keylock.Registry
	Ledger          Ledger
	Metrics         metrics.Recorder
	Logger          *slog.Logger
}

// CredentialService moves registrants from a pending email to an issued
// API key.
type CredentialService struct {
	store    KVStore
	notifier Notifier
	ledger   Ledger
	locks    *keylock.Registry
	ttl      time.Duration
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(store KVStore, notifier Notifier, opts CredentialOptions) *CredentialService {
	if opts.RegistrationTTL <= 0 {
		opts.RegistrationTTL = DefaultRegistrationTTL
	}
	if opts.Locks == nil {
		opts.Locks = keylock.New()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &CredentialService{
		store:    store,
		notifier: notifier,
		ledger:   opts.Ledger,
		locks:    opts.Locks,
		ttl:      opts.RegistrationTTL,
		metrics:  opts.Metrics,
		logger:   opts.Logger,
	}
}

// RegistrationTTL returns the validation window.
func (s *CredentialService) RegistrationTTL() time.Duration {
	return s.ttl
}

// Register claims email and mails a validation link. The claim and the
// pending record both expire after the registration window.
func (s *CredentialService) Register(ctx context.Context, email, givenName, familyName string) error {
	user := model.User{
		Email:      strings.TrimSpace(email),
		GivenName:  strings.TrimSpace(givenName),
		FamilyName: strings.TrimSpace(familyName),
	}

	if user.Email == "" || user.GivenName == "" || user.FamilyName == "" {
		s.metrics.IncRegistration(metrics.ResultInvalid)
		return apperr.Validation(MsgRequiredFields)
	}
	if !emailRegex.MatchString(user.Email) {
		s.metrics.IncRegistration(metrics.ResultInvalid)
		return apperr.Validation("Invalid email address: " + user.Email + ".")
	}

	created, err := s.store.SetScalarNX(ctx, emailKey(user.Email), emailSentinel, s.ttl)
	if err != nil {
		return s.registerFailed(err, "claim email")
	}
	if !created {
		s.metrics.IncRegistration(metrics.ResultAlreadyRegistered)
		return apperr.AlreadyRegistered(MsgAlreadyRegistered)
	}

	token, err := auth.GenerateToken()
	if err != nil {
		return s.registerFailed(err, "generate token")
	}

	if err := s.store.SetHash(ctx, pendingKey(token), user.Fields(), s.ttl); err != nil {
		return s.registerFailed(err, "store pending user")
	}

	if err := s.notifier.SendValidation(ctx, token, user, s.ttl); err != nil {
		s.metrics.IncMailSent(metrics.MailValidation, metrics.ResultError)
		if !isDeliveryVerdict(err) {
			return s.registerFailed(err, "send validation mail")
		}
		s.logger.Warn("validation mail not accepted by provider",
			slog.String("email", user.Email),
			slog.Any("error", err),
		)
	} else {
		s.metrics.IncMailSent(metrics.MailValidation, metrics.ResultSuccess)
	}

	s.metrics.IncRegistration(metrics.ResultSuccess)
	s.logger.Info("registration pending validation",
		slog.String("email", user.Email),
		slog.Duration("ttl", s.ttl),
	)
	return nil
}

// Validate promotes the pending user behind token to an issued API key and
// mails the key. Concurrent calls with the same token are serialized; only
// the first one finds the pending record.
func (s *CredentialService) Validate(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		s.metrics.IncValidation(metrics.ResultInvalid)
		return apperr.Validation(MsgValidationKeyMissing)
	}

	release := s.locks.Acquire(token)
	defer release()

	if !auth.ValidateTokenFormat(token) {
		s.metrics.IncValidation(metrics.ResultNotFound)
		return apperr.NotFound(MsgValidationKeyUnknown)
	}

	fields, found, err := s.store.GetHash(ctx, pendingKey(token))
	if err != nil {
		return s.validateFailed(err, "load pending user")
	}
	if !found {
		s.metrics.IncValidation(metrics.ResultNotFound)
		return apperr.NotFound(MsgValidationKeyUnknown)
	}
	user := model.UserFromFields(fields)

	apiKey, err := auth.GenerateAPIKey()
	if err != nil {
		return s.validateFailed(err, "generate api key")
	}

	issuedAt := time.Now().UTC()
	record := user.Fields()
	record[model.FieldIssuedAt] = issuedAt.Format(time.RFC3339)
	if err := s.store.SetHash(ctx, apiKeyKey(apiKey), record, 0); err != nil {
		return s.validateFailed(err, "store issued key")
	}

	if err := s.notifier.SendAPIKey(ctx, apiKey, user); err != nil {
		s.metrics.IncMailSent(metrics.MailAPIKey, metrics.ResultError)
		if !isDeliveryVerdict(err) {
			// The key never left the process; withdraw it so the token can
			// be retried without leaving live keys behind.
			if delErr := s.store.Delete(ctx, apiKeyKey(apiKey)); delErr != nil {
				s.logger.Error("failed to withdraw unsent api key",
					slog.String("key_fingerprint", auth.ShortFingerprint(apiKey)),
					slog.Any("error", delErr),
				)
			}
			return s.validateFailed(err, "send api key mail")
		}
		s.logger.Warn("api key mail not accepted by provider",
			slog.String("email", user.Email),
			slog.Any("error", err),
		)
	} else {
		s.metrics.IncMailSent(metrics.MailAPIKey, metrics.ResultSuccess)
	}
	s.metrics.IncKeyIssued()

	s.recordIssuance(ctx, user, apiKey, issuedAt)

	if err := s.store.Delete(ctx, pendingKey(token)); err != nil {
		return s.validateFailed(err, "delete pending user")
	}
	// SET without an expiry clears the registration TTL, so the claim
	// becomes permanent.
	if err := s.store.SetScalar(ctx, emailKey(user.Email), emailSentinel, 0); err != nil {
		return s.validateFailed(err, "make email claim permanent")
	}

	s.metrics.IncValidation(metrics.ResultSuccess)
	s.logger.Info("api key issued",
		slog.String("email", user.Email),
		slog.String("key_fingerprint", auth.ShortFingerprint(apiKey)),
	)
	return nil
}

// KeyIsValid reports whether apiKey was issued. Malformed keys never reach
// the store, and store failures count as invalid.
func (s *CredentialService) KeyIsValid(ctx context.Context, apiKey string) bool {
	if !auth.ValidateKeyFormat(apiKey) {
		return false
	}

	exists, err := s.store.Exists(ctx, apiKeyKey(apiKey))
	if err != nil {
		s.logger.Error("api key lookup failed",
			slog.String("key_fingerprint", auth.ShortFingerprint(apiKey)),
			slog.Any("error", err),
		)
		return false
	}
	return exists
}

func (s *CredentialService) recordIssuance(ctx context.Context, user model.User, apiKey string, issuedAt time.Time) {
	if s.ledger == nil {
		return
	}
	cred := &model.IssuedCredential{
		ID:             ulid.Make().String(),
		Email:          user.Email,
		KeyFingerprint: auth.Fingerprint(apiKey),
		IssuedAt:       issuedAt,
	}
	if err := s.ledger.RecordIssuance(ctx, cred); err != nil {
		s.logger.Warn("failed to record issuance",
			slog.String("email", user.Email),
			slog.Any("error", err),
		)
	}
}

// deliveryVerdict is implemented by mail errors that carry the provider's
// answer to a delivered request.
type deliveryVerdict interface {
	DeliveryStatus() int
}

// isDeliveryVerdict reports whether err is the provider's delivery status.
// Delivery status is not acted upon; only transport faults fail a step.
func isDeliveryVerdict(err error) bool {
	var verdict deliveryVerdict
	return errors.As(err, &verdict)
}

func (s *CredentialService) registerFailed(err error, step string) error {
	s.metrics.IncRegistration(metrics.ResultError)
	s.logger.Error("registration failed", slog.String("step", step), slog.Any("error", err))
	return apperr.Internal(err, msgCreateUser)
}

func (s *CredentialService) validateFailed(err error, step string) error {
	s.metrics.IncValidation(metrics.ResultError)
	s.logger.Error("validation failed", slog.String("step", step), slog.Any("error", err))
	return apperr.Internal(err, msgIssueKey)
}
