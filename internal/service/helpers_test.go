package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/quotegate/quotegate/internal/keylock"
	"github.com/quotegate/quotegate/internal/metrics"
	"github.com/quotegate/quotegate/internal/model"
	"github.com/quotegate/quotegate/internal/store"
	"github.com/quotegate/quotegate/internal/testutil"
)

var discardLogger = testutil.DiscardLogger()

// recordingNotifier captures lifecycle mails instead of sending them.
type recordingNotifier struct {
	mu          sync.Mutex
	validations []sentMail
	apiKeys     []sentMail

	validationErr error
	apiKeyErr     error
	apiKeyDelay   time.Duration
}

type sentMail struct {
	secret string
	user   model.User
}

func (n *recordingNotifier) SendValidation(ctx context.Context, token string, user model.User, expiresIn time.Duration) error {
	if n.validationErr != nil {
		return n.validationErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.validations = append(n.validations, sentMail{secret: token, user: user})
	return nil
}

func (n *recordingNotifier) SendAPIKey(ctx context.Context, apiKey string, user model.User) error {
	if n.apiKeyDelay > 0 {
		time.Sleep(n.apiKeyDelay)
	}
	if n.apiKeyErr != nil {
		return n.apiKeyErr
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.apiKeys = append(n.apiKeys, sentMail{secret: apiKey, user: user})
	return nil
}

func (n *recordingNotifier) lastToken(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.validations) == 0 {
		t.Fatal("no validation mail sent")
	}
	return n.validations[len(n.validations)-1].secret
}

func (n *recordingNotifier) lastAPIKey(t *testing.T) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.apiKeys) == 0 {
		t.Fatal("no api key mail sent")
	}
	return n.apiKeys[len(n.apiKeys)-1].secret
}

func (n *recordingNotifier) apiKeyCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.apiKeys)
}

type fakeLedger struct {
	mu      sync.Mutex
	records []*model.IssuedCredential
	err     error
}

func (l *fakeLedger) RecordIssuance(ctx context.Context, cred *model.IssuedCredential) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, cred)
	return l.err
}

// failingStore fails every operation.
type failingStore struct {
	calls int
}

var errStoreDown = errors.New("store unavailable")

func (s *failingStore) SetHash(context.Context, string, map[string]string, time.Duration) error {
	s.calls++
	return errStoreDown
}

func (s *failingStore) GetHash(context.Context, string) (map[string]string, bool, error) {
	s.calls++
	return nil, false, errStoreDown
}

func (s *failingStore) SetScalar(context.Context, string, string, time.Duration) error {
	s.calls++
	return errStoreDown
}

func (s *failingStore) SetScalarNX(context.Context, string, string, time.Duration) (bool, error) {
	s.calls++
	return false, errStoreDown
}

func (s *failingStore) Exists(context.Context, string) (bool, error) {
	s.calls++
	return false, errStoreDown
}

func (s *failingStore) Delete(context.Context, ...string) error {
	s.calls++
	return errStoreDown
}

type credentialFixture struct {
	svc      *CredentialService
	mr       *miniredis.Miniredis
	notifier *recordingNotifier
	ledger   *fakeLedger
	locks    *keylock.Registry
	metrics  *metrics.InMemoryRecorder
}

func newCredentialFixture(t *testing.T) *credentialFixture {
	t.Helper()

	client, mr := testutil.NewRedis(t)

	f := &credentialFixture{
		mr:       mr,
		notifier: &recordingNotifier{},
		ledger:   &fakeLedger{},
		locks:    keylock.New(),
		metrics:  metrics.NewInMemory(),
	}
	f.svc = NewCredentialService(store.NewWithClient(client), f.notifier, CredentialOptions{
		Locks:   f.locks,
		Ledger:  f.ledger,
		Metrics: f.metrics,
		Logger:  discardLogger,
	})
	return f
}
