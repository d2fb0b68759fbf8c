package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	Registrations           map[string]uint64
	Validations             map[string]uint64
	KeysIssued              uint64
	MailSent                map[string]uint64 // keyed by "kind/result"
	QuoteRequests           map[string]uint64
	ProviderDurationCount   uint64
	ProviderDurationTotalNs int64
	AuthRejected            uint64
	RateLimited             uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	mu            sync.Mutex
	registrations map[string]uint64
	validations   map[string]uint64
	mailSent      map[string]uint64
	quoteRequests map[string]uint64

	keysIssued              uint64
	providerDurationCount   uint64
	providerDurationTotalNs int64
	authRejected            uint64
	rateLimited             uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		registrations: make(map[string]uint64),
		validations:   make(map[string]uint64),
		mailSent:      make(map[string]uint64),
		quoteRequests: make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Registrations:           copyCounts(m.registrations),
		Validations:             copyCounts(m.validations),
		KeysIssued:              atomic.LoadUint64(&m.keysIssued),
		MailSent:                copyCounts(m.mailSent),
		QuoteRequests:           copyCounts(m.quoteRequests),
		ProviderDurationCount:   atomic.LoadUint64(&m.providerDurationCount),
		ProviderDurationTotalNs: atomic.LoadInt64(&m.providerDurationTotalNs),
		AuthRejected:            atomic.LoadUint64(&m.authRejected),
		RateLimited:             atomic.LoadUint64(&m.rateLimited),
	}
}

// IncRegistration increments the registration counter for result.
func (m *InMemoryRecorder) IncRegistration(result string) {
	m.inc(m.registrations, result)
}

// IncValidation increments the validation counter for result.
func (m *InMemoryRecorder) IncValidation(result string) {
	m.inc(m.validations, result)
}

// IncKeyIssued increments the issued key counter.
func (m *InMemoryRecorder) IncKeyIssued() {
	atomic.AddUint64(&m.keysIssued, 1)
}

// IncMailSent increments the mail counter for kind and result.
func (m *InMemoryRecorder) IncMailSent(kind, result string) {
	m.inc(m.mailSent, kind+"/"+result)
}

// IncQuoteRequest increments the quote counter for result.
func (m *InMemoryRecorder) IncQuoteRequest(result string) {
	m.inc(m.quoteRequests, result)
}

// ObserveProviderDuration records a provider call duration.
func (m *InMemoryRecorder) ObserveProviderDuration(duration time.Duration) {
	atomic.AddUint64(&m.providerDurationCount, 1)
	atomic.AddInt64(&m.providerDurationTotalNs, duration.Nanoseconds())
}

// IncAuthRejected increments the rejected API key counter.
func (m *InMemoryRecorder) IncAuthRejected() {
	atomic.AddUint64(&m.authRejected, 1)
}

// IncRateLimited increments the rate limited request counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

func (m *InMemoryRecorder) inc(counts map[string]uint64, label string) {
	m.mu.Lock()
	counts[label]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
