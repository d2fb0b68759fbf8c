// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Result labels.
const (
	ResultSuccess           = "success"
	ResultInvalid           = "invalid"
	ResultAlreadyRegistered = "already_registered"
	ResultNotFound          = "not_found"
	ResultProviderError     = "provider_error"
	ResultError             = "error"
)

// Mail kinds.
const (
	MailValidation = "validation"
	MailAPIKey     = "api_key"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Credential lifecycle metrics
	IncRegistration(result string)
	IncValidation(result string)
	IncKeyIssued()
	IncMailSent(kind, result string)

	// Quote metrics
	IncQuoteRequest(result string)
	ObserveProviderDuration(duration time.Duration)

	// Boundary metrics
	IncAuthRejected()
	IncRateLimited()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
