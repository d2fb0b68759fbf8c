package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncRegistration is a no-op.
func (n *NoopRecorder) IncRegistration(result string) {}

// IncValidation is a no-op.
func (n *NoopRecorder) IncValidation(result string) {}

// IncKeyIssued is a no-op.
func (n *NoopRecorder) IncKeyIssued() {}

// IncMailSent is a no-op.
func (n *NoopRecorder) IncMailSent(kind, result string) {}

// IncQuoteRequest is a no-op.
func (n *NoopRecorder) IncQuoteRequest(result string) {}

// ObserveProviderDuration is a no-op.
func (n *NoopRecorder) ObserveProviderDuration(duration time.Duration) {}

// IncAuthRejected is a no-op.
func (n *NoopRecorder) IncAuthRejected() {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}
