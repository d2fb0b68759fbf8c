package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "quotegate"

// PrometheusRecorder exports metrics on a private Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	registrations    *prometheus.CounterVec
	validations      *prometheus.CounterVec
	keysIssued       prometheus.Counter
	mailSent         *prometheus.CounterVec
	quoteRequests    *prometheus.CounterVec
	providerDuration prometheus.Histogram
	authRejected     prometheus.Counter
	rateLimited      prometheus.Counter
}

// NewPrometheus returns a Recorder backed by a new Prometheus registry,
// including Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credentials",
			Name:      "registrations_total",
			Help:      "Total number of registration attempts by result",
		}, []string{"result"}),
		validations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credentials",
			Name:      "validations_total",
			Help:      "Total number of validation attempts by result",
		}, []string{"result"}),
		keysIssued: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "credentials",
			Name:      "keys_issued_total",
			Help:      "Total number of API keys issued",
		}),
		mailSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mail",
			Name:      "sent_total",
			Help:      "Total number of mails handed to the provider by kind and result",
		}, []string{"kind", "result"}),
		quoteRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "requests_total",
			Help:      "Total number of quote requests by result",
		}, []string{"result"}),
		providerDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "quotes",
			Name:      "provider_duration_seconds",
			Help:      "Duration of market data provider calls in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		authRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "auth_rejected_total",
			Help:      "Total number of requests rejected for a missing or invalid API key",
		}),
		rateLimited: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		}),
	}
}

// Gatherer returns the registry backing the recorder.
func (p *PrometheusRecorder) Gatherer() prometheus.Gatherer {
	return p.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// IncRegistration increments the registration counter for result.
func (p *PrometheusRecorder) IncRegistration(result string) {
	p.registrations.WithLabelValues(result).Inc()
}

// IncValidation increments the validation counter for result.
func (p *PrometheusRecorder) IncValidation(result string) {
	p.validations.WithLabelValues(result).Inc()
}

// IncKeyIssued increments the issued key counter.
func (p *PrometheusRecorder) IncKeyIssued() {
	p.keysIssued.Inc()
}

// IncMailSent increments the mail counter.
func (p *PrometheusRecorder) IncMailSent(kind, result string) {
	p.mailSent.WithLabelValues(kind, result).Inc()
}

// IncQuoteRequest increments the quote counter for result.
func (p *PrometheusRecorder) IncQuoteRequest(result string) {
	p.quoteRequests.WithLabelValues(result).Inc()
}

// ObserveProviderDuration records a provider call duration.
func (p *PrometheusRecorder) ObserveProviderDuration(duration time.Duration) {
	p.providerDuration.Observe(duration.Seconds())
}

// IncAuthRejected increments the rejected API key counter.
func (p *PrometheusRecorder) IncAuthRejected() {
	p.authRejected.Inc()
}

// IncRateLimited increments the rate limited request counter.
func (p *PrometheusRecorder) IncRateLimited() {
	p.rateLimited.Inc()
}
