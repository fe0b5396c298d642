package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	RegistrationsTotal   *prometheus.CounterVec
	RegistrationDuration prometheus.Histogram
	LoginsTotal          *prometheus.CounterVec
	LoginDuration        prometheus.Histogram
	TokensIssued         prometheus.Counter
	AuthorizeTotal       *prometheus.CounterVec
	LockoutsTriggered    prometheus.Counter
	HTTPRequestDuration  *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests pass a fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_registrations_total",
			Help: "Registration attempts by outcome code (ok on success)",
		}, []string{"outcome"}),
		RegistrationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "medgate_registration_duration_seconds",
			Help:    "Registration latency including password hashing",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		LoginsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_logins_total",
			Help: "Login attempts by outcome code (ok on success)",
		}, []string{"outcome"}),
		LoginDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "medgate_login_duration_seconds",
			Help:    "Login latency including password verification",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		}),
		TokensIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "medgate_tokens_issued_total",
			Help: "Session tokens issued",
		}),
		AuthorizeTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medgate_authorize_total",
			Help: "Access guard decisions by outcome",
		}, []string{"outcome"}),
		LockoutsTriggered: f.NewCounter(prometheus.CounterOpts{
			Name: "medgate_auth_lockouts_triggered_total",
			Help: "Hard locks applied after repeated login failures",
		}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medgate_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) ObserveRegistration(outcome string, started time.Time) {
	m.RegistrationsTotal.WithLabelValues(outcome).Inc()
	m.RegistrationDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) ObserveLogin(outcome string, started time.Time) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
	m.LoginDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) IncrementTokensIssued() {
	m.TokensIssued.Inc()
}

func (m *Metrics) IncrementAuthorize(outcome string) {
	m.AuthorizeTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementLockouts() {
	m.LockoutsTriggered.Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
