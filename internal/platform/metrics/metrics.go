package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the client gateway.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	TokenRefreshes  *prometheus.CounterVec
	RetryAttempts   prometheus.Counter
	SessionsCleared prometheus.Counter
}

// New creates and registers the gateway metrics on reg. Passing a dedicated
// registry keeps tests isolated from the default one.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "admitcrm_requests_total",
			Help: "Total API requests issued, labeled by method and status class",
		}, []string{"method", "class"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "admitcrm_request_duration_seconds",
			Help:    "Latency of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		TokenRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "admitcrm_token_refreshes_total",
			Help: "Total session refresh attempts, labeled by outcome",
		}, []string{"outcome"}),
		RetryAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "admitcrm_retry_attempts_total",
			Help: "Total retries performed by the retry helper",
		}),
		SessionsCleared: factory.NewCounter(prometheus.CounterOpts{
			Name: "admitcrm_sessions_cleared_total",
			Help: "Total forced logouts after unrecoverable refresh failures",
		}),
	}
}

// ObserveRequest records one completed request.
func (m *Metrics) ObserveRequest(method, class string, seconds float64) {
	m.Requests.WithLabelValues(method, class).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(seconds)
}

// IncrementTokenRefreshes records one refresh attempt with its outcome.
func (m *Metrics) IncrementTokenRefreshes(outcome string) {
	m.TokenRefreshes.WithLabelValues(outcome).Inc()
}

// IncrementRetryAttempts records one retry helper re-invocation.
func (m *Metrics) IncrementRetryAttempts() {
	m.RetryAttempts.Inc()
}

// IncrementSessionsCleared records one forced logout.
func (m *Metrics) IncrementSessionsCleared() {
	m.SessionsCleared.Inc()
}
