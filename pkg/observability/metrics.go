// Package observability exposes Prometheus metrics for the chat client and
// a small HTTP server to serve them alongside a health endpoint.
package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Turn metrics
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainchat_turns_total",
			Help: "Total number of completed turns",
		},
		[]string{"domain", "status"},
	)

	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "domainchat_backend_request_duration_seconds",
			Help:    "Backend round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	// Session metrics
	sessionResetsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "domainchat_session_resets_total",
			Help: "Total number of session resets",
		},
		[]string{"cause"},
	)

	historyLength = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "domainchat_history_length",
			Help: "Number of turns in the current session history",
		},
	)

	initOnce sync.Once
)

// InitMetrics registers the metrics with the default registry. Safe to call
// more than once.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			turnsTotal,
			backendRequestDuration,
			sessionResetsTotal,
			historyLength,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordTurn records a completed turn. Status is "ok", "error", or "stale".
func RecordTurn(domain, status string) {
	turnsTotal.WithLabelValues(domain, status).Inc()
}

// RecordBackendRequest records one backend round-trip.
func RecordBackendRequest(model string, duration time.Duration) {
	backendRequestDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordSessionReset records a session reset. Cause is "clear" or
// "domain_change".
func RecordSessionReset(cause string) {
	sessionResetsTotal.WithLabelValues(cause).Inc()
}

// SetHistoryLength sets the history length gauge.
func SetHistoryLength(n int) {
	historyLength.Set(float64(n))
}
