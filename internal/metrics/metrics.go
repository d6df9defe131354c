// Package metrics defines the Prometheus collectors exported at /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SignInsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sign_ins_total",
			Help: "Total number of sign-in attempts.",
		},
		[]string{"result"},
	)

	SessionsRevokedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_revoked_total",
			Help: "Total number of session revocation attempts by outcome.",
		},
		[]string{"result"},
	)

	SessionsSweptTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sessions_swept_total",
		Help: "Total number of expired sessions deleted by the sweeper.",
	})

	SessionCacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_cache_lookups_total",
			Help: "Session cache lookups by outcome (hit, miss, error).",
		},
		[]string{"result"},
	)
)

// MustRegister registers every collector with reg, adding a constant service label.
// Collectors work unregistered, so tests and tools that never call this still count.
func MustRegister(reg prometheus.Registerer, serviceName string) {
	prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, reg).MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		SignInsTotal,
		SessionsRevokedTotal,
		SessionsSweptTotal,
		SessionCacheLookupsTotal,
	)
}
