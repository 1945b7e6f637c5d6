package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RepositoryOps counts repository units of work by entity, operation and outcome.
	RepositoryOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_repository_operations_total",
			Help: "The total number of repository operations.",
		},
		[]string{"entity", "operation", "outcome"},
	)

	// RepositoryDuration is a histogram of unit-of-work latency.
	RepositoryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "users_repository_duration_seconds",
			Help:    "A histogram of repository operation duration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"entity", "operation"},
	)

	// AdminLogins counts admin console login attempts by result.
	AdminLogins = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_admin_logins_total",
			Help: "The total number of admin login attempts.",
		},
		[]string{"result"},
	)

	// SessionsRevoked counts sessions dropped on re-check.
	SessionsRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "users_admin_sessions_revoked_total",
			Help: "Sessions cleared because the admin was missing or inactive.",
		},
	)

	// HTTPRequests counts handled requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_http_requests_total",
			Help: "The total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	// StoredFiles counts uploads written to storage containers.
	StoredFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "users_storage_files_stored_total",
			Help: "The total number of files written to storage.",
		},
		[]string{"container"},
	)
)

// ObserveRepository records one unit of work.
func ObserveRepository(entity, operation string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RepositoryOps.WithLabelValues(entity, operation, outcome).Inc()
	RepositoryDuration.WithLabelValues(entity, operation).Observe(time.Since(start).Seconds())
}
