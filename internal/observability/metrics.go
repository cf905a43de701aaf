package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Auth metrics
	AuthValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_validations_total",
			Help: "Credential validation outcomes, labeled by failure tag or success",
		},
		[]string{"outcome"},
	)

	SessionRotationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "auth_session_rotations_total",
			Help: "Session pairs replaced after successful validation",
		},
	)

	DeferredDeletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_deferred_deletions_total",
			Help: "Outcomes of deferred retired-session deletions",
		},
		[]string{"kind", "result"},
	)

	SessionsIssuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_sessions_issued_total",
			Help: "Session pairs minted by the issuer",
		},
		[]string{"trigger"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "table"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		},
	)
)
