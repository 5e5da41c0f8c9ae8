// Package metrics exposes Prometheus collectors for the API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covermap_http_requests_total",
			Help: "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covermap_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// UpgradesTotal counts upgrade submissions by outcome.
	UpgradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covermap_upgrades_total",
			Help: "Upgrade mutation submissions by outcome.",
		},
		[]string{"outcome"},
	)

	// RepoListQueriesTotal counts repository list fetches.
	RepoListQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "covermap_repo_list_queries_total",
			Help: "Repository list queries served.",
		},
	)

	// CacheOperationsTotal counts cache lookups by cache and result.
	CacheOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covermap_cache_operations_total",
			Help: "Cache lookups by cache name and result.",
		},
		[]string{"cache", "result"},
	)

	// TrialsExpiredTotal counts trials closed by the sweeper.
	TrialsExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "covermap_trials_expired_total",
			Help: "Trials marked expired by the sweeper.",
		},
	)
)

// Upgrade outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeValidated = "validation_rejected"
	OutcomePending   = "pending_verification"
	OutcomeFailed    = "gateway_failed"
)
