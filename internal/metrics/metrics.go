// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Matching
	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "usercenter_match_duration_seconds",
			Help:    "Duration of similarity ranking in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MatchCandidatesScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "usercenter_match_candidates_scanned",
			Help:    "Number of candidates whose distance was computed per match",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)

	MatchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "usercenter_match_results",
			Help:    "Number of matches returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
	)

	// Tag mutations
	TagMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_tag_mutations_total",
			Help: "Guarded tag mutations by outcome",
		},
		[]string{"outcome"}, // applied, quota_exceeded, store_failed, cache_failed
	)

	QuotaCounterErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_quota_counter_errors_total",
			Help: "Non-fatal rate counter failures after a committed mutation",
		},
		[]string{"stage"}, // create, increment, invalidate, notify
	)

	IndexInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_index_invalidations_total",
			Help: "Dependent index cache invalidation attempts by result",
		},
		[]string{"result"}, // deleted, absent, failed
	)

	ProfileUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_profile_updates_total",
			Help: "Profile update requests by route and result code",
		},
		[]string{"route", "code"},
	)

	// Storage
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_store_operations_total",
			Help: "User store operations by status",
		},
		[]string{"operation", "status"},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "usercenter_store_operation_duration_seconds",
			Help:    "Duration of user store operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_cache_operations_total",
			Help: "Shared cache operations by result",
		},
		[]string{"operation", "result"}, // result: hit, miss, ok, error
	)

	// Circuit Breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Authorization
	AuthzDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_authz_decisions_total",
			Help: "Authorization decisions by result and cache use",
		},
		[]string{"result", "cached"},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_events_published_total",
			Help: "Domain events published by topic and status",
		},
		[]string{"topic", "status"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_events_consumed_total",
			Help: "Domain events consumed by topic",
		},
		[]string{"topic"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "usercenter_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "usercenter_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "usercenter_api_active_requests",
			Help: "Number of API requests currently being processed",
		},
	)

	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "usercenter_app_info",
			Help: "Application build information",
		},
		[]string{"version", "go_version"},
	)
)

// RecordMatch records one ranking pass.
func RecordMatch(duration time.Duration, scanned, returned int) {
	MatchDuration.Observe(duration.Seconds())
	MatchCandidatesScanned.Observe(float64(scanned))
	MatchResults.Observe(float64(returned))
}

// RecordTagMutation records the outcome of a guarded tag mutation.
func RecordTagMutation(outcome string) {
	TagMutations.WithLabelValues(outcome).Inc()
}

// RecordQuotaCounterError records a non-fatal failure after a committed mutation.
func RecordQuotaCounterError(stage string) {
	QuotaCounterErrors.WithLabelValues(stage).Inc()
}

// RecordIndexInvalidation records an invalidation attempt.
func RecordIndexInvalidation(result string) {
	IndexInvalidations.WithLabelValues(result).Inc()
}

// RecordProfileUpdate records a profile update request by route and result code.
func RecordProfileUpdate(route, code string) {
	ProfileUpdates.WithLabelValues(route, code).Inc()
}

// RecordStoreOperation records a user store call.
func RecordStoreOperation(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	StoreOperations.WithLabelValues(operation, status).Inc()
	StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCacheOperation records a shared cache call.
func RecordCacheOperation(operation, result string) {
	CacheOperations.WithLabelValues(operation, result).Inc()
}

// RecordAuthzDecision records an authorization decision.
func RecordAuthzDecision(allowed, cached bool) {
	result := "deny"
	if allowed {
		result = "allow"
	}
	c := "false"
	if cached {
		c = "true"
	}
	AuthzDecisions.WithLabelValues(result, c).Inc()
}

// RecordEventPublished records a publish attempt.
func RecordEventPublished(topic string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EventsPublished.WithLabelValues(topic, status).Inc()
}

// RecordEventConsumed records a consumed message.
func RecordEventConsumed(topic string) {
	EventsConsumed.WithLabelValues(topic).Inc()
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
