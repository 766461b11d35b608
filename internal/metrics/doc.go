// Usercenter - Interest-Tag User Profile Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/usercenter

/*
Package metrics provides Prometheus instrumentation for usercenter.

All collectors are registered on the default registry through promauto and
exposed at /metrics:

	curl http://localhost:8080/metrics

# Available Metrics

Matching:
  - usercenter_match_duration_seconds: ranker latency
  - usercenter_match_candidates_scanned: distances computed per match
  - usercenter_match_results: matches returned per request

Tag mutations:
  - usercenter_tag_mutations_total{outcome}: applied, quota_exceeded, store_failed
  - usercenter_quota_counter_errors_total{stage}: non-fatal counter/invalidation failures
  - usercenter_index_invalidations_total{result}: deleted, absent, failed

Storage:
  - usercenter_store_operations_total{operation,status}
  - usercenter_store_operation_duration_seconds{operation}
  - usercenter_cache_operations_total{operation,result}
  - circuit_breaker_* for the store breaker

HTTP:
  - usercenter_api_requests_total{method,endpoint,status}
  - usercenter_api_request_duration_seconds{method,endpoint}
  - usercenter_api_active_requests
*/
package metrics
