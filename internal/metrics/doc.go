// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package metrics provides Prometheus instrumentation for ReelMatch.

Metrics are exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

Database:
  - reelmatch_db_query_duration_seconds (histogram, labels: operation)
  - reelmatch_db_query_errors_total (counter, labels: operation, error_type)

API:
  - reelmatch_api_requests_total (counter, labels: method, route, status)
  - reelmatch_api_request_duration_seconds (histogram, labels: method, route)
  - reelmatch_api_active_requests (gauge)

Recommendations:
  - reelmatch_recommendation_duration_seconds (histogram, labels: source)
  - reelmatch_recommend_*_total and reelmatch_similarity_cache_*_total,
    read from the engine's counters at scrape time (RegisterEngine)
  - reelmatch_similarity_matrix_last_build_seconds (gauge)

Circuit breaker:
  - reelmatch_circuit_breaker_state (gauge, 0=closed, 1=half-open, 2=open)
  - reelmatch_circuit_breaker_requests_total (labels: name, result)
  - reelmatch_circuit_breaker_transitions_total (labels: name, from, to)

# Usage

	metrics.RecordDBQuery("fetch_all_movies", time.Since(start), err)
	metrics.RecordRecommendation(result.Source, elapsed)

	if err := metrics.RegisterEngine(prometheus.DefaultRegisterer, engine); err != nil {
	    return err
	}
*/
package metrics
