// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package metrics

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelmatch_db_query_duration_seconds",
			Help:    "Duration of catalog and interaction queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmatch_db_query_errors_total",
			Help: "Total number of failed catalog and interaction queries",
		},
		[]string{"operation", "error_type"}, // error_type: timeout, canceled, error
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmatch_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelmatch_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reelmatch_api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	// Recommendation Metrics
	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reelmatch_recommendation_duration_seconds",
			Help:    "End-to-end recommendation latency by result source",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		},
		[]string{"source"}, // content, popularity, none
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelmatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmatch_circuit_breaker_requests_total",
			Help: "Requests passing through a circuit breaker by result",
		},
		[]string{"name", "result"}, // success, failure, rejected
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reelmatch_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Application Info
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reelmatch_app_info",
			Help: "Build information, always 1",
		},
		[]string{"version", "go_version"},
	)
)

// RecordDBQuery records a query's duration and, on failure, its error class.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, errorType(err)).Inc()
	}
}

// errorType maps an error onto a small label set to keep cardinality bounded.
func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

// RecordAPIRequest records one API request. route is the chi route pattern,
// not the raw path, so IDs do not become label values.
func RecordAPIRequest(method, route, status string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the active request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records the latency of a served recommendation.
func RecordRecommendation(source recommend.ResultSource, duration time.Duration) {
	RecommendationDuration.WithLabelValues(source.String()).Observe(duration.Seconds())
}

// SetAppInfo publishes the build version.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// EngineStats is implemented by recommend.Engine.
type EngineStats interface {
	GetMetrics() recommend.Metrics
}

// RegisterEngine exposes the engine's counters as Prometheus metrics read at
// scrape time. The engine keeps its own atomics so it works without a registry.
func RegisterEngine(reg prometheus.Registerer, engine EngineStats) error {
	counter := func(name, help string, read func(recommend.Metrics) int64) prometheus.Collector {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: name, Help: help},
			func() float64 { return float64(read(engine.GetMetrics())) },
		)
	}

	collectors := []prometheus.Collector{
		counter("reelmatch_recommend_requests_total", "Recommendation requests handled",
			func(m recommend.Metrics) int64 { return m.TotalRequests }),
		counter("reelmatch_recommend_content_results_total", "Results served from content similarity",
			func(m recommend.Metrics) int64 { return m.ContentResults }),
		counter("reelmatch_recommend_popularity_results_total", "Results served from the popularity fallback",
			func(m recommend.Metrics) int64 { return m.PopularityResults }),
		counter("reelmatch_recommend_empty_results_total", "Requests that returned no movies",
			func(m recommend.Metrics) int64 { return m.EmptyResults }),
		counter("reelmatch_similarity_cache_hits_total", "Similarity matrices loaded from cache",
			func(m recommend.Metrics) int64 { return m.CacheHits }),
		counter("reelmatch_similarity_cache_misses_total", "Similarity cache misses",
			func(m recommend.Metrics) int64 { return m.CacheMisses }),
		counter("reelmatch_similarity_cache_stale_hits_total", "Cached matrices served for a changed catalog",
			func(m recommend.Metrics) int64 { return m.StaleHits }),
		counter("reelmatch_similarity_matrix_builds_total", "Similarity matrices computed",
			func(m recommend.Metrics) int64 { return m.MatrixBuilds }),
		counter("reelmatch_recommend_errors_total", "Degraded dependency calls absorbed by the engine",
			func(m recommend.Metrics) int64 { return m.Errors }),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "reelmatch_similarity_matrix_last_build_seconds",
				Help: "Duration of the most recent similarity matrix build",
			},
			func() float64 { return engine.GetMetrics().LastBuildDuration.Seconds() },
		),
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}
