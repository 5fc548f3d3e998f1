// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package api provides the ReelMatch HTTP API using the Chi router.

# Endpoints

	GET    /health                                 database reachability
	GET    /metrics                                Prometheus metrics
	GET    /api/v1/recommendations?userId=42       recommendations for a stored user
	GET    /api/v1/recommendations?liked=1,2,3     recommendations for an explicit liked set
	GET    /api/v1/movies                          full catalog
	GET    /api/v1/movies/popular?k=10             most liked movies
	GET    /api/v1/movies/{id}/similar?k=5         nearest neighbours of one movie
	POST   /api/v1/users/{id}/likes/{movieId}      record a like
	DELETE /api/v1/users/{id}/likes/{movieId}      remove a like
	GET    /api/v1/similarity/status               engine counters, config, cache entry
	POST   /api/v1/similarity/rebuild              forced matrix recompute (throttled)
	DELETE /api/v1/similarity/cache                drop the persisted matrix

# Response Format

Every response uses the same envelope:

	{"status":"success","data":[...],"metadata":{"timestamp":"...","request_id":"..."}}
	{"status":"error","data":null,"error":{"code":"...","message":"..."},"metadata":{...}}

The recommendations endpoint always returns an array in data, empty when no
recommendation could be produced, including after a validation error.
Upstream failures are reported in metadata.degraded with status 200.

# Middleware

Requests pass through request ID propagation (X-Request-ID), real IP
extraction, panic recovery, CORS (go-chi/cors), per-IP rate limiting
(go-chi/httprate) and Prometheus instrumentation keyed by route pattern.
*/
package api
