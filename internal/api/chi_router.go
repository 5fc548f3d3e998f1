// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Rebuild endpoint budget per client IP, on top of the engine's own throttle.
const (
	rebuildRateLimitRequests = 5
	rebuildRateLimitWindow   = time.Minute
)

// Router wires handlers and middleware into a Chi router.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
	timeout    time.Duration
}

// NewRouter creates a router. A zero timeout disables the per-request deadline.
func NewRouter(handler *Handler, mw *ChiMiddleware, timeout time.Duration) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, middleware: mw, timeout: timeout}
}

// SetupChi builds the HTTP handler.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(PrometheusMetrics())
	r.Use(AccessLog())
	r.Use(router.middleware.CORS())
	r.Use(chimiddleware.Compress(5, "application/json"))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusMethodNotAllowed, ErrCodeBadRequest, "Method not allowed", nil)
	})

	h := router.handler

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		if router.timeout > 0 {
			r.Use(chimiddleware.Timeout(router.timeout))
		}

		r.Get("/recommendations", h.Recommendations)

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", h.Movies)
			r.Get("/popular", h.Popular)
			r.Get("/{id}/similar", h.Similar)
		})

		r.Route("/users/{id}/likes/{movieId}", func(r chi.Router) {
			r.Post("/", h.Like)
			r.Delete("/", h.Unlike)
		})

		r.Route("/similarity", func(r chi.Router) {
			r.Get("/status", h.Status)
			r.With(router.middleware.RateLimitStrict(rebuildRateLimitRequests, rebuildRateLimitWindow)).
				Post("/rebuild", h.Rebuild)
			r.Delete("/cache", h.ClearCache)
		})
	})

	return r
}
