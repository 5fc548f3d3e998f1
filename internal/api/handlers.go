// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/recommend/storage"
)

// Recommender is the engine surface used by the handlers.
type Recommender interface {
	RecommendForUser(ctx context.Context, userID int) (*recommend.Result, error)
	RecommendForLiked(ctx context.Context, liked recommend.LikedSet) *recommend.Result
	Similar(ctx context.Context, movieID, k int) ([]recommend.Movie, error)
	Popular(ctx context.Context, k int) ([]recommend.Movie, error)
	Movies(ctx context.Context) ([]recommend.Movie, error)
	Rebuild(ctx context.Context) error
	GetMetrics() recommend.Metrics
	GetConfig() *recommend.Config
}

// LikeStore records user interactions.
type LikeStore interface {
	SetLike(ctx context.Context, userID, movieID int, liked bool) error
}

// HealthChecker reports database reachability.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CacheInspector exposes the persisted similarity cache entry.
type CacheInspector interface {
	Info(ctx context.Context) (*storage.Metadata, error)
	Clear(ctx context.Context) error
}

// Handler serves the API endpoints.
type Handler struct {
	engine    Recommender
	likes     LikeStore
	db        HealthChecker
	cache     CacheInspector
	version   string
	startTime time.Time
}

// HandlerOptions carries the optional collaborators of a Handler.
// A nil field disables the endpoints that depend on it.
type HandlerOptions struct {
	Likes   LikeStore
	DB      HealthChecker
	Cache   CacheInspector
	Version string
}

// NewHandler creates a handler around the recommendation engine.
func NewHandler(engine Recommender, opts HandlerOptions) *Handler {
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Handler{
		engine:    engine,
		likes:     opts.Likes,
		db:        opts.DB,
		cache:     opts.Cache,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status    string  `json:"status"`
	Version   string  `json:"version"`
	Database  string  `json:"database"`
	UptimeSec float64 `json:"uptime_seconds"`
}

// Health reports service liveness and database reachability.
// A database failure returns 503 so orchestrators stop routing traffic.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := HealthStatus{
		Status:    "healthy",
		Version:   h.version,
		Database:  "unconfigured",
		UptimeSec: time.Since(h.startTime).Seconds(),
	}

	code := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.db.Ping(ctx); err != nil {
			status.Status = "unhealthy"
			status.Database = "unreachable"
			code = http.StatusServiceUnavailable
		} else {
			status.Database = "connected"
		}
	}

	respondJSON(w, r, code, &APIResponse{Status: "success", Data: status})
}
