// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/recommend/storage"
)

// SimilarityStatus is the body of the similarity status endpoint.
type SimilarityStatus struct {
	Engine recommend.Metrics `json:"engine"`
	Config *recommend.Config `json:"config,omitempty"`
	Cache  *storage.Metadata `json:"cache,omitempty"`
}

// Status serves GET /api/v1/similarity/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	status := SimilarityStatus{
		Engine: h.engine.GetMetrics(),
		Config: h.engine.GetConfig(),
	}

	if h.cache != nil {
		meta, err := h.cache.Info(r.Context())
		switch {
		case err == nil:
			status.Cache = meta
		case errors.Is(err, recommend.ErrCacheMiss):
		default:
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to read similarity cache metadata")
		}
	}

	respondSuccess(w, r, status, Metadata{})
}

// Rebuild serves POST /api/v1/similarity/rebuild. The matrix is recomputed
// synchronously and persisted; calls beyond the engine's rebuild rate get 429.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if err := h.engine.Rebuild(r.Context()); err != nil {
		if errors.Is(err, recommend.ErrRebuildThrottled) {
			respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rebuild already requested recently", nil)
			return
		}
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Similarity rebuild failed", err)
		return
	}

	logging.Ctx(r.Context()).Info().Dur("duration", time.Since(start)).Msg("Similarity matrix rebuilt")
	respondSuccess(w, r, SimilarityStatus{Engine: h.engine.GetMetrics()}, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
	})
}

// ClearCache serves DELETE /api/v1/similarity/cache.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Similarity cache not configured", nil)
		return
	}
	if err := h.cache.Clear(r.Context()); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "Failed to clear similarity cache", err)
		return
	}
	respondSuccess(w, r, map[string]bool{"cleared": true}, Metadata{})
}
