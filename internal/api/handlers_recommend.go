// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/metrics"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/validation"
)

// noMovies is the data payload of a recommendation request that produced nothing.
var noMovies = []recommend.Movie{}

// Recommendations serves GET /api/v1/recommendations.
//
// Query parameters (exactly one):
//   - userId: recommend from the user's stored likes
//   - liked:  comma-separated movie IDs
//
// Data is always an array. Upstream failures degrade to an empty or
// popularity-based array and are listed in metadata.degraded.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := recommendationsRequest{
		UserID: q.Get("userId"),
		Liked:  q.Get("liked"),
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr, noMovies)
		return
	}

	var (
		result *recommend.Result
		err    error
	)
	if req.UserID != "" {
		userID, convErr := strconv.Atoi(req.UserID)
		if convErr != nil {
			respondJSON(w, r, http.StatusBadRequest, &APIResponse{
				Status: "error",
				Data:   noMovies,
				Error:  &APIError{Code: ErrCodeBadRequest, Message: "userId is out of range"},
			})
			return
		}
		result, err = h.engine.RecommendForUser(r.Context(), userID)
	} else {
		ids, parseErr := validation.ParseIDList(req.Liked)
		if parseErr != nil {
			respondJSON(w, r, http.StatusBadRequest, &APIResponse{
				Status: "error",
				Data:   noMovies,
				Error:  &APIError{Code: ErrCodeBadRequest, Message: parseErr.Error()},
			})
			return
		}
		result = h.engine.RecommendForLiked(r.Context(), recommend.NewLikedSet(ids...))
	}

	if err != nil {
		if errors.Is(err, recommend.ErrInvalidUserID) {
			respondJSON(w, r, http.StatusBadRequest, &APIResponse{
				Status: "error",
				Data:   noMovies,
				Error:  &APIError{Code: ErrCodeBadRequest, Message: "userId must be a positive integer"},
			})
			return
		}
		respondJSON(w, r, http.StatusInternalServerError, &APIResponse{
			Status: "error",
			Data:   noMovies,
			Error:  &APIError{Code: ErrCodeInternal, Message: "Failed to produce recommendations"},
		})
		return
	}

	metrics.RecordRecommendation(result.Source, time.Duration(result.Metadata.LatencyMS)*time.Millisecond)
	logging.Ctx(r.Context()).Debug().
		Str("engine_request_id", result.Metadata.RequestID).
		Stringer("source", result.Source).
		Int("count", len(result.Movies)).
		Msg("Served recommendations")

	movies := result.Movies
	if movies == nil {
		movies = noMovies
	}
	respondSuccess(w, r, movies, Metadata{
		QueryTimeMS: result.Metadata.LatencyMS,
		Count:       countOf(len(movies)),
		Source:      result.Source.String(),
		CacheHit:    result.Metadata.CacheHit,
		Stale:       result.Metadata.Stale,
		Degraded:    result.Metadata.Degraded,
	})
}

// Movies serves GET /api/v1/movies.
func (h *Handler) Movies(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	movies, err := h.engine.Movies(r.Context())
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Catalog unavailable", err)
		return
	}
	respondSuccess(w, r, movies, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Count:       countOf(len(movies)),
	})
}

// Popular serves GET /api/v1/movies/popular?k=.
func (h *Handler) Popular(w http.ResponseWriter, r *http.Request) {
	k, verr, err := parseK(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if verr != nil {
		respondValidationError(w, r, verr, nil)
		return
	}

	start := time.Now()
	movies, err := h.engine.Popular(r.Context(), k)
	if err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Popularity ranking unavailable", err)
		return
	}
	respondSuccess(w, r, movies, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Count:       countOf(len(movies)),
		Source:      recommend.SourcePopularity.String(),
	})
}

// Similar serves GET /api/v1/movies/{id}/similar?k=.
func (h *Handler) Similar(w http.ResponseWriter, r *http.Request) {
	movieID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	k, verr, err := parseK(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if verr != nil {
		respondValidationError(w, r, verr, nil)
		return
	}

	start := time.Now()
	movies, err := h.engine.Similar(r.Context(), movieID, k)
	if err != nil {
		if errors.Is(err, recommend.ErrUnknownMovie) {
			respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Movie not found", nil)
			return
		}
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Similarity unavailable", err)
		return
	}
	respondSuccess(w, r, movies, Metadata{
		QueryTimeMS: time.Since(start).Milliseconds(),
		Count:       countOf(len(movies)),
		Source:      recommend.SourceContent.String(),
	})
}
