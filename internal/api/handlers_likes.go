// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"net/http"
)

// LikeResponse echoes a recorded interaction.
type LikeResponse struct {
	UserID  int  `json:"user_id"`
	MovieID int  `json:"movie_id"`
	Liked   bool `json:"liked"`
}

// Like serves POST /api/v1/users/{id}/likes/{movieId}.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, true)
}

// Unlike serves DELETE /api/v1/users/{id}/likes/{movieId}.
func (h *Handler) Unlike(w http.ResponseWriter, r *http.Request) {
	h.setLike(w, r, false)
}

func (h *Handler) setLike(w http.ResponseWriter, r *http.Request, liked bool) {
	if h.likes == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Interaction store not configured", nil)
		return
	}

	userID, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	movieID, err := pathID(r, "movieId")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}

	if err := h.likes.SetLike(r.Context(), userID, movieID, liked); err != nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Failed to record interaction", err)
		return
	}

	respondSuccess(w, r, LikeResponse{UserID: userID, MovieID: movieID, Liked: liked}, Metadata{})
}
