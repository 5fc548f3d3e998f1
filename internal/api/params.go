// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/reelmatch/internal/validation"
)

// recommendationsRequest holds the recommendation query. Exactly one of
// userId and liked must be present.
type recommendationsRequest struct {
	UserID string `validate:"required_without=Liked,excluded_with=Liked,omitempty,number"`
	Liked  string `validate:"required_without=UserID,omitempty,idlist"`
}

// listRequest holds the k parameter of listing endpoints.
type listRequest struct {
	K int `validate:"gte=0,lte=1000"`
}

// parseK reads the optional k query parameter. Zero selects the engine default.
func parseK(r *http.Request) (int, *validation.RequestValidationError, error) {
	raw := r.URL.Query().Get("k")
	if raw == "" {
		return 0, nil, nil
	}
	k, err := strconv.Atoi(raw)
	if err != nil {
		return 0, nil, fmt.Errorf("k must be an integer")
	}
	req := listRequest{K: k}
	if verr := validation.ValidateStruct(&req); verr != nil {
		return 0, verr, nil
	}
	return req.K, nil, nil
}

// pathID reads a positive integer path parameter.
func pathID(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// respondValidationError writes a 400 built from validator failures.
func respondValidationError(w http.ResponseWriter, r *http.Request, verr *validation.RequestValidationError, data interface{}) {
	apiErr := verr.ToAPIError()
	respondJSON(w, r, http.StatusBadRequest, &APIResponse{
		Status: "error",
		Data:   data,
		Error: &APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}
