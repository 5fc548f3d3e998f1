// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package validation provides struct validation using go-playground/validator v10.
//
// It exposes a thread-safe singleton validator with one custom tag, idlist,
// for comma-separated movie ID lists, and converts failures to the API's
// VALIDATION_ERROR body.
//
// Example usage:
//
//	type recommendParams struct {
//	    UserID int    `validate:"required_without=Liked,omitempty,gte=1"`
//	    Liked  string `validate:"required_without=UserID,omitempty,idlist"`
//	}
//
//	if err := validation.ValidateStruct(&params); err != nil {
//	    apiErr := err.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	    return
//	}
package validation
