// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package services provides suture.Service wrappers for ReelMatch components.
//
// Every service blocks in Serve until its context is canceled and implements
// fmt.Stringer so supervisor events name it.
//
//   - HTTPServerService: runs an *http.Server with graceful shutdown
//   - WarmService: keeps the similarity cache current for the catalog
package services
