// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package logging provides centralized zerolog-based logging for ReelMatch.
//
// All output goes to stderr by default. The recommend CLI prints its JSON
// result on stdout, so diagnostics must never be written there.
//
// # Quick Start
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//
//	logging.Info().Msg("Server starting")
//	logging.Error().Err(err).Msg("Catalog fetch failed")
//
//	// Component loggers are handed to the engine and services
//	engine, err := recommend.NewEngine(cfg, logging.WithComponent("recommend"))
//
//	// Request-scoped logging picks up request_id from the context
//	logging.Ctx(ctx).Info().Int("user_id", id).Msg("Recommendations served")
//
// # slog bridge
//
// The suture supervisor tree reports through sutureslog, which takes an
// *slog.Logger. NewSlogLogger adapts the global zerolog logger so that
// supervisor events share the same format and level.
//
// # Configuration
//
// Environment Variables (read by the config package):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file:line (default: false)
package logging
