// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package app assembles the recommendation stack shared by the server and
// the command line tool: database, optional circuit breaker, similarity
// cache and engine.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/database"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/recommend/storage"
)

// Stack holds the wired recommendation components.
type Stack struct {
	// DB is the underlying database.
	DB *database.DB

	// Store serves the engine and like writes; it wraps DB with a circuit
	// breaker when one is configured.
	Store database.Store

	// Cache is the similarity cache backend.
	Cache storage.Cache

	// Engine is the recommendation engine.
	Engine *recommend.Engine
}

// New opens the database, seeds demo data when enabled, opens the cache and
// builds the engine. An unreachable cache backend is not fatal; the engine
// then recomputes the matrix on demand.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Stack, error) {
	db, err := database.Open(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.Database.SeedDemoData {
		seeded, err := db.Seed(ctx)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed demo data: %w", err)
		}
		if seeded {
			logger.Info().Msg("Seeded demo catalog and interactions")
		}
	}

	var store database.Store = db
	if cfg.Database.Breaker.Enabled {
		store = database.NewResilient(db, cfg.Database.Breaker)
	}

	cache, err := storage.Open(ctx, cfg.Cache.StorageConfig())
	if err != nil {
		logger.Warn().Err(err).
			Str("backend", cfg.Cache.Backend).
			Msg("Similarity cache unavailable, matrices will not persist")
		cache = storage.NopStore{}
	}

	engine, err := recommend.NewEngine(cfg.Recommend.EngineConfig(), logger)
	if err != nil {
		_ = cache.Close()
		_ = db.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	engine.SetCatalogSource(store)
	engine.SetInteractionSource(store)
	engine.SetCache(cache)

	logger.Info().
		Str("driver", db.Driver()).
		Str("cache", cfg.Cache.Backend).
		Bool("circuit_breaker", cfg.Database.Breaker.Enabled).
		Msg("Recommendation stack ready")

	return &Stack{DB: db, Store: store, Cache: cache, Engine: engine}, nil
}

// Close releases the cache and database.
func (s *Stack) Close() error {
	return errors.Join(s.Cache.Close(), s.DB.Close())
}
