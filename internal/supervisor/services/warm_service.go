// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CacheWarmer loads or computes the similarity matrix for the current catalog.
type CacheWarmer interface {
	Warm(ctx context.Context) error
}

// WarmServiceConfig holds configuration for the warm service.
type WarmServiceConfig struct {
	// WarmOnStartup warms the cache as soon as the service starts.
	WarmOnStartup bool

	// Interval is how often the cache is re-checked against the catalog.
	// Zero disables periodic warming.
	Interval time.Duration

	// Timeout bounds a single warm cycle.
	Timeout time.Duration
}

// WarmService rebuilds the cached similarity matrix whenever its catalog
// fingerprint no longer matches, even when requests are allowed to serve a
// stale matrix, so recommendation requests rarely pay for a build.
type WarmService struct {
	warmer CacheWarmer
	config WarmServiceConfig
	logger zerolog.Logger
	name   string
}

// NewWarmService creates a warm service.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWarmService(warmer CacheWarmer, cfg WarmServiceConfig, logger zerolog.Logger) *WarmService {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &WarmService{
		warmer: warmer,
		config: cfg,
		logger: logger.With().Str("service", "similarity-warmer").Logger(),
		name:   "similarity-warmer",
	}
}

// Serve implements suture.Service. Warm failures are logged and retried on
// the next tick; they never stop the service.
func (s *WarmService) Serve(ctx context.Context) error {
	s.logger.Info().
		Bool("warm_on_startup", s.config.WarmOnStartup).
		Dur("interval", s.config.Interval).
		Msg("similarity warmer starting")

	if s.config.WarmOnStartup {
		s.warm(ctx)
	}

	if s.config.Interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("similarity warmer stopping")
			return ctx.Err()
		case <-ticker.C:
			s.warm(ctx)
		}
	}
}

func (s *WarmService) warm(ctx context.Context) {
	warmCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	if err := s.warmer.Warm(warmCtx); err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn().Err(err).Msg("similarity cache warm failed, will retry")
		return
	}
	s.logger.Debug().Dur("duration", time.Since(start)).Msg("similarity cache warm")
}

// String implements fmt.Stringer.
func (s *WarmService) String() string {
	return s.name
}
