// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the recommendation engine.
type Config struct {
	// Ranking controls candidate selection.
	Ranking RankingConfig `json:"ranking"`

	// Cache controls similarity cache usage.
	Cache CacheConfig `json:"cache"`

	// Build controls similarity matrix computation.
	Build BuildConfig `json:"build"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits"`
}

// RankingConfig controls the content ranker.
type RankingConfig struct {
	// PerItemK is the number of neighbours taken per liked movie.
	PerItemK int `json:"per_item_k"`

	// Limit is the maximum number of recommendations returned.
	Limit int `json:"limit"`

	// Aggregation is "max" or "sum".
	Aggregation Aggregation `json:"aggregation"`
}

// CacheConfig controls the similarity cache policy.
type CacheConfig struct {
	// TrustCache serves a cached matrix even when the catalog fingerprint
	// changed, logging a staleness warning. When false a fingerprint
	// mismatch is a miss. A dimension mismatch is always a miss.
	TrustCache bool `json:"trust_cache"`

	// Timeout bounds each cache load or store.
	Timeout time.Duration `json:"timeout"`
}

// BuildConfig controls matrix computation.
type BuildConfig struct {
	// Workers is the number of goroutines computing rows. 1 is sequential.
	Workers int `json:"workers"`

	// RebuildInterval is the minimum spacing between forced rebuilds.
	RebuildInterval time.Duration `json:"rebuild_interval"`

	// RebuildBurst is the number of forced rebuilds allowed back to back.
	RebuildBurst int `json:"rebuild_burst"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// SourceTimeout bounds each catalog or interaction source call.
	SourceTimeout time.Duration `json:"source_timeout"`

	// BuildTimeout bounds vectorization plus matrix computation.
	BuildTimeout time.Duration `json:"build_timeout"`

	// MaxK caps k for similar and popular listings.
	MaxK int `json:"max_k"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() *Config {
	return &Config{
		Ranking: RankingConfig{
			PerItemK:    5,
			Limit:       10,
			Aggregation: AggregateMax,
		},
		Cache: CacheConfig{
			TrustCache: true,
			Timeout:    5 * time.Second,
		},
		Build: BuildConfig{
			Workers:         1,
			RebuildInterval: time.Minute,
			RebuildBurst:    1,
		},
		Limits: LimitsConfig{
			SourceTimeout: 10 * time.Second,
			BuildTimeout:  2 * time.Minute,
			MaxK:          50,
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Ranking.PerItemK < 1 {
		return fmt.Errorf("ranking.per_item_k must be positive, got %d", c.Ranking.PerItemK)
	}
	if c.Ranking.Limit < 1 {
		return fmt.Errorf("ranking.limit must be positive, got %d", c.Ranking.Limit)
	}
	switch c.Ranking.Aggregation {
	case AggregateMax, AggregateSum:
	default:
		return fmt.Errorf("ranking.aggregation must be max or sum, got %q", c.Ranking.Aggregation)
	}

	if c.Cache.Timeout <= 0 {
		return fmt.Errorf("cache.timeout must be positive, got %v", c.Cache.Timeout)
	}

	if c.Build.Workers < 1 {
		return fmt.Errorf("build.workers must be positive, got %d", c.Build.Workers)
	}
	if c.Build.RebuildInterval < 0 {
		return fmt.Errorf("build.rebuild_interval must be non-negative, got %v", c.Build.RebuildInterval)
	}
	if c.Build.RebuildBurst < 1 {
		return fmt.Errorf("build.rebuild_burst must be positive, got %d", c.Build.RebuildBurst)
	}

	if c.Limits.SourceTimeout <= 0 {
		return fmt.Errorf("limits.source_timeout must be positive, got %v", c.Limits.SourceTimeout)
	}
	if c.Limits.BuildTimeout <= 0 {
		return fmt.Errorf("limits.build_timeout must be positive, got %v", c.Limits.BuildTimeout)
	}
	if c.Limits.MaxK < 1 {
		return fmt.Errorf("limits.max_k must be positive, got %d", c.Limits.MaxK)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// All nested structs contain only value types
	cp := *c
	return &cp
}
