// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package config

import (
	"time"

	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/recommend/storage"
)

// Config holds all application configuration.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Recommend RecommendConfig `koanf:"recommend"`
	Cache     CacheConfig     `koanf:"cache"`
	Server    ServerConfig    `koanf:"server"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// DatabaseConfig holds the catalog and interaction store settings.
//
// Environment Variables:
//   - DATABASE_DRIVER: duckdb (embedded, default) or pgx (PostgreSQL)
//   - DUCKDB_PATH: DuckDB database file (default: /data/reelmatch.duckdb)
//   - DATABASE_DSN: PostgreSQL connection string, required when driver is pgx
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 1GB)
//   - DUCKDB_THREADS: DuckDB threads, 0 uses NumCPU (default: 0)
//   - DATABASE_QUERY_TIMEOUT: per-query timeout (default: 10s)
//   - SEED_DEMO_DATA: load the demo catalog into an empty database (default: false)
type DatabaseConfig struct {
	Driver       string        `koanf:"driver" validate:"oneof=duckdb pgx"`
	Path         string        `koanf:"path"`
	DSN          string        `koanf:"dsn"`
	MaxMemory    string        `koanf:"max_memory"`
	Threads      int           `koanf:"threads" validate:"gte=0"`
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
	SeedDemoData bool          `koanf:"seed_demo_data"`

	// Breaker guards catalog and interaction queries so a failing database
	// is short-circuited instead of waited on.
	Breaker CircuitBreakerConfig `koanf:"breaker"`
}

// CircuitBreakerConfig configures the database circuit breaker.
//
// Environment Variables:
//   - BREAKER_ENABLED (default: true)
//   - BREAKER_MAX_REQUESTS: probes allowed while half-open (default: 3)
//   - BREAKER_INTERVAL: closed-state counter reset interval (default: 1m)
//   - BREAKER_TIMEOUT: open-state duration before probing (default: 30s)
//   - BREAKER_MIN_REQUESTS: requests before the failure ratio applies (default: 10)
//   - BREAKER_FAILURE_RATIO: failure ratio that opens the breaker (default: 0.6)
type CircuitBreakerConfig struct {
	Enabled      bool          `koanf:"enabled"`
	MaxRequests  uint32        `koanf:"max_requests" validate:"gte=1"`
	Interval     time.Duration `koanf:"interval" validate:"gte=0"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	MinRequests  uint32        `koanf:"min_requests" validate:"gte=1"`
	FailureRatio float64       `koanf:"failure_ratio" validate:"gt=0,lte=1"`
}

// RecommendConfig holds recommendation engine settings.
//
// Environment Variables:
//   - RECOMMEND_PER_ITEM_K: neighbours taken per liked movie (default: 5)
//   - RECOMMEND_LIMIT: recommendations returned (default: 10)
//   - RECOMMEND_AGGREGATION: max or sum across liked movies (default: max)
//   - RECOMMEND_TRUST_CACHE: serve cached matrices for a changed catalog (default: true)
//   - RECOMMEND_WORKERS: goroutines computing matrix rows (default: 1)
//   - RECOMMEND_SOURCE_TIMEOUT: catalog/interaction call timeout (default: 10s)
//   - RECOMMEND_CACHE_TIMEOUT: cache load/store timeout (default: 5s)
//   - RECOMMEND_BUILD_TIMEOUT: matrix build timeout (default: 2m)
//   - RECOMMEND_MAX_K: cap for similar/popular listings (default: 50)
//   - RECOMMEND_WARM_ON_STARTUP: build the matrix when the server starts (default: true)
//   - RECOMMEND_WARM_INTERVAL: re-check the cache periodically, 0 disables (default: 1h)
//   - RECOMMEND_REBUILD_INTERVAL: minimum spacing of forced rebuilds (default: 1m)
//   - RECOMMEND_REBUILD_BURST: forced rebuilds allowed back to back (default: 1)
type RecommendConfig struct {
	PerItemK        int           `koanf:"per_item_k" validate:"gte=1"`
	Limit           int           `koanf:"limit" validate:"gte=1"`
	Aggregation     string        `koanf:"aggregation" validate:"oneof=max sum"`
	TrustCache      bool          `koanf:"trust_cache"`
	Workers         int           `koanf:"workers" validate:"gte=1"`
	SourceTimeout   time.Duration `koanf:"source_timeout" validate:"gt=0"`
	CacheTimeout    time.Duration `koanf:"cache_timeout" validate:"gt=0"`
	BuildTimeout    time.Duration `koanf:"build_timeout" validate:"gt=0"`
	MaxK            int           `koanf:"max_k" validate:"gte=1"`
	WarmOnStartup   bool          `koanf:"warm_on_startup"`
	WarmInterval    time.Duration `koanf:"warm_interval" validate:"gte=0"`
	RebuildInterval time.Duration `koanf:"rebuild_interval" validate:"gte=0"`
	RebuildBurst    int           `koanf:"rebuild_burst" validate:"gte=1"`
}

// CacheConfig selects where the similarity matrix is persisted.
//
// Environment Variables:
//   - CACHE_BACKEND: file, badger, redis or none (default: file)
//   - CACHE_DIR: directory for file and badger backends (default: /data/cache)
//   - CACHE_NAME: entry name (default: similarity)
//   - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_KEY, REDIS_TTL: redis backend
type CacheConfig struct {
	Backend string      `koanf:"backend" validate:"oneof=file badger redis none"`
	Dir     string      `koanf:"dir"`
	Name    string      `koanf:"name" validate:"required"`
	Redis   RedisConfig `koanf:"redis"`
}

// RedisConfig holds Redis connection settings for the redis cache backend.
type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"gte=0"`
	Key      string        `koanf:"key"`
	TTL      time.Duration `koanf:"ttl" validate:"gte=0"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST (default: 0.0.0.0)
//   - HTTP_PORT (default: 8080)
//   - HTTP_TIMEOUT: request timeout (default: 30s)
//   - HTTP_SHUTDOWN_TIMEOUT: graceful shutdown timeout (default: 10s)
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// SecurityConfig holds request limiting and CORS settings.
//
// Environment Variables:
//   - RATE_LIMIT_REQUESTS (default: 100)
//   - RATE_LIMIT_WINDOW (default: 1m)
//   - DISABLE_RATE_LIMIT (default: false)
//   - CORS_ORIGINS: comma-separated origins (default: *)
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level" validate:"oneof=trace debug info warn error"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// EngineConfig converts the recommendation settings to engine configuration.
func (c *RecommendConfig) EngineConfig() *recommend.Config {
	return &recommend.Config{
		Ranking: recommend.RankingConfig{
			PerItemK:    c.PerItemK,
			Limit:       c.Limit,
			Aggregation: recommend.Aggregation(c.Aggregation),
		},
		Cache: recommend.CacheConfig{
			TrustCache: c.TrustCache,
			Timeout:    c.CacheTimeout,
		},
		Build: recommend.BuildConfig{
			Workers:         c.Workers,
			RebuildInterval: c.RebuildInterval,
			RebuildBurst:    c.RebuildBurst,
		},
		Limits: recommend.LimitsConfig{
			SourceTimeout: c.SourceTimeout,
			BuildTimeout:  c.BuildTimeout,
			MaxK:          c.MaxK,
		},
	}
}

// StorageConfig converts the cache settings to storage configuration.
func (c *CacheConfig) StorageConfig() storage.Config {
	return storage.Config{
		Backend: storage.Backend(c.Backend),
		Dir:     c.Dir,
		Name:    c.Name,
		Redis: storage.RedisConfig{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
			Key:      c.Redis.Key,
			TTL:      c.Redis.TTL,
		},
	}
}
