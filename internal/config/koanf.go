// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reelmatch/config.yaml",
	"/etc/reelmatch/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       "duckdb",
			Path:         "/data/reelmatch.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			QueryTimeout: 10 * time.Second,
			SeedDemoData: false,
			Breaker: CircuitBreakerConfig{
				Enabled:      true,
				MaxRequests:  3,
				Interval:     time.Minute,
				Timeout:      30 * time.Second,
				MinRequests:  10,
				FailureRatio: 0.6,
			},
		},
		Recommend: RecommendConfig{
			PerItemK:        5,
			Limit:           10,
			Aggregation:     "max",
			TrustCache:      true,
			Workers:         1,
			SourceTimeout:   10 * time.Second,
			CacheTimeout:    5 * time.Second,
			BuildTimeout:    2 * time.Minute,
			MaxK:            50,
			WarmOnStartup:   true,
			WarmInterval:    time.Hour,
			RebuildInterval: time.Minute,
			RebuildBurst:    1,
		},
		Cache: CacheConfig{
			Backend: "file",
			Dir:     "/data/cache",
			Name:    "similarity",
			Redis: RedisConfig{
				Addr: "127.0.0.1:6379",
				Key:  "reelmatch:similarity",
			},
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Timeout:         30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func LoadWithKoanf() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile loads configuration like LoadWithKoanf but reads the given YAML
// file instead of searching for one. An empty path skips the file layer.
func LoadFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// DUCKDB_PATH -> database.path, RECOMMEND_PER_ITEM_K -> recommend.per_item_k
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings while the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Database mappings
	"database_driver":        "database.driver",
	"duckdb_path":            "database.path",
	"database_dsn":           "database.dsn",
	"duckdb_max_memory":      "database.max_memory",
	"duckdb_threads":         "database.threads",
	"database_query_timeout": "database.query_timeout",
	"seed_demo_data":         "database.seed_demo_data",

	// Circuit breaker mappings
	"breaker_enabled":       "database.breaker.enabled",
	"breaker_max_requests":  "database.breaker.max_requests",
	"breaker_interval":      "database.breaker.interval",
	"breaker_timeout":       "database.breaker.timeout",
	"breaker_min_requests":  "database.breaker.min_requests",
	"breaker_failure_ratio": "database.breaker.failure_ratio",

	// Recommendation engine mappings
	"recommend_per_item_k":       "recommend.per_item_k",
	"recommend_limit":            "recommend.limit",
	"recommend_aggregation":      "recommend.aggregation",
	"recommend_trust_cache":      "recommend.trust_cache",
	"recommend_workers":          "recommend.workers",
	"recommend_source_timeout":   "recommend.source_timeout",
	"recommend_cache_timeout":    "recommend.cache_timeout",
	"recommend_build_timeout":    "recommend.build_timeout",
	"recommend_max_k":            "recommend.max_k",
	"recommend_warm_on_startup":  "recommend.warm_on_startup",
	"recommend_warm_interval":    "recommend.warm_interval",
	"recommend_rebuild_interval": "recommend.rebuild_interval",
	"recommend_rebuild_burst":    "recommend.rebuild_burst",

	// Similarity cache mappings
	"cache_backend":  "cache.backend",
	"cache_dir":      "cache.dir",
	"cache_name":     "cache.name",
	"redis_addr":     "cache.redis.addr",
	"redis_password": "cache.redis.password",
	"redis_db":       "cache.redis.db",
	"redis_key":      "cache.redis.key",
	"redis_ttl":      "cache.redis.ttl",

	// Server mappings
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_timeout":          "server.timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Security mappings
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables are skipped so unrelated environment does not leak in.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - REDIS_ADDR -> cache.redis.addr
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
