// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package config provides centralized configuration management for ReelMatch.

Configuration is layered with Koanf v2:

 1. Built-in defaults (defaultConfig)
 2. Optional YAML file: CONFIG_PATH, then config.yaml, config.yml,
    /etc/reelmatch/config.yaml, /etc/reelmatch/config.yml
 3. Environment variables, mapped explicitly by envTransformFunc

Later layers override earlier ones. Only mapped environment variables are
read; anything else in the environment is ignored.

# Configuration Structure

  - DatabaseConfig: catalog and interaction store (DuckDB or PostgreSQL)
  - CircuitBreakerConfig: breaker in front of database queries
  - RecommendConfig: ranking, cache policy and matrix build settings
  - CacheConfig: similarity matrix persistence (file, badger, redis, none)
  - ServerConfig: HTTP server
  - SecurityConfig: request rate limiting and CORS
  - LoggingConfig: zerolog level, format and caller info

# Example config.yaml

	database:
	  driver: duckdb
	  path: /data/reelmatch.duckdb
	recommend:
	  per_item_k: 5
	  limit: 10
	  aggregation: max
	  trust_cache: true
	cache:
	  backend: badger
	  dir: /data/cache

# Validation

Validate runs struct tag validation through the validation package and then
checks cross-field rules (a DSN for the pgx driver, a Redis address for the
redis backend, rate limit bounds). The recommendation settings are converted
with RecommendConfig.EngineConfig and validated by the engine's own rules.

# Usage

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	engine, err := recommend.NewEngine(cfg.Recommend.EngineConfig(), logger)
*/
package config
