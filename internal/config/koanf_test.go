// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/recommend/storage"
)

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Database.Driver != "duckdb" {
		t.Errorf("Database.Driver = %q, want duckdb", cfg.Database.Driver)
	}
	if cfg.Database.Path != "/data/reelmatch.duckdb" {
		t.Errorf("Database.Path = %q, want /data/reelmatch.duckdb", cfg.Database.Path)
	}
	if !cfg.Database.Breaker.Enabled {
		t.Error("Database.Breaker.Enabled should be true by default")
	}

	if cfg.Recommend.PerItemK != 5 {
		t.Errorf("Recommend.PerItemK = %d, want 5", cfg.Recommend.PerItemK)
	}
	if cfg.Recommend.Limit != 10 {
		t.Errorf("Recommend.Limit = %d, want 10", cfg.Recommend.Limit)
	}
	if cfg.Recommend.Aggregation != "max" {
		t.Errorf("Recommend.Aggregation = %q, want max", cfg.Recommend.Aggregation)
	}
	if !cfg.Recommend.TrustCache {
		t.Error("Recommend.TrustCache should be true by default")
	}

	if cfg.Cache.Backend != "file" {
		t.Errorf("Cache.Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got %v", err)
	}
}

func TestDefaultsMatchEngineDefaults(t *testing.T) {
	got := defaultConfig().Recommend.EngineConfig()
	want := recommend.DefaultConfig()

	if *got != *want {
		t.Errorf("EngineConfig() = %+v, want %+v", *got, *want)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"DUCKDB_PATH", "database.path"},
		{"DATABASE_DRIVER", "database.driver"},
		{"HTTP_PORT", "server.port"},
		{"RECOMMEND_PER_ITEM_K", "recommend.per_item_k"},
		{"RECOMMEND_TRUST_CACHE", "recommend.trust_cache"},
		{"REDIS_ADDR", "cache.redis.addr"},
		{"CORS_ORIGINS", "security.cors_origins"},
		{"BREAKER_FAILURE_RATIO", "database.breaker.failure_ratio"},
		{"log_level", "logging.level"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoadFile_EnvOverrides(t *testing.T) {
	t.Setenv("RECOMMEND_PER_ITEM_K", "7")
	t.Setenv("RECOMMEND_AGGREGATION", "sum")
	t.Setenv("RECOMMEND_TRUST_CACHE", "false")
	t.Setenv("RECOMMEND_BUILD_TIMEOUT", "45s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Recommend.PerItemK != 7 {
		t.Errorf("PerItemK = %d, want 7", cfg.Recommend.PerItemK)
	}
	if cfg.Recommend.Aggregation != "sum" {
		t.Errorf("Aggregation = %q, want sum", cfg.Recommend.Aggregation)
	}
	if cfg.Recommend.TrustCache {
		t.Error("TrustCache = true, want false")
	}
	if cfg.Recommend.BuildTimeout != 45*time.Second {
		t.Errorf("BuildTimeout = %v, want 45s", cfg.Recommend.BuildTimeout)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	want := []string{"https://a.example", "https://b.example"}
	if strings.Join(cfg.Security.CORSOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, want)
	}
}

func TestLoadFile_YAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
recommend:
  per_item_k: 3
  limit: 4
cache:
  backend: badger
  dir: ` + dir + `
server:
  port: 7000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RECOMMEND_LIMIT", "6")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.Recommend.PerItemK != 3 {
		t.Errorf("PerItemK = %d, want 3 from file", cfg.Recommend.PerItemK)
	}
	if cfg.Recommend.Limit != 6 {
		t.Errorf("Limit = %d, want 6 from env", cfg.Recommend.Limit)
	}
	if cfg.Cache.Backend != "badger" {
		t.Errorf("Cache.Backend = %q, want badger", cfg.Cache.Backend)
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Port = %d, want 7000", cfg.Server.Port)
	}
	// untouched values keep their defaults
	if cfg.Recommend.Aggregation != "max" {
		t.Errorf("Aggregation = %q, want max", cfg.Recommend.Aggregation)
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadFile() should fail for a missing file")
	}
}

func TestLoadWithKoanf_ConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero per item k", func(c *Config) { c.Recommend.PerItemK = 0 }, "PerItemK"},
		{"unknown aggregation", func(c *Config) { c.Recommend.Aggregation = "mean" }, "Aggregation"},
		{"unknown backend", func(c *Config) { c.Cache.Backend = "memcached" }, "Backend"},
		{"unknown driver", func(c *Config) { c.Database.Driver = "sqlite" }, "Driver"},
		{"pgx without dsn", func(c *Config) { c.Database.Driver = "pgx" }, "DATABASE_DSN"},
		{"pgx with dsn", func(c *Config) {
			c.Database.Driver = "pgx"
			c.Database.DSN = "postgres://localhost/reelmatch"
		}, ""},
		{"redis without addr", func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.Redis.Addr = ""
		}, "REDIS_ADDR"},
		{"file without dir", func(c *Config) { c.Cache.Dir = "" }, "CACHE_DIR"},
		{"badger in memory", func(c *Config) {
			c.Cache.Backend = "badger"
			c.Cache.Dir = ""
		}, ""},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "Level"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "Port"},
		{"rate window too long", func(c *Config) { c.Security.RateLimitWindow = 2 * time.Hour }, "RATE_LIMIT_WINDOW"},
		{"rate limit disabled skips bounds", func(c *Config) {
			c.Security.RateLimitDisabled = true
			c.Security.RateLimitWindow = 2 * time.Hour
		}, ""},
		{"failure ratio above one", func(c *Config) { c.Database.Breaker.FailureRatio = 1.5 }, "FailureRatio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestStorageConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.Cache.Backend = "redis"
	cfg.Cache.Redis.TTL = time.Hour

	sc := cfg.Cache.StorageConfig()
	if sc.Backend != storage.BackendRedis {
		t.Errorf("Backend = %q, want %q", sc.Backend, storage.BackendRedis)
	}
	if sc.Redis.Addr != "127.0.0.1:6379" {
		t.Errorf("Redis.Addr = %q, want 127.0.0.1:6379", sc.Redis.Addr)
	}
	if sc.Redis.TTL != time.Hour {
		t.Errorf("Redis.TTL = %v, want 1h", sc.Redis.TTL)
	}
	if sc.Name != "similarity" {
		t.Errorf("Name = %q, want similarity", sc.Name)
	}
}

func TestHasWildcardCORS(t *testing.T) {
	cfg := defaultConfig()
	if !cfg.HasWildcardCORS() {
		t.Error("HasWildcardCORS() = false for default origins")
	}
	cfg.Security.CORSOrigins = []string{"https://reelmatch.example"}
	if cfg.HasWildcardCORS() {
		t.Error("HasWildcardCORS() = true for explicit origins")
	}
}
