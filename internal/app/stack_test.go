// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/database"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/recommend/storage"
)

func loadTestConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("DUCKDB_PATH", filepath.Join(dir, "reelmatch.duckdb"))
	t.Setenv("CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("SEED_DEMO_DATA", "true")
	for k, v := range env {
		t.Setenv(k, v)
	}

	cfg, err := config.LoadFile("")
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	return cfg
}

func TestNew_SeededStack(t *testing.T) {
	cfg := loadTestConfig(t, nil)
	ctx := context.Background()

	stack, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() {
		if err := stack.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}()

	if _, ok := stack.Store.(*database.Resilient); !ok {
		t.Errorf("Store = %T, want *database.Resilient", stack.Store)
	}
	if _, ok := stack.Cache.(*storage.FileStore); !ok {
		t.Errorf("Cache = %T, want *storage.FileStore", stack.Cache)
	}

	res, err := stack.Engine.RecommendForUser(ctx, 1)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if res.Source != recommend.SourceContent {
		t.Errorf("Source = %v, want content", res.Source)
	}
	if len(res.Movies) == 0 {
		t.Error("expected recommendations for seeded user")
	}

	if _, err := stack.Cache.Info(ctx); err != nil {
		t.Errorf("cache Info() after first request error = %v, want stored matrix", err)
	}
}

func TestNew_CacheFallback(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{
		"CACHE_BACKEND":   "redis",
		"REDIS_ADDR":      "127.0.0.1:1",
		"BREAKER_ENABLED": "false",
	})

	stack, err := New(context.Background(), cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = stack.Close() }()

	if _, ok := stack.Cache.(storage.NopStore); !ok {
		t.Errorf("Cache = %T, want storage.NopStore", stack.Cache)
	}
	if _, ok := stack.Store.(*database.DB); !ok {
		t.Errorf("Store = %T, want *database.DB", stack.Store)
	}
}
