// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package storage

import (
	"context"
	"fmt"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// Backend names a cache implementation.
type Backend string

// Supported backends.
const (
	BackendFile   Backend = "file"
	BackendBadger Backend = "badger"
	BackendRedis  Backend = "redis"
	BackendNone   Backend = "none"
)

// Cache is a similarity cache with inspection and lifecycle operations.
type Cache interface {
	recommend.SimilarityCache

	// Info returns metadata of the stored entry, or recommend.ErrCacheMiss.
	Info(ctx context.Context) (*Metadata, error)

	// Clear removes the stored entry.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Config selects and configures a cache backend.
type Config struct {
	// Backend is file, badger, redis or none.
	Backend Backend

	// Dir is the directory for the file and badger backends.
	Dir string

	// Name is the entry name (file name stem or key suffix).
	Name string

	// Redis configures the redis backend.
	Redis RedisConfig
}

// Open creates the configured cache backend.
func Open(ctx context.Context, cfg Config) (Cache, error) {
	name := cfg.Name
	if name == "" {
		name = "similarity"
	}

	switch cfg.Backend {
	case BackendFile, "":
		fs, err := NewFileStore(cfg.Dir, name)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case BackendBadger:
		bs, err := OpenBadgerStore(cfg.Dir, name)
		if err != nil {
			return nil, err
		}
		return bs, nil
	case BackendRedis:
		rc := cfg.Redis
		if rc.Key == "" {
			rc.Key = "reelmatch:" + name
		}
		rs, err := OpenRedisStore(ctx, rc)
		if err != nil {
			return nil, err
		}
		return rs, nil
	case BackendNone:
		return NopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// NopStore never holds anything; every Load misses and Store discards.
type NopStore struct{}

// Load always misses.
func (NopStore) Load(context.Context) (*recommend.CachedSimilarity, error) {
	return nil, recommend.ErrCacheMiss
}

// Store discards the entry.
func (NopStore) Store(context.Context, *recommend.CachedSimilarity) error { return nil }

// Info always misses.
func (NopStore) Info(context.Context) (*Metadata, error) { return nil, recommend.ErrCacheMiss }

// Clear does nothing.
func (NopStore) Clear(context.Context) error { return nil }

// Close does nothing.
func (NopStore) Close() error { return nil }
