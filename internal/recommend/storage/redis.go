// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// RedisConfig configures the Redis cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	TTL      time.Duration
}

// RedisStore keeps the similarity matrix under a Redis key so several
// processes share one computed matrix.
type RedisStore struct {
	rdb *goredis.Client
	key string
	ttl time.Duration
}

// OpenRedisStore connects to Redis and verifies the connection.
func OpenRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis cache: missing address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close() //nolint:errcheck // connection never became usable
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisStore(rdb, cfg.Key, cfg.TTL), nil
}

// NewRedisStore wraps an existing client. A zero ttl keeps the entry forever.
func NewRedisStore(rdb *goredis.Client, key string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, key: key, ttl: ttl}
}

func (s *RedisStore) metaKey() string {
	return s.key + ":meta"
}

// Load reads and verifies the cached matrix.
func (s *RedisStore) Load(ctx context.Context) (*recommend.CachedSimilarity, error) {
	blob, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, recommend.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return decode(blob)
}

// Store writes the blob and its metadata in one MULTI/EXEC.
func (s *RedisStore) Store(ctx context.Context, entry *recommend.CachedSimilarity) error {
	blob, meta, err := encode(s.key, entry)
	if err != nil {
		return err
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.key, blob, s.ttl)
		pipe.Set(ctx, s.metaKey(), metaJSON, s.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}

// Info returns metadata of the stored entry.
func (s *RedisStore) Info(ctx context.Context) (*Metadata, error) {
	raw, err := s.rdb.Get(ctx, s.metaKey()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, recommend.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", s.metaKey(), err)
	}
	var meta Metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// Clear deletes the stored entry.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key, s.metaKey()).Err()
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
