// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// Key prefixes for BadgerDB storage
const (
	badgerBlobPrefix = "similarity:"
	badgerMetaPrefix = "similarity_meta:"
)

// BadgerStore keeps the similarity matrix in an embedded BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	name   string
	ownsDB bool
}

// OpenBadgerStore opens (or creates) a BadgerDB at path.
// An empty path opens an in-memory database.
func OpenBadgerStore(path, name string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for similarity cache: %w", err)
	}
	return &BadgerStore{db: db, name: name, ownsDB: true}, nil
}

// NewBadgerStore wraps an already open database. Close leaves it open.
func NewBadgerStore(db *badger.DB, name string) *BadgerStore {
	return &BadgerStore{db: db, name: name}
}

// Load reads and verifies the cached matrix.
func (s *BadgerStore) Load(ctx context.Context) (*recommend.CachedSimilarity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var blob []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerBlobPrefix + s.name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return recommend.ErrCacheMiss
		}
		if err != nil {
			return fmt.Errorf("get similarity blob: %w", err)
		}
		blob, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return decode(blob)
}

// Store writes the blob and its JSON metadata in one transaction.
func (s *BadgerStore) Store(ctx context.Context, entry *recommend.CachedSimilarity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, meta, err := encode(s.name, entry)
	if err != nil {
		return err
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(badgerBlobPrefix+s.name), blob); err != nil {
			return fmt.Errorf("set similarity blob: %w", err)
		}
		if err := txn.Set([]byte(badgerMetaPrefix+s.name), metaJSON); err != nil {
			return fmt.Errorf("set similarity metadata: %w", err)
		}
		return nil
	})
}

// Info returns metadata of the stored entry.
func (s *BadgerStore) Info(ctx context.Context) (*Metadata, error) {
	var meta Metadata
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerMetaPrefix + s.name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return recommend.ErrCacheMiss
		}
		if err != nil {
			return fmt.Errorf("get similarity metadata: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, err
	}
	return &meta, nil
}

// Clear deletes the stored entry.
func (s *BadgerStore) Clear(ctx context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(badgerBlobPrefix + s.name)); err != nil {
			return err
		}
		return txn.Delete([]byte(badgerMetaPrefix + s.name))
	})
}

// Close closes the database if this store opened it.
func (s *BadgerStore) Close() error {
	if s.ownsDB {
		return s.db.Close()
	}
	return nil
}
