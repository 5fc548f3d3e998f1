// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// FileStore keeps the similarity matrix in a single file on local disk.
type FileStore struct {
	dir  string
	name string
}

// NewFileStore creates a file-backed cache at {dir}/{name}.gob.
func NewFileStore(dir, name string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil { //nolint:gosec // 0750 is acceptable for cache storage
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileStore{dir: dir, name: name}, nil
}

// Path returns the cache file location.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, s.name+".gob")
}

// Load reads and verifies the cached matrix.
func (s *FileStore) Load(ctx context.Context) (*recommend.CachedSimilarity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	blob, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, recommend.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}

	entry, err := decode(blob)
	if err != nil {
		return nil, fmt.Errorf("cache file %s: %w", s.Path(), err)
	}
	return entry, nil
}

// Store writes the matrix to a temporary file and renames it into place.
func (s *FileStore) Store(ctx context.Context, entry *recommend.CachedSimilarity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	blob, _, err := encode(s.name, entry)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+s.name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()        //nolint:errcheck // already failing
			_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup of partial write
		}
	}()

	if _, err := tmp.Write(blob); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path()); err != nil {
		_ = os.Remove(tmpName) //nolint:errcheck // best-effort cleanup of partial write
		committed = true
		return fmt.Errorf("publish cache file: %w", err)
	}
	committed = true

	return nil
}

// Info returns metadata of the stored entry without decoding the matrix.
func (s *FileStore) Info(ctx context.Context) (*Metadata, error) {
	blob, err := os.ReadFile(s.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, recommend.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	return decodeMetadata(blob)
}

// Clear removes the cache file.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error {
	return nil
}
