// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package storage persists the similarity matrix between invocations.
//
// Every backend implements recommend.SimilarityCache and stores a single named
// blob. Load returns recommend.ErrCacheMiss when nothing is stored and a plain
// error when the blob is unreadable, so the engine can recompute.
//
// # Backends
//
//   - file:   {dir}/{name}.gob on local disk (default)
//   - badger: a key in an embedded BadgerDB
//   - redis:  a key in Redis, shared by every process pointing at it
//   - none:   always misses, stores nothing
//
// # Storage Format
//
// The blob is the same for every backend:
//
//	envelope (gob):
//	  - Metadata (name, fingerprint, size, checksum, timestamps)
//	  - CompressedData (gzip of the gob-encoded matrix payload)
//
// The SHA-256 checksum covers the uncompressed payload and is verified on
// load, then the matrix is re-validated by recommend.NewSimilarityMatrix.
//
// # Atomicity
//
// The file backend writes to a temporary file in the same directory, syncs
// it, and renames it over the target, so readers see the old or the new
// blob and never a partial one. Badger writes inside one transaction and
// Redis with a single MULTI/EXEC. Concurrent writers race; the last rename
// wins.
//
// # Usage Example
//
//	cache, err := storage.Open(storage.Config{Backend: storage.BackendFile, Dir: "/data/cache", Name: "similarity"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	engine.SetCache(cache)
package storage
