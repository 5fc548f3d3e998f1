// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"time"
)

// ErrCacheMiss is returned by SimilarityCache.Load when nothing is stored.
var ErrCacheMiss = errors.New("similarity cache miss")

// CachedSimilarity is the persisted form of a similarity matrix together with
// the catalog it was computed from.
type CachedSimilarity struct {
	// Matrix is the similarity matrix.
	Matrix *SimilarityMatrix

	// MovieIDs are the catalog IDs in matrix order.
	MovieIDs []int

	// Fingerprint identifies the catalog contents the matrix was built from.
	Fingerprint string

	// ComputedAt is when the matrix was built.
	ComputedAt time.Time
}

// SimilarityCache persists a single similarity matrix across invocations.
//
// Load returns ErrCacheMiss when nothing is stored and any other error when
// the stored blob cannot be read. Store must publish atomically: a concurrent
// Load observes either the previous entry or the new one, never a partial write.
type SimilarityCache interface {
	Load(ctx context.Context) (*CachedSimilarity, error)
	Store(ctx context.Context, entry *CachedSimilarity) error
}

// Fingerprint hashes the catalog IDs and vectorized text in order. Any change
// to membership, order or text changes the fingerprint.
func Fingerprint(cat *Catalog) string {
	h := sha256.New()
	var buf [8]byte
	for i := 0; i < cat.Len(); i++ {
		m := cat.At(i)
		binary.BigEndian.PutUint64(buf[:], uint64(int64(m.ID)))
		h.Write(buf[:])
		text := m.Text()
		binary.BigEndian.PutUint64(buf[:], uint64(len(text)))
		h.Write(buf[:])
		h.Write([]byte(text))
	}
	return hex.EncodeToString(h.Sum(nil))
}
