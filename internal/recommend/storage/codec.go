// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package storage

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// formatVersion is bumped whenever payload changes incompatibly.
const formatVersion = 1

// Metadata describes a stored similarity matrix.
type Metadata struct {
	// Name is the cache entry name.
	Name string `json:"name"`

	// FormatVersion is the payload encoding version.
	FormatVersion int `json:"format_version"`

	// Fingerprint identifies the catalog the matrix was built from.
	Fingerprint string `json:"fingerprint"`

	// Size is the matrix dimension.
	Size int `json:"size"`

	// ComputedAt is when the matrix was built.
	ComputedAt time.Time `json:"computed_at"`

	// SavedAt is when the entry was written.
	SavedAt time.Time `json:"saved_at"`

	// Checksum is the SHA-256 checksum of the uncompressed payload.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed payload size in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// payload is the gob-encoded matrix state.
type payload struct {
	Size        int
	Data        []float64
	MovieIDs    []int
	Fingerprint string
	ComputedAt  time.Time
}

// envelope is the stored blob for every backend.
type envelope struct {
	Metadata       Metadata
	CompressedData []byte
}

// encode serializes, checksums and compresses an entry.
func encode(name string, entry *recommend.CachedSimilarity) ([]byte, *Metadata, error) {
	if entry == nil || entry.Matrix == nil {
		return nil, nil, fmt.Errorf("encode %s: nil matrix", name)
	}

	var raw bytes.Buffer
	p := payload{
		Size:        entry.Matrix.Size(),
		Data:        entry.Matrix.Data(),
		MovieIDs:    entry.MovieIDs,
		Fingerprint: entry.Fingerprint,
		ComputedAt:  entry.ComputedAt,
	}
	if err := gob.NewEncoder(&raw).Encode(&p); err != nil {
		return nil, nil, fmt.Errorf("encode payload: %w", err)
	}

	hash := sha256.Sum256(raw.Bytes())

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(raw.Bytes()); err != nil {
		return nil, nil, fmt.Errorf("compress payload: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return nil, nil, fmt.Errorf("close gzip writer: %w", err)
	}

	meta := Metadata{
		Name:          name,
		FormatVersion: formatVersion,
		Fingerprint:   entry.Fingerprint,
		Size:          p.Size,
		ComputedAt:    entry.ComputedAt,
		SavedAt:       time.Now().UTC(),
		Checksum:      hex.EncodeToString(hash[:]),
		SizeBytes:     int64(compressed.Len()),
	}

	var out bytes.Buffer
	if err := gob.NewEncoder(&out).Encode(&envelope{Metadata: meta, CompressedData: compressed.Bytes()}); err != nil {
		return nil, nil, fmt.Errorf("encode envelope: %w", err)
	}

	return out.Bytes(), &meta, nil
}

// decodeMetadata reads only the envelope metadata.
func decodeMetadata(blob []byte) (*Metadata, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env.Metadata, nil
}

// decode verifies and rebuilds an entry from a stored blob.
func decode(blob []byte) (*recommend.CachedSimilarity, error) {
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Metadata.FormatVersion != formatVersion {
		return nil, fmt.Errorf("unsupported format version %d", env.Metadata.FormatVersion)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(env.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("open gzip reader: %w", err)
	}
	defer func() { _ = gzr.Close() }() //nolint:errcheck // error on gzip close after read is not actionable

	raw, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("decompress payload: %w", err)
	}

	hash := sha256.Sum256(raw)
	if checksum := hex.EncodeToString(hash[:]); checksum != env.Metadata.Checksum {
		return nil, fmt.Errorf("checksum mismatch: expected %s, got %s", env.Metadata.Checksum, checksum)
	}

	var p payload
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	matrix, err := recommend.NewSimilarityMatrix(p.Size, p.Data)
	if err != nil {
		return nil, err
	}

	return &recommend.CachedSimilarity{
		Matrix:      matrix,
		MovieIDs:    p.MovieIDs,
		Fingerprint: p.Fingerprint,
		ComputedAt:  p.ComputedAt,
	}, nil
}
