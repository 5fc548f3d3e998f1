// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
)

// ErrInvalidMatrix is returned when matrix data violates the similarity invariants.
var ErrInvalidMatrix = errors.New("invalid similarity matrix")

// symmetryTolerance bounds the accepted |m[i][j] - m[j][i]| for decoded matrices.
const symmetryTolerance = 1e-9

// SimilarityMatrix is a dense, square, symmetric matrix of pairwise cosine
// similarities with a unit diagonal and entries in [0, 1].
//
// Building one costs O(n²) memory and O(n² · terms) time in the catalog size n.
// That quadratic cost is the scalability ceiling of the engine; it is only
// acceptable because the matrix is rebuilt on cache miss and catalogs are
// modest (tens of thousands of movies at most).
type SimilarityMatrix struct {
	n    int
	data []float64 // row-major
}

// NewSimilarityMatrix validates and wraps row-major data for an n×n matrix.
func NewSimilarityMatrix(n int, data []float64) (*SimilarityMatrix, error) {
	if n < 0 || len(data) != n*n {
		return nil, fmt.Errorf("%w: %d values for size %d", ErrInvalidMatrix, len(data), n)
	}

	for i := 0; i < n; i++ {
		if data[i*n+i] != 1 {
			return nil, fmt.Errorf("%w: diagonal [%d][%d] = %v", ErrInvalidMatrix, i, i, data[i*n+i])
		}
		for j := i + 1; j < n; j++ {
			a, b := data[i*n+j], data[j*n+i]
			if math.IsNaN(a) || a < 0 || a > 1 {
				return nil, fmt.Errorf("%w: [%d][%d] = %v out of range", ErrInvalidMatrix, i, j, a)
			}
			if math.Abs(a-b) > symmetryTolerance {
				return nil, fmt.Errorf("%w: [%d][%d] = %v but [%d][%d] = %v", ErrInvalidMatrix, i, j, a, j, i, b)
			}
		}
	}

	cp := make([]float64, len(data))
	copy(cp, data)
	return &SimilarityMatrix{n: n, data: cp}, nil
}

// Size returns the matrix dimension.
func (m *SimilarityMatrix) Size() int {
	return m.n
}

// At returns the similarity between positions i and j.
func (m *SimilarityMatrix) At(i, j int) float64 {
	return m.data[i*m.n+j]
}

// Row returns a copy of row i.
func (m *SimilarityMatrix) Row(i int) []float64 {
	row := make([]float64, m.n)
	copy(row, m.data[i*m.n:(i+1)*m.n])
	return row
}

// Data returns a copy of the row-major values, for serialization.
func (m *SimilarityMatrix) Data() []float64 {
	cp := make([]float64, len(m.data))
	copy(cp, m.data)
	return cp
}

// BuildSimilarityMatrix computes cosine similarity for every pair of rows.
// Rows are split across up to workers goroutines; workers <= 1 runs
// sequentially. The result is identical either way.
func BuildSimilarityMatrix(ctx context.Context, features *FeatureMatrix, workers int) (*SimilarityMatrix, error) {
	n := len(features.Rows)
	data := make([]float64, n*n)

	norms := make([]float64, n)
	for i := range features.Rows {
		norms[i] = features.Rows[i].Norm()
	}

	// Each row fills its upper triangle and mirrors it, so rows never write
	// the same cell twice.
	computeRow := func(i int) {
		data[i*n+i] = 1
		for j := i + 1; j < n; j++ {
			var sim float64
			if norms[i] > 0 && norms[j] > 0 {
				sim = features.Rows[i].Dot(&features.Rows[j]) / (norms[i] * norms[j])
			}
			sim = clampUnit(sim)
			data[i*n+j] = sim
			data[j*n+i] = sim
		}
	}

	if workers <= 1 {
		for i := 0; i < n; i++ {
			if i%64 == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
			}
			computeRow(i)
		}
		return &SimilarityMatrix{n: n, data: data}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		row := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			computeRow(row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build similarity rows: %w", err)
	}

	return &SimilarityMatrix{n: n, data: data}, nil
}

// clampUnit limits floating point drift to [0, 1].
func clampUnit(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
