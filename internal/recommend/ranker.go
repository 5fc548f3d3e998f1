// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"sort"
)

// Aggregation controls how a candidate reached from several liked movies is scored.
type Aggregation string

const (
	// AggregateMax scores a candidate by its best similarity to any liked movie.
	AggregateMax Aggregation = "max"
	// AggregateSum scores a candidate by the sum of its similarities.
	AggregateSum Aggregation = "sum"
)

// Ranker turns a liked set into ranked candidates using an aligned
// catalog and similarity matrix.
type Ranker struct {
	// PerItemK is the number of neighbours taken from each liked movie.
	PerItemK int

	// Limit caps the final candidate list.
	Limit int

	// Aggregation selects max or sum scoring across liked movies.
	Aggregation Aggregation
}

// NewRanker creates a ranker from the ranking configuration.
func NewRanker(cfg RankingConfig) *Ranker {
	return &Ranker{
		PerItemK:    cfg.PerItemK,
		Limit:       cfg.Limit,
		Aggregation: cfg.Aggregation,
	}
}

// neighbour is one entry of a sorted similarity row.
type neighbour struct {
	pos   int
	score float64
}

// Rank returns up to Limit candidates ordered by aggregated score descending,
// then catalog position ascending. Liked IDs missing from the catalog are
// skipped; unmatched reports how many. Liked movies never appear in the output.
// The caller must pass a non-empty liked set.
func (r *Ranker) Rank(liked LikedSet, cat *Catalog, sim *SimilarityMatrix) (candidates []Candidate, unmatched int) {
	byPos := make(map[int]*Candidate)

	for _, id := range liked.Sorted() {
		pos, ok := cat.Position(id)
		if !ok || pos >= sim.Size() {
			unmatched++
			continue
		}

		for _, nb := range r.neighbours(pos, sim) {
			movieID := cat.At(nb.pos).ID
			if liked.Contains(movieID) {
				continue
			}
			c, seen := byPos[nb.pos]
			if !seen {
				byPos[nb.pos] = &Candidate{MovieID: movieID, Position: nb.pos, Score: nb.score, Sources: []int{id}}
				continue
			}
			c.Sources = append(c.Sources, id)
			if r.Aggregation == AggregateSum {
				c.Score += nb.score
			} else if nb.score > c.Score {
				c.Score = nb.score
			}
		}
	}

	candidates = make([]Candidate, 0, len(byPos))
	for _, c := range byPos {
		candidates = append(candidates, *c)
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Position < candidates[j].Position
	})

	if r.Limit > 0 && len(candidates) > r.Limit {
		candidates = candidates[:r.Limit]
	}
	return candidates, unmatched
}

// neighbours returns the PerItemK most similar positions to pos, excluding pos
// itself. Ties keep catalog order.
func (r *Ranker) neighbours(pos int, sim *SimilarityMatrix) []neighbour {
	row := sim.Row(pos)
	nbs := make([]neighbour, 0, len(row))
	for j, score := range row {
		if j == pos {
			continue
		}
		nbs = append(nbs, neighbour{pos: j, score: score})
	}

	sort.SliceStable(nbs, func(a, b int) bool {
		return nbs[a].score > nbs[b].score
	})

	if len(nbs) > r.PerItemK {
		nbs = nbs[:r.PerItemK]
	}
	return nbs
}

// Similar returns the k nearest neighbours of the movie at pos.
func (r *Ranker) Similar(pos, k int, cat *Catalog, sim *SimilarityMatrix) []Candidate {
	nr := &Ranker{PerItemK: k}
	nbs := nr.neighbours(pos, sim)
	out := make([]Candidate, len(nbs))
	source := cat.At(pos).ID
	for i, nb := range nbs {
		out[i] = Candidate{MovieID: cat.At(nb.pos).ID, Position: nb.pos, Score: nb.score, Sources: []int{source}}
	}
	return out
}
