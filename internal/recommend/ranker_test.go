// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"math"
	"reflect"
	"testing"
)

func defaultRanker() *Ranker {
	return NewRanker(DefaultConfig().Ranking)
}

func candidateIDs(cs []Candidate) []int {
	ids := make([]int, len(cs))
	for i := range cs {
		ids[i] = cs[i].MovieID
	}
	return ids
}

// distanceMatrix scores positions by 1/(1+|i-j|), so nearer positions rank higher.
func distanceMatrix(t *testing.T, n int) *SimilarityMatrix {
	t.Helper()
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			rows[i][j] = 1 / (1 + math.Abs(float64(i-j)))
		}
	}
	return mustMatrix(t, rows)
}

func TestRanker_Scenario(t *testing.T) {
	movies := scenarioMovies()
	cat := mustCatalog(t, movies)
	sim := buildMatrix(t, movies, 1)

	got, unmatched := defaultRanker().Rank(NewLikedSet(1), cat, sim)
	if unmatched != 0 {
		t.Errorf("unmatched = %d, want 0", unmatched)
	}
	if want := []int{2, 3}; !reflect.DeepEqual(candidateIDs(got), want) {
		t.Errorf("Rank() = %v, want %v", candidateIDs(got), want)
	}
}

func TestRanker_FullCatalogLiked(t *testing.T) {
	movies := scenarioMovies()
	got, _ := defaultRanker().Rank(NewLikedSet(1, 2, 3), mustCatalog(t, movies), buildMatrix(t, movies, 1))
	if len(got) != 0 {
		t.Errorf("Rank() = %v, want empty", candidateIDs(got))
	}
}

func TestRanker_UnknownLikedSkipped(t *testing.T) {
	movies := scenarioMovies()
	cat := mustCatalog(t, movies)
	sim := buildMatrix(t, movies, 1)

	tests := []struct {
		name          string
		liked         LikedSet
		wantIDs       []int
		wantUnmatched int
	}{
		{"only unknown", NewLikedSet(42, 43), []int{}, 2},
		{"mixed", NewLikedSet(1, 42), []int{2, 3}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, unmatched := defaultRanker().Rank(tt.liked, cat, sim)
			if unmatched != tt.wantUnmatched {
				t.Errorf("unmatched = %d, want %d", unmatched, tt.wantUnmatched)
			}
			if !reflect.DeepEqual(candidateIDs(got), tt.wantIDs) {
				t.Errorf("Rank() = %v, want %v", candidateIDs(got), tt.wantIDs)
			}
		})
	}
}

func TestRanker_TiesKeepCatalogOrder(t *testing.T) {
	cat := mustCatalog(t, []Movie{{ID: 40}, {ID: 30}, {ID: 20}, {ID: 10}})
	sim := mustMatrix(t, [][]float64{
		{1, 0.5, 0.5, 0.5},
		{0.5, 1, 0, 0},
		{0.5, 0, 1, 0},
		{0.5, 0, 0, 1},
	})

	got, _ := defaultRanker().Rank(NewLikedSet(40), cat, sim)
	if want := []int{30, 20, 10}; !reflect.DeepEqual(candidateIDs(got), want) {
		t.Errorf("Rank() = %v, want %v", candidateIDs(got), want)
	}
}

func TestRanker_SelfExcludedEvenWhenTied(t *testing.T) {
	// movie 2 is a duplicate of movie 1; self must still be dropped, not rank 0
	cat := mustCatalog(t, []Movie{{ID: 1}, {ID: 2}, {ID: 3}})
	sim := mustMatrix(t, [][]float64{
		{1, 1, 0.1},
		{1, 1, 0.1},
		{0.1, 0.1, 1},
	})

	r := &Ranker{PerItemK: 1, Limit: 10, Aggregation: AggregateMax}
	got, _ := r.Rank(NewLikedSet(2), cat, sim)
	if want := []int{1}; !reflect.DeepEqual(candidateIDs(got), want) {
		t.Errorf("Rank() = %v, want %v", candidateIDs(got), want)
	}
}

func TestRanker_Aggregation(t *testing.T) {
	cat := mustCatalog(t, []Movie{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}})
	sim := mustMatrix(t, [][]float64{
		{1, 0.1, 0.9, 0.6},
		{0.1, 1, 0.2, 0.6},
		{0.9, 0.2, 1, 0.3},
		{0.6, 0.6, 0.3, 1},
	})

	tests := []struct {
		name        string
		aggregation Aggregation
		want        []int
	}{
		{"max favours best single match", AggregateMax, []int{3, 4}},
		{"sum favours agreement", AggregateSum, []int{4, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Ranker{PerItemK: 5, Limit: 10, Aggregation: tt.aggregation}
			got, _ := r.Rank(NewLikedSet(1, 2), cat, sim)
			if !reflect.DeepEqual(candidateIDs(got), tt.want) {
				t.Errorf("Rank() = %v, want %v", candidateIDs(got), tt.want)
			}
			for _, c := range got {
				if len(c.Sources) != 2 {
					t.Errorf("candidate %d Sources = %v, want both liked movies", c.MovieID, c.Sources)
				}
			}
		})
	}
}

func TestRanker_LimitAndProperties(t *testing.T) {
	const n = 20
	movies := make([]Movie, n)
	for i := range movies {
		movies[i] = Movie{ID: i + 1}
	}
	cat := mustCatalog(t, movies)
	sim := distanceMatrix(t, n)
	liked := NewLikedSet(1, 11, 20)
	r := defaultRanker()

	first, _ := r.Rank(liked, cat, sim)
	if len(first) != 10 {
		t.Fatalf("len(Rank()) = %d, want 10", len(first))
	}

	seen := make(map[int]bool)
	for _, c := range first {
		if liked.Contains(c.MovieID) {
			t.Errorf("Rank() contains liked movie %d", c.MovieID)
		}
		if seen[c.MovieID] {
			t.Errorf("Rank() contains %d twice", c.MovieID)
		}
		seen[c.MovieID] = true
	}

	for i := 1; i < len(first); i++ {
		if first[i].Score > first[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, first[i].Score, first[i-1].Score)
		}
	}

	for run := 0; run < 5; run++ {
		again, _ := r.Rank(liked, cat, sim)
		if !reflect.DeepEqual(candidateIDs(again), candidateIDs(first)) {
			t.Fatalf("run %d: Rank() = %v, want %v", run, candidateIDs(again), candidateIDs(first))
		}
	}
}

func TestRanker_Similar(t *testing.T) {
	cat := mustCatalog(t, []Movie{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}})
	sim := distanceMatrix(t, 5)

	got := defaultRanker().Similar(2, 2, cat, sim)
	if want := []int{2, 4}; !reflect.DeepEqual(candidateIDs(got), want) {
		t.Errorf("Similar() = %v, want %v", candidateIDs(got), want)
	}
}
