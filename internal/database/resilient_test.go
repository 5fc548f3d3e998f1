// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/recommend"
)

// stubStore is a Store whose failures are switched on and off.
type stubStore struct {
	fail  atomic.Bool
	calls atomic.Int32
	err   error
}

var errDatabaseDown = errors.New("database down")

func (s *stubStore) result() error {
	s.calls.Add(1)
	if s.fail.Load() {
		if s.err != nil {
			return s.err
		}
		return errDatabaseDown
	}
	return nil
}

func (s *stubStore) FetchAllMovies(context.Context) ([]recommend.Movie, error) {
	if err := s.result(); err != nil {
		return nil, err
	}
	return []recommend.Movie{{ID: 1, Title: "Heat"}}, nil
}

func (s *stubStore) FetchLikedMovieIDs(context.Context, int) ([]int, error) {
	if err := s.result(); err != nil {
		return nil, err
	}
	return []int{1, 2}, nil
}

func (s *stubStore) FetchPopularityRanking(context.Context, recommend.LikedSet, int) ([]int, error) {
	if err := s.result(); err != nil {
		return nil, err
	}
	return []int{3}, nil
}

func (s *stubStore) SetLike(context.Context, int, int, bool) error {
	return s.result()
}

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:      true,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      50 * time.Millisecond,
		MinRequests:  2,
		FailureRatio: 0.5,
	}
}

func TestResilient_PassThrough(t *testing.T) {
	store := &stubStore{}
	r := NewResilient(store, testBreakerConfig())
	ctx := context.Background()

	movies, err := r.FetchAllMovies(ctx)
	if err != nil || len(movies) != 1 || movies[0].ID != 1 {
		t.Errorf("FetchAllMovies() = %v, %v", movies, err)
	}
	liked, err := r.FetchLikedMovieIDs(ctx, 1)
	if err != nil || !reflect.DeepEqual(liked, []int{1, 2}) {
		t.Errorf("FetchLikedMovieIDs() = %v, %v", liked, err)
	}
	popular, err := r.FetchPopularityRanking(ctx, nil, 10)
	if err != nil || !reflect.DeepEqual(popular, []int{3}) {
		t.Errorf("FetchPopularityRanking() = %v, %v", popular, err)
	}
	if err := r.SetLike(ctx, 1, 2, true); err != nil {
		t.Errorf("SetLike() error = %v", err)
	}
	if r.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed", r.State())
	}
}

func TestResilient_OpensAndRecovers(t *testing.T) {
	store := &stubStore{}
	r := NewResilient(store, testBreakerConfig())
	ctx := context.Background()

	store.fail.Store(true)
	for i := 0; i < 2; i++ {
		if _, err := r.FetchAllMovies(ctx); !errors.Is(err, errDatabaseDown) {
			t.Fatalf("call %d error = %v, want errDatabaseDown", i, err)
		}
	}
	if r.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", r.State())
	}

	// open breaker rejects without reaching the store
	before := store.calls.Load()
	if _, err := r.FetchLikedMovieIDs(ctx, 1); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("error = %v, want ErrOpenState", err)
	}
	if store.calls.Load() != before {
		t.Error("open breaker should not call the store")
	}

	// after the timeout a successful probe closes it again
	store.fail.Store(false)
	time.Sleep(80 * time.Millisecond)
	if _, err := r.FetchAllMovies(ctx); err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if r.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed after successful probe", r.State())
	}
}

func TestResilient_CancellationIsNotAFailure(t *testing.T) {
	store := &stubStore{err: context.Canceled}
	r := NewResilient(store, testBreakerConfig())

	store.fail.Store(true)
	for i := 0; i < 5; i++ {
		_, _ = r.FetchAllMovies(context.Background())
	}
	if r.State() != gobreaker.StateClosed {
		t.Errorf("State() = %v, want closed; cancellations must not trip the breaker", r.State())
	}
}

func TestResilient_WrapsDB(t *testing.T) {
	db := setupTestDB(t)
	r := NewResilient(db, testBreakerConfig())
	ctx := context.Background()

	if err := r.SetLike(ctx, 1, 42, true); err != nil {
		t.Fatalf("SetLike() error = %v", err)
	}
	liked, err := r.FetchLikedMovieIDs(ctx, 1)
	if err != nil || !reflect.DeepEqual(liked, []int{42}) {
		t.Errorf("FetchLikedMovieIDs() = %v, %v; want [42]", liked, err)
	}
}

func TestStateToFloat(t *testing.T) {
	tests := []struct {
		state gobreaker.State
		want  float64
	}{
		{gobreaker.StateClosed, 0},
		{gobreaker.StateHalfOpen, 1},
		{gobreaker.StateOpen, 2},
	}
	for _, tt := range tests {
		if got := stateToFloat(tt.state); got != tt.want {
			t.Errorf("stateToFloat(%v) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
