// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"errors"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/metrics"
	"github.com/tomtom215/reelmatch/internal/recommend"
)

// Store is the data access surface the engine and API depend on.
type Store interface {
	recommend.CatalogSource
	recommend.InteractionSource
	SetLike(ctx context.Context, userID, movieID int, liked bool) error
}

// Resilient wraps a Store with a circuit breaker. While the breaker is open,
// calls fail immediately with gobreaker.ErrOpenState instead of waiting on a
// database that is already failing; the engine then degrades as it would for
// any other upstream error.
//
// The breaker uses real time for its interval and timeout. Tests exercise it
// with small MinRequests and short timeouts rather than a fake clock.
type Resilient struct {
	store Store
	cb    *gobreaker.CircuitBreaker[any]
	name  string
}

// NewResilient wraps store with a breaker configured from cfg.
func NewResilient(store Store, cfg config.CircuitBreakerConfig) *Resilient {
	const name = "database"

	metrics.CircuitBreakerState.WithLabelValues(name).Set(0)

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Uint32("requests", counts.Requests).
					Float64("failure_ratio", ratio).
					Msg("Opening database circuit breaker")
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// A caller giving up is not a database failure.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &Resilient{store: store, cb: cb, name: name}
}

// State returns the breaker state.
func (r *Resilient) State() gobreaker.State {
	return r.cb.State()
}

// execute runs fn through the breaker and records the outcome.
func (r *Resilient) execute(fn func() (any, error)) (any, error) {
	result, err := r.cb.Execute(fn)
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(r.name, "success").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(r.name, "rejected").Inc()
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(r.name, "failure").Inc()
	}
	return result, err
}

// castResult type-asserts a breaker result.
func castResult[T any](result any, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// FetchAllMovies implements recommend.CatalogSource.
func (r *Resilient) FetchAllMovies(ctx context.Context) ([]recommend.Movie, error) {
	return castResult[[]recommend.Movie](r.execute(func() (any, error) {
		return r.store.FetchAllMovies(ctx)
	}))
}

// FetchLikedMovieIDs implements recommend.InteractionSource.
func (r *Resilient) FetchLikedMovieIDs(ctx context.Context, userID int) ([]int, error) {
	return castResult[[]int](r.execute(func() (any, error) {
		return r.store.FetchLikedMovieIDs(ctx, userID)
	}))
}

// FetchPopularityRanking implements recommend.InteractionSource.
func (r *Resilient) FetchPopularityRanking(ctx context.Context, exclude recommend.LikedSet, limit int) ([]int, error) {
	return castResult[[]int](r.execute(func() (any, error) {
		return r.store.FetchPopularityRanking(ctx, exclude, limit)
	}))
}

// SetLike records a like through the breaker.
func (r *Resilient) SetLike(ctx context.Context, userID, movieID int, liked bool) error {
	_, err := r.execute(func() (any, error) {
		return nil, r.store.SetLike(ctx, userID, movieID, liked)
	})
	return err
}

// stateToFloat converts a breaker state to the gauge value.
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
