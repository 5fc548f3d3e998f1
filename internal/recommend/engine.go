// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Note: This package has no dependencies on other internal packages. The
// CatalogSource, InteractionSource and SimilarityCache interfaces let the
// database and storage packages plug in without circular imports.

var (
	// ErrInvalidUserID is returned for non-positive user identifiers.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrUnknownMovie is returned when a movie ID is not in the catalog.
	ErrUnknownMovie = errors.New("movie not in catalog")

	// ErrRebuildThrottled is returned when forced rebuilds exceed the configured rate.
	ErrRebuildThrottled = errors.New("similarity rebuild throttled")
)

// Engine produces content-similarity recommendations with a popularity
// fallback. It is safe for concurrent use.
type Engine struct {
	// Configuration
	config *Config
	logger zerolog.Logger

	// Collaborators
	vectorizer   Vectorizer
	cache        SimilarityCache
	catalog      CatalogSource
	interactions InteractionSource
	ranker       *Ranker

	// Concurrent misses for the same catalog share one build.
	flight  singleflight.Group
	rebuild *rate.Limiter

	// Metrics
	requestCount      atomic.Int64
	contentResults    atomic.Int64
	popularityResults atomic.Int64
	emptyResults      atomic.Int64
	cacheHits         atomic.Int64
	cacheMisses       atomic.Int64
	staleHits         atomic.Int64
	matrixBuilds      atomic.Int64
	errorCount        atomic.Int64

	buildMu           sync.RWMutex
	lastBuildDuration time.Duration
	lastBuildAt       time.Time
}

// matrixResult is the similarity matrix chosen for one catalog.
type matrixResult struct {
	matrix   *SimilarityMatrix
	cacheHit bool
	stale    bool
}

// NewEngine creates a new recommendation engine using TF-IDF vectorization
// and no similarity cache. Sources and cache are attached with setters.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	limit := rate.Inf
	if cfg.Build.RebuildInterval > 0 {
		limit = rate.Every(cfg.Build.RebuildInterval)
	}

	return &Engine{
		config:     cfg,
		logger:     logger.With().Str("component", "recommend").Logger(),
		vectorizer: TFIDF{},
		ranker:     NewRanker(cfg.Ranking),
		rebuild:    rate.NewLimiter(limit, cfg.Build.RebuildBurst),
	}, nil
}

// SetCatalogSource sets the movie catalog source.
func (e *Engine) SetCatalogSource(src CatalogSource) {
	e.catalog = src
}

// SetInteractionSource sets the liked-interaction source.
func (e *Engine) SetInteractionSource(src InteractionSource) {
	e.interactions = src
}

// SetCache sets the similarity cache. A nil cache recomputes on every request.
func (e *Engine) SetCache(cache SimilarityCache) {
	e.cache = cache
}

// SetVectorizer replaces the default TF-IDF vectorizer.
func (e *Engine) SetVectorizer(v Vectorizer) {
	e.vectorizer = v
}

// RecommendForUser recommends movies for a user based on the movies they liked.
// Upstream failures degrade to an empty result; only an invalid user ID
// is returned as an error.
func (e *Engine) RecommendForUser(ctx context.Context, userID int) (*Result, error) {
	if userID <= 0 {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("%w: %d", ErrInvalidUserID, userID)
	}

	start := time.Now()
	requestID := uuid.NewString()
	logger := e.logger.With().Str("request_id", requestID).Int("user_id", userID).Logger()

	if e.interactions == nil {
		return e.degraded(requestID, start, logger, "liked_source", ErrNoSource), nil
	}

	sctx, cancel := context.WithTimeout(ctx, e.config.Limits.SourceTimeout)
	ids, err := e.interactions.FetchLikedMovieIDs(sctx, userID)
	cancel()
	if err != nil {
		return e.degraded(requestID, start, logger, "liked_source", err), nil
	}

	return e.recommend(ctx, NewLikedSet(ids...), requestID, start, logger), nil
}

// RecommendForLiked recommends movies for an explicit liked set.
// It never fails; the result may be empty.
func (e *Engine) RecommendForLiked(ctx context.Context, liked LikedSet) *Result {
	start := time.Now()
	requestID := uuid.NewString()
	logger := e.logger.With().Str("request_id", requestID).Logger()
	return e.recommend(ctx, liked, requestID, start, logger)
}

// recommend runs the content tier then the popularity tier.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) recommend(ctx context.Context, liked LikedSet, requestID string, start time.Time, logger zerolog.Logger) *Result {
	e.requestCount.Add(1)
	logger = logger.With().Int("liked", liked.Len()).Logger()
	logger.Debug().Msg("processing recommendation request")

	res := &Result{
		Movies: []Movie{},
		Source: SourceNone,
		Metadata: ResultMetadata{
			RequestID:  requestID,
			LikedCount: liked.Len(),
		},
	}

	if liked.Len() == 0 {
		logger.Debug().Msg("no liked movies")
		return e.finish(res, start)
	}

	cat, err := e.loadCatalog(ctx)
	if err != nil {
		e.absorb(res, logger, "catalog_source", err)
		return e.finish(res, start)
	}

	mr, err := e.similarity(ctx, cat, e.config.Cache.TrustCache, logger)
	if err != nil {
		e.absorb(res, logger, "similarity", err)
	} else {
		res.Metadata.CacheHit = mr.cacheHit
		res.Metadata.Stale = mr.stale

		candidates, unmatched := e.ranker.Rank(liked, cat, mr.matrix)
		res.Metadata.UnmatchedLiked = unmatched
		if unmatched > 0 {
			logger.Debug().Int("unmatched", unmatched).Msg("liked movies missing from catalog")
		}
		if len(candidates) > 0 {
			ids := make([]int, len(candidates))
			for i := range candidates {
				ids[i] = candidates[i].MovieID
			}
			res.Movies = materialize(cat, ids)
			res.Source = SourceContent
			return e.finish(res, start)
		}
	}

	ids, err := e.popularity(ctx, liked, e.config.Ranking.Limit)
	if err != nil {
		e.absorb(res, logger, "popularity_source", err)
		return e.finish(res, start)
	}
	if movies := materialize(cat, ids); len(movies) > 0 {
		res.Movies = movies
		res.Source = SourcePopularity
	}

	logger.Debug().
		Str("source", res.Source.String()).
		Int("returned", len(res.Movies)).
		Msg("recommendation complete")

	return e.finish(res, start)
}

// Similar returns the k movies most similar to movieID.
func (e *Engine) Similar(ctx context.Context, movieID, k int) ([]Movie, error) {
	k = e.clampK(k)

	cat, err := e.loadCatalog(ctx)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	pos, ok := cat.Position(movieID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMovie, movieID)
	}

	mr, err := e.similarity(ctx, cat, e.config.Cache.TrustCache, e.logger)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("similarity matrix: %w", err)
	}

	candidates := e.ranker.Similar(pos, k, cat, mr.matrix)
	ids := make([]int, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].MovieID
	}
	return materialize(cat, ids), nil
}

// Popular returns the k most liked movies.
func (e *Engine) Popular(ctx context.Context, k int) ([]Movie, error) {
	k = e.clampK(k)

	cat, err := e.loadCatalog(ctx)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	ids, err := e.popularity(ctx, nil, k)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("popularity ranking: %w", err)
	}
	return materialize(cat, ids), nil
}

// Movies returns the current catalog.
func (e *Engine) Movies(ctx context.Context) ([]Movie, error) {
	cat, err := e.loadCatalog(ctx)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat.Movies(), nil
}

// Warm makes sure the cache holds a matrix for the current catalog. Unlike
// request paths it ignores TrustCache, so a matrix cached for a different
// catalog is replaced.
func (e *Engine) Warm(ctx context.Context) error {
	cat, err := e.loadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if _, err := e.similarity(ctx, cat, false, e.logger); err != nil {
		return fmt.Errorf("similarity matrix: %w", err)
	}
	return nil
}

// Rebuild recomputes and stores the matrix regardless of cache contents.
// Calls beyond the configured rate return ErrRebuildThrottled.
func (e *Engine) Rebuild(ctx context.Context) error {
	if !e.rebuild.Allow() {
		return ErrRebuildThrottled
	}

	cat, err := e.loadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	fp := Fingerprint(cat)
	_, err = e.shared(ctx, "rebuild:"+fp, e.logger, func(bctx context.Context) (*matrixResult, error) {
		return e.buildAndStore(bctx, cat, fp, e.logger)
	})
	return err
}

// GetMetrics returns the current engine metrics.
func (e *Engine) GetMetrics() Metrics {
	e.buildMu.RLock()
	lastDuration, lastAt := e.lastBuildDuration, e.lastBuildAt
	e.buildMu.RUnlock()

	return Metrics{
		TotalRequests:     e.requestCount.Load(),
		ContentResults:    e.contentResults.Load(),
		PopularityResults: e.popularityResults.Load(),
		EmptyResults:      e.emptyResults.Load(),
		CacheHits:         e.cacheHits.Load(),
		CacheMisses:       e.cacheMisses.Load(),
		StaleHits:         e.staleHits.Load(),
		MatrixBuilds:      e.matrixBuilds.Load(),
		Errors:            e.errorCount.Load(),
		LastBuildDuration: lastDuration,
		LastBuildAt:       lastAt,
	}
}

// GetConfig returns a copy of the engine configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// loadCatalog fetches and indexes the catalog within the source timeout.
func (e *Engine) loadCatalog(ctx context.Context) (*Catalog, error) {
	if e.catalog == nil {
		return nil, ErrNoSource
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Limits.SourceTimeout)
	defer cancel()

	movies, err := e.catalog.FetchAllMovies(ctx)
	if err != nil {
		return nil, err
	}
	return NewCatalog(movies)
}

// popularity fetches the popularity ranking within the source timeout.
func (e *Engine) popularity(ctx context.Context, exclude LikedSet, limit int) ([]int, error) {
	if e.interactions == nil {
		return nil, ErrNoSource
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Limits.SourceTimeout)
	defer cancel()

	return e.interactions.FetchPopularityRanking(ctx, exclude, limit)
}

// similarity returns a matrix aligned with cat, from the cache when usable
// and otherwise freshly built and stored. trust allows a cached matrix whose
// fingerprint no longer matches the catalog.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) similarity(ctx context.Context, cat *Catalog, trust bool, logger zerolog.Logger) (*matrixResult, error) {
	fp := Fingerprint(cat)
	key := fp
	if !trust {
		key = "strict:" + fp
	}

	return e.shared(ctx, key, logger, func(bctx context.Context) (*matrixResult, error) {
		if mr := e.fromCache(bctx, cat, fp, trust, logger); mr != nil {
			return mr, nil
		}
		return e.buildAndStore(bctx, cat, fp, logger)
	})
}

// shared runs fn once per key for all concurrent callers. fn gets a context
// that is not cancelled with any one caller; it is still bounded by the
// build and cache timeouts. A caller whose ctx ends stops waiting and gets
// ctx.Err() while the others keep the shared result.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) shared(ctx context.Context, key string, logger zerolog.Logger, fn func(context.Context) (*matrixResult, error)) (*matrixResult, error) {
	detached := context.WithoutCancel(ctx)
	ch := e.flight.DoChan(key, func() (interface{}, error) {
		return fn(detached)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		if r.Shared {
			logger.Debug().Str("key", key).Msg("shared similarity lookup with concurrent request")
		}
		return r.Val.(*matrixResult), nil
	}
}

// fromCache returns the cached matrix if it can be used for cat, or nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) fromCache(ctx context.Context, cat *Catalog, fp string, trust bool, logger zerolog.Logger) *matrixResult {
	if e.cache == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Cache.Timeout)
	defer cancel()

	entry, err := e.cache.Load(ctx)
	switch {
	case errors.Is(err, ErrCacheMiss):
		e.cacheMisses.Add(1)
		logger.Debug().Msg("similarity cache empty")
		return nil
	case err != nil:
		e.cacheMisses.Add(1)
		e.errorCount.Add(1)
		logger.Warn().Err(err).Msg("similarity cache unreadable, recomputing")
		return nil
	case entry == nil || entry.Matrix == nil || entry.Matrix.Size() != cat.Len():
		e.cacheMisses.Add(1)
		size := -1
		if entry != nil && entry.Matrix != nil {
			size = entry.Matrix.Size()
		}
		logger.Warn().
			Int("cached_size", size).
			Int("catalog_size", cat.Len()).
			Msg("cached similarity matrix does not match catalog size, recomputing")
		return nil
	}

	if entry.Fingerprint != fp {
		if !trust {
			e.cacheMisses.Add(1)
			logger.Info().Msg("catalog changed since similarity matrix was cached, recomputing")
			return nil
		}
		e.cacheHits.Add(1)
		e.staleHits.Add(1)
		logger.Warn().
			Time("computed_at", entry.ComputedAt).
			Msg("serving cached similarity matrix computed for a different catalog")
		return &matrixResult{matrix: entry.Matrix, cacheHit: true, stale: true}
	}

	e.cacheHits.Add(1)
	return &matrixResult{matrix: entry.Matrix, cacheHit: true}
}

// buildAndStore vectorizes the catalog, builds the matrix and stores it.
// A store failure is logged and the matrix is still returned.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) buildAndStore(ctx context.Context, cat *Catalog, fp string, logger zerolog.Logger) (*matrixResult, error) {
	start := time.Now()

	bctx, cancel := context.WithTimeout(ctx, e.config.Limits.BuildTimeout)
	defer cancel()

	features, err := e.vectorizer.Vectorize(bctx, cat)
	if err != nil {
		return nil, fmt.Errorf("vectorize catalog: %w", err)
	}
	if features.Identity {
		logger.Warn().Int("movies", cat.Len()).Msg("catalog has no usable text, using identity similarity")
	}

	matrix, err := BuildSimilarityMatrix(bctx, features, e.config.Build.Workers)
	if err != nil {
		return nil, fmt.Errorf("build similarity matrix: %w", err)
	}

	elapsed := time.Since(start)
	e.matrixBuilds.Add(1)
	e.buildMu.Lock()
	e.lastBuildDuration = elapsed
	e.lastBuildAt = time.Now()
	e.buildMu.Unlock()

	logger.Info().
		Int("movies", cat.Len()).
		Int("terms", len(features.Vocabulary)).
		Dur("duration", elapsed).
		Msg("similarity matrix built")

	if e.cache != nil {
		sctx, scancel := context.WithTimeout(ctx, e.config.Cache.Timeout)
		defer scancel()

		entry := &CachedSimilarity{
			Matrix:      matrix,
			MovieIDs:    cat.IDs(),
			Fingerprint: fp,
			ComputedAt:  time.Now().UTC(),
		}
		if err := e.cache.Store(sctx, entry); err != nil {
			e.errorCount.Add(1)
			logger.Warn().Err(err).Msg("failed to store similarity matrix, continuing with computed matrix")
		}
	}

	return &matrixResult{matrix: matrix}, nil
}

// degraded returns an empty result for a failure before ranking started.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) degraded(requestID string, start time.Time, logger zerolog.Logger, stage string, err error) *Result {
	e.requestCount.Add(1)
	res := &Result{
		Movies:   []Movie{},
		Source:   SourceNone,
		Metadata: ResultMetadata{RequestID: requestID},
	}
	e.absorb(res, logger, stage, err)
	return e.finish(res, start)
}

// absorb records a failure that degrades the result instead of failing it.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func (e *Engine) absorb(res *Result, logger zerolog.Logger, stage string, err error) {
	e.errorCount.Add(1)
	res.Metadata.Degraded = append(res.Metadata.Degraded, stage+": "+err.Error())
	logger.Error().Err(err).Str("stage", stage).Msg("recommendation degraded")
}

// finish stamps timing and updates result counters.
func (e *Engine) finish(res *Result, start time.Time) *Result {
	switch {
	case len(res.Movies) == 0:
		e.emptyResults.Add(1)
	case res.Source == SourceContent:
		e.contentResults.Add(1)
	case res.Source == SourcePopularity:
		e.popularityResults.Add(1)
	}
	res.Metadata.LatencyMS = time.Since(start).Milliseconds()
	res.Metadata.Timestamp = time.Now()
	return res
}

// clampK applies the configured limits to a requested k.
func (e *Engine) clampK(k int) int {
	if k <= 0 {
		k = e.config.Ranking.Limit
	}
	if k > e.config.Limits.MaxK {
		k = e.config.Limits.MaxK
	}
	return k
}

// materialize maps IDs to catalog records in the given order, dropping IDs
// the catalog does not contain.
func materialize(cat *Catalog, ids []int) []Movie {
	movies := make([]Movie, 0, len(ids))
	for _, id := range ids {
		if pos, ok := cat.Position(id); ok {
			movies = append(movies, cat.At(pos))
		}
	}
	return movies
}
