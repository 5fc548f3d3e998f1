// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// mockCatalog implements CatalogSource for testing.
type mockCatalog struct {
	movies []Movie
	err    error
	calls  atomic.Int32
}

func (m *mockCatalog) FetchAllMovies(ctx context.Context) ([]Movie, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	return m.movies, nil
}

// mockInteractions implements InteractionSource for testing.
type mockInteractions struct {
	liked          map[int][]int
	popular        []int
	likedErr       error
	popularErr     error
	popularCalls   atomic.Int32
	lastExcludeLen atomic.Int32
}

func (m *mockInteractions) FetchLikedMovieIDs(ctx context.Context, userID int) ([]int, error) {
	if m.likedErr != nil {
		return nil, m.likedErr
	}
	return m.liked[userID], nil
}

func (m *mockInteractions) FetchPopularityRanking(ctx context.Context, exclude LikedSet, limit int) ([]int, error) {
	m.popularCalls.Add(1)
	m.lastExcludeLen.Store(int32(exclude.Len()))
	if m.popularErr != nil {
		return nil, m.popularErr
	}
	out := make([]int, 0, limit)
	for _, id := range m.popular {
		if exclude.Contains(id) {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, id)
	}
	return out, nil
}

// countingVectorizer wraps TFIDF and counts calls.
type countingVectorizer struct {
	calls atomic.Int32
}

func (v *countingVectorizer) Vectorize(ctx context.Context, cat *Catalog) (*FeatureMatrix, error) {
	v.calls.Add(1)
	return TFIDF{}.Vectorize(ctx, cat)
}

// gatedVectorizer blocks every Vectorize call until release is closed.
type gatedVectorizer struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func newGatedVectorizer() *gatedVectorizer {
	return &gatedVectorizer{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (v *gatedVectorizer) Vectorize(ctx context.Context, cat *Catalog) (*FeatureMatrix, error) {
	v.calls.Add(1)
	v.once.Do(func() { close(v.started) })
	select {
	case <-v.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return TFIDF{}.Vectorize(ctx, cat)
}

// memoryCache implements SimilarityCache in memory.
type memoryCache struct {
	mu       sync.Mutex
	entry    *CachedSimilarity
	loadErr  error
	storeErr error
	stores   atomic.Int32
}

func (c *memoryCache) Load(ctx context.Context) (*CachedSimilarity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loadErr != nil {
		return nil, c.loadErr
	}
	if c.entry == nil {
		return nil, ErrCacheMiss
	}
	return c.entry, nil
}

func (c *memoryCache) Store(ctx context.Context, entry *CachedSimilarity) error {
	c.stores.Add(1)
	if c.storeErr != nil {
		return c.storeErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = entry
	return nil
}

type engineFixture struct {
	engine       *Engine
	catalog      *mockCatalog
	interactions *mockInteractions
	vectorizer   *countingVectorizer
	cache        *memoryCache
}

func newEngineFixture(t *testing.T, modify func(*Config)) *engineFixture {
	t.Helper()
	cfg := DefaultConfig()
	if modify != nil {
		modify(cfg)
	}
	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	f := &engineFixture{
		engine:       engine,
		catalog:      &mockCatalog{movies: scenarioMovies()},
		interactions: &mockInteractions{liked: map[int][]int{7: {1}}, popular: []int{3, 2, 1}},
		vectorizer:   &countingVectorizer{},
		cache:        &memoryCache{},
	}
	engine.SetCatalogSource(f.catalog)
	engine.SetInteractionSource(f.interactions)
	engine.SetVectorizer(f.vectorizer)
	engine.SetCache(f.cache)
	return f
}

func movieIDs(movies []Movie) []int {
	ids := make([]int, len(movies))
	for i := range movies {
		ids[i] = movies[i].ID
	}
	return ids
}

func TestNewEngine_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ranking.Limit = 0
	if _, err := NewEngine(cfg, zerolog.Nop()); err == nil {
		t.Error("NewEngine() error = nil, want invalid config error")
	}
}

func TestEngine_CacheMissThenHit(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	first, err := f.engine.RecommendForUser(ctx, 7)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if first.Source != SourceContent {
		t.Errorf("Source = %v, want content", first.Source)
	}
	if first.Metadata.CacheHit {
		t.Error("first call CacheHit = true, want false")
	}
	if f.cache.stores.Load() != 1 {
		t.Errorf("cache stores = %d, want 1", f.cache.stores.Load())
	}

	second, err := f.engine.RecommendForUser(ctx, 7)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if !second.Metadata.CacheHit {
		t.Error("second call CacheHit = false, want true")
	}
	if got := f.vectorizer.calls.Load(); got != 1 {
		t.Errorf("vectorizer calls = %d, want 1", got)
	}
	if !reflect.DeepEqual(movieIDs(first.Movies), movieIDs(second.Movies)) {
		t.Errorf("second result %v differs from first %v", movieIDs(second.Movies), movieIDs(first.Movies))
	}
	if want := []int{2, 3}; !reflect.DeepEqual(movieIDs(second.Movies), want) {
		t.Errorf("Movies = %v, want %v", movieIDs(second.Movies), want)
	}

	m := f.engine.GetMetrics()
	if m.CacheHits != 1 || m.CacheMisses != 1 || m.MatrixBuilds != 1 {
		t.Errorf("metrics hits=%d misses=%d builds=%d, want 1/1/1", m.CacheHits, m.CacheMisses, m.MatrixBuilds)
	}
}

func TestEngine_PopularityFallback(t *testing.T) {
	tests := []struct {
		name  string
		liked []int
		want  []int
	}{
		{"whole catalog liked", []int{1, 2, 3}, []int{}},
		{"only unknown ids", []int{40, 41}, []int{3, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, nil)
			res := f.engine.RecommendForLiked(context.Background(), NewLikedSet(tt.liked...))

			if f.interactions.popularCalls.Load() != 1 {
				t.Fatalf("popularity calls = %d, want 1", f.interactions.popularCalls.Load())
			}
			if got := int(f.interactions.lastExcludeLen.Load()); got != len(tt.liked) {
				t.Errorf("exclude size = %d, want %d", got, len(tt.liked))
			}
			if !reflect.DeepEqual(movieIDs(res.Movies), tt.want) {
				t.Errorf("Movies = %v, want %v", movieIDs(res.Movies), tt.want)
			}
			wantSource := SourcePopularity
			if len(tt.want) == 0 {
				wantSource = SourceNone
			}
			if res.Source != wantSource {
				t.Errorf("Source = %v, want %v", res.Source, wantSource)
			}
		})
	}
}

func TestEngine_PopularityDropsUnknownIDs(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.interactions.popular = []int{99, 2}

	res := f.engine.RecommendForLiked(context.Background(), NewLikedSet(1, 3, 50))
	// 1 and 3 only neighbour each other and 2, so content ranking still applies
	if res.Source != SourceContent {
		t.Fatalf("Source = %v, want content", res.Source)
	}

	f.catalog.movies = []Movie{{ID: 2, Title: "Heat"}}
	res = f.engine.RecommendForLiked(context.Background(), NewLikedSet(5))
	if want := []int{2}; !reflect.DeepEqual(movieIDs(res.Movies), want) {
		t.Errorf("Movies = %v, want %v", movieIDs(res.Movies), want)
	}
}

func TestEngine_EmptyLikedSet(t *testing.T) {
	f := newEngineFixture(t, nil)

	res, err := f.engine.RecommendForUser(context.Background(), 8)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if len(res.Movies) != 0 || res.Source != SourceNone {
		t.Errorf("result = %v (%v), want empty", movieIDs(res.Movies), res.Source)
	}
	if f.interactions.popularCalls.Load() != 0 {
		t.Error("popularity fallback called for empty liked set")
	}
	if f.catalog.calls.Load() != 0 {
		t.Error("catalog fetched for empty liked set")
	}
}

func TestEngine_InvalidUserID(t *testing.T) {
	f := newEngineFixture(t, nil)

	for _, id := range []int{0, -3} {
		if _, err := f.engine.RecommendForUser(context.Background(), id); !errors.Is(err, ErrInvalidUserID) {
			t.Errorf("RecommendForUser(%d) error = %v, want ErrInvalidUserID", id, err)
		}
	}
}

func TestEngine_UpstreamFailuresDegrade(t *testing.T) {
	boom := errors.New("connection refused")

	tests := []struct {
		name   string
		modify func(*engineFixture)
	}{
		{"liked source down", func(f *engineFixture) { f.interactions.likedErr = boom }},
		{"catalog down", func(f *engineFixture) { f.catalog.err = boom }},
		{"duplicate catalog ids", func(f *engineFixture) {
			f.catalog.movies = append(scenarioMovies(), Movie{ID: 1})
		}},
		{"no catalog source", func(f *engineFixture) { f.engine.SetCatalogSource(nil) }},
		{"no interaction source", func(f *engineFixture) { f.engine.SetInteractionSource(nil) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, nil)
			tt.modify(f)

			res, err := f.engine.RecommendForUser(context.Background(), 7)
			if err != nil {
				t.Fatalf("RecommendForUser() error = %v, want degraded result", err)
			}
			if len(res.Movies) != 0 {
				t.Errorf("Movies = %v, want empty", movieIDs(res.Movies))
			}
			if res.Movies == nil {
				t.Error("Movies = nil, want empty slice")
			}
			if len(res.Metadata.Degraded) == 0 {
				t.Error("Degraded is empty, want failure recorded")
			}
		})
	}
}

func TestEngine_PopularityFailureDegrades(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.interactions.popularErr = errors.New("timeout")

	res := f.engine.RecommendForLiked(context.Background(), NewLikedSet(1, 2, 3))
	if len(res.Movies) != 0 || len(res.Metadata.Degraded) != 1 {
		t.Errorf("result = %v degraded=%v, want empty with one failure", movieIDs(res.Movies), res.Metadata.Degraded)
	}
}

func TestEngine_CacheFailuresDoNotFailRequest(t *testing.T) {
	tests := []struct {
		name     string
		loadErr  error
		storeErr error
	}{
		{"corrupt cache", errors.New("checksum mismatch"), nil},
		{"read-only cache", nil, errors.New("permission denied")},
		{"both", errors.New("checksum mismatch"), errors.New("permission denied")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, nil)
			f.cache.loadErr = tt.loadErr
			f.cache.storeErr = tt.storeErr

			res, err := f.engine.RecommendForUser(context.Background(), 7)
			if err != nil {
				t.Fatalf("RecommendForUser() error = %v", err)
			}
			if want := []int{2, 3}; !reflect.DeepEqual(movieIDs(res.Movies), want) {
				t.Errorf("Movies = %v, want %v", movieIDs(res.Movies), want)
			}
			if f.vectorizer.calls.Load() != 1 {
				t.Errorf("vectorizer calls = %d, want 1", f.vectorizer.calls.Load())
			}
		})
	}
}

func TestEngine_NoCacheRecomputes(t *testing.T) {
	f := newEngineFixture(t, nil)
	f.engine.SetCache(nil)

	for i := 0; i < 3; i++ {
		f.engine.RecommendForLiked(context.Background(), NewLikedSet(1))
	}
	if got := f.vectorizer.calls.Load(); got != 3 {
		t.Errorf("vectorizer calls = %d, want 3", got)
	}
}

func TestEngine_TrustCache(t *testing.T) {
	staleEntry := func() *CachedSimilarity {
		// same size as the catalog but computed for different contents
		return &CachedSimilarity{
			Matrix: mustMatrix(t, [][]float64{
				{1, 0, 0.8},
				{0, 1, 0},
				{0.8, 0, 1},
			}),
			MovieIDs:    []int{1, 2, 3},
			Fingerprint: "previous-catalog",
			ComputedAt:  time.Now().Add(-time.Hour),
		}
	}

	tests := []struct {
		name        string
		trust       bool
		wantBuilds  int32
		wantStale   bool
		wantMovies  []int
		wantHit     bool
		wantStaleCt int64
	}{
		{"trusted stale cache is served", true, 0, true, []int{3, 2}, true, 1},
		{"untrusted stale cache is recomputed", false, 1, false, []int{2, 3}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, func(c *Config) { c.Cache.TrustCache = tt.trust })
			f.cache.entry = staleEntry()

			res := f.engine.RecommendForLiked(context.Background(), NewLikedSet(1))
			if got := f.vectorizer.calls.Load(); got != tt.wantBuilds {
				t.Errorf("vectorizer calls = %d, want %d", got, tt.wantBuilds)
			}
			if res.Metadata.Stale != tt.wantStale {
				t.Errorf("Stale = %v, want %v", res.Metadata.Stale, tt.wantStale)
			}
			if res.Metadata.CacheHit != tt.wantHit {
				t.Errorf("CacheHit = %v, want %v", res.Metadata.CacheHit, tt.wantHit)
			}
			if !reflect.DeepEqual(movieIDs(res.Movies), tt.wantMovies) {
				t.Errorf("Movies = %v, want %v", movieIDs(res.Movies), tt.wantMovies)
			}
			if got := f.engine.GetMetrics().StaleHits; got != tt.wantStaleCt {
				t.Errorf("StaleHits = %d, want %d", got, tt.wantStaleCt)
			}
		})
	}
}

func TestEngine_DimensionMismatchAlwaysRecomputes(t *testing.T) {
	f := newEngineFixture(t, func(c *Config) { c.Cache.TrustCache = true })
	f.cache.entry = &CachedSimilarity{
		Matrix:      mustMatrix(t, [][]float64{{1, 0.5}, {0.5, 1}}),
		MovieIDs:    []int{1, 2},
		Fingerprint: "two-movie-catalog",
	}

	res := f.engine.RecommendForLiked(context.Background(), NewLikedSet(1))
	if f.vectorizer.calls.Load() != 1 {
		t.Errorf("vectorizer calls = %d, want 1", f.vectorizer.calls.Load())
	}
	if res.Metadata.CacheHit {
		t.Error("CacheHit = true, want false")
	}
	if f.cache.entry.Matrix.Size() != 3 {
		t.Errorf("stored matrix size = %d, want 3", f.cache.entry.Matrix.Size())
	}
}

func TestEngine_ConcurrentRequests(t *testing.T) {
	f := newEngineFixture(t, nil)

	var wg sync.WaitGroup
	results := make([][]int, 16)
	for i := range results {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			res := f.engine.RecommendForLiked(context.Background(), NewLikedSet(1))
			results[idx] = movieIDs(res.Movies)
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		if want := []int{2, 3}; !reflect.DeepEqual(got, want) {
			t.Errorf("request %d: Movies = %v, want %v", i, got, want)
		}
	}
	if got := f.engine.GetMetrics().TotalRequests; got != 16 {
		t.Errorf("TotalRequests = %d, want 16", got)
	}
}

func TestEngine_Similar(t *testing.T) {
	f := newEngineFixture(t, nil)

	got, err := f.engine.Similar(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Similar() error = %v", err)
	}
	if want := []int{2}; !reflect.DeepEqual(movieIDs(got), want) {
		t.Errorf("Similar() = %v, want %v", movieIDs(got), want)
	}

	if _, err := f.engine.Similar(context.Background(), 404, 5); !errors.Is(err, ErrUnknownMovie) {
		t.Errorf("Similar(404) error = %v, want ErrUnknownMovie", err)
	}
}

func TestEngine_Popular(t *testing.T) {
	f := newEngineFixture(t, nil)

	got, err := f.engine.Popular(context.Background(), 2)
	if err != nil {
		t.Fatalf("Popular() error = %v", err)
	}
	if want := []int{3, 2}; !reflect.DeepEqual(movieIDs(got), want) {
		t.Errorf("Popular() = %v, want %v", movieIDs(got), want)
	}

	f.interactions.popularErr = errors.New("down")
	if _, err := f.engine.Popular(context.Background(), 2); err == nil {
		t.Error("Popular() error = nil, want error")
	}
}

func TestEngine_WarmAndRebuild(t *testing.T) {
	f := newEngineFixture(t, func(c *Config) {
		c.Build.RebuildInterval = time.Hour
		c.Build.RebuildBurst = 1
	})
	ctx := context.Background()

	if err := f.engine.Warm(ctx); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if err := f.engine.Warm(ctx); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if got := f.vectorizer.calls.Load(); got != 1 {
		t.Errorf("vectorizer calls after two warms = %d, want 1", got)
	}

	if err := f.engine.Rebuild(ctx); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if got := f.vectorizer.calls.Load(); got != 2 {
		t.Errorf("vectorizer calls after rebuild = %d, want 2", got)
	}
	if err := f.engine.Rebuild(ctx); !errors.Is(err, ErrRebuildThrottled) {
		t.Errorf("second Rebuild() error = %v, want ErrRebuildThrottled", err)
	}

	f.catalog.err = errors.New("down")
	if err := f.engine.Warm(ctx); err == nil {
		t.Error("Warm() error = nil, want catalog error")
	}
}

func TestEngine_CancelledRequestDoesNotFailSharedBuild(t *testing.T) {
	f := newEngineFixture(t, nil)
	gate := newGatedVectorizer()
	f.engine.SetVectorizer(gate)

	cancelCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cancelledDone := make(chan *Result, 1)
	go func() {
		cancelledDone <- f.engine.RecommendForLiked(cancelCtx, NewLikedSet(1))
	}()
	<-gate.started

	waitingDone := make(chan *Result, 1)
	go func() {
		waitingDone <- f.engine.RecommendForLiked(context.Background(), NewLikedSet(1))
	}()
	// let the second request join the in-flight build
	time.Sleep(50 * time.Millisecond)

	cancel()
	cancelled := <-cancelledDone
	if len(cancelled.Metadata.Degraded) == 0 {
		t.Error("cancelled request Degraded is empty, want similarity failure")
	}

	close(gate.release)
	res := <-waitingDone

	if res.Source != SourceContent {
		t.Errorf("Source = %v, want %v (degraded: %v)", res.Source, SourceContent, res.Metadata.Degraded)
	}
	if len(res.Metadata.Degraded) != 0 {
		t.Errorf("Degraded = %v, want none", res.Metadata.Degraded)
	}
	if want := []int{2, 3}; !reflect.DeepEqual(movieIDs(res.Movies), want) {
		t.Errorf("Movies = %v, want %v", movieIDs(res.Movies), want)
	}
	if got := gate.calls.Load(); got != 1 {
		t.Errorf("vectorizer calls = %d, want 1", got)
	}
	if got := f.cache.stores.Load(); got != 1 {
		t.Errorf("cache stores = %d, want 1", got)
	}
}

func TestEngine_RebuildOutlivesCancelledCaller(t *testing.T) {
	f := newEngineFixture(t, nil)
	gate := newGatedVectorizer()
	f.engine.SetVectorizer(gate)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- f.engine.Rebuild(ctx) }()
	<-gate.started

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("Rebuild() error = %v, want context.Canceled", err)
	}

	close(gate.release)
	storedFingerprint := func() string {
		f.cache.mu.Lock()
		defer f.cache.mu.Unlock()
		if f.cache.entry == nil {
			return ""
		}
		return f.cache.entry.Fingerprint
	}
	deadline := time.Now().Add(5 * time.Second)
	fp := storedFingerprint()
	for fp == "" {
		if time.Now().After(deadline) {
			t.Fatal("rebuild was abandoned with its caller, matrix never stored")
		}
		time.Sleep(10 * time.Millisecond)
		fp = storedFingerprint()
	}

	cat, err := NewCatalog(scenarioMovies())
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	if fp != Fingerprint(cat) {
		t.Errorf("stored Fingerprint = %q, want current catalog", fp)
	}
}

func TestEngine_WarmReplacesStaleMatrix(t *testing.T) {
	f := newEngineFixture(t, func(c *Config) { c.Cache.TrustCache = true })
	f.cache.entry = &CachedSimilarity{
		Matrix: mustMatrix(t, [][]float64{
			{1, 0, 0.8},
			{0, 1, 0},
			{0.8, 0, 1},
		}),
		MovieIDs:    []int{1, 2, 3},
		Fingerprint: "previous-catalog",
	}

	if err := f.engine.Warm(context.Background()); err != nil {
		t.Fatalf("Warm() error = %v", err)
	}
	if got := f.vectorizer.calls.Load(); got != 1 {
		t.Errorf("vectorizer calls = %d, want 1", got)
	}

	cat, err := NewCatalog(scenarioMovies())
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	if got := f.cache.entry.Fingerprint; got != Fingerprint(cat) {
		t.Errorf("cached Fingerprint = %q after Warm, want current catalog", got)
	}

	// requests now see a fresh matrix
	res := f.engine.RecommendForLiked(context.Background(), NewLikedSet(1))
	if res.Metadata.Stale {
		t.Error("Stale = true after Warm, want false")
	}
	if want := []int{2, 3}; !reflect.DeepEqual(movieIDs(res.Movies), want) {
		t.Errorf("Movies = %v, want %v", movieIDs(res.Movies), want)
	}
}
