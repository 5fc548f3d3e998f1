// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// Sentinel errors returned by the recommend package.
var (
	// ErrDuplicateMovie is returned when a catalog contains the same ID twice.
	ErrDuplicateMovie = errors.New("duplicate movie id in catalog")

	// ErrNoSource is returned when the engine has no data source configured.
	ErrNoSource = errors.New("data source not set")
)

// Movie is a single catalog record. Identity is ID; every other field is
// descriptive and read-only inside the engine.
type Movie struct {
	// ID is the unique movie identifier.
	ID int `json:"id"`

	// Title is the display title.
	Title string `json:"title"`

	// Description is the free-text synopsis.
	Description string `json:"description"`

	// Genre is the genre label (may contain several comma-separated genres).
	Genre string `json:"genre"`

	// Rating is the aggregate rating.
	Rating float64 `json:"rating"`

	// ReleaseYear is the year of release, nil when unknown.
	ReleaseYear *int `json:"release_year"`

	// PosterURL is the poster image location.
	PosterURL string `json:"poster_url"`
}

// Text returns the combined document used for vectorization:
// title, genre and description joined by single spaces.
func (m *Movie) Text() string {
	return m.Title + " " + m.Genre + " " + m.Description
}

// Catalog is an ordered, immutable snapshot of movies. Position i in the
// catalog is row and column i of any SimilarityMatrix computed from it.
// Positions are not stable across snapshots.
type Catalog struct {
	movies []Movie
	index  map[int]int // movie_id -> position
}

// NewCatalog builds a snapshot from movies in the given order.
// It returns ErrDuplicateMovie if an ID appears more than once.
func NewCatalog(movies []Movie) (*Catalog, error) {
	c := &Catalog{
		movies: make([]Movie, len(movies)),
		index:  make(map[int]int, len(movies)),
	}
	copy(c.movies, movies)

	for i := range c.movies {
		id := c.movies[i].ID
		if prev, exists := c.index[id]; exists {
			return nil, fmt.Errorf("%w: id %d at positions %d and %d", ErrDuplicateMovie, id, prev, i)
		}
		c.index[id] = i
	}

	return c, nil
}

// Len returns the number of movies in the snapshot.
func (c *Catalog) Len() int {
	return len(c.movies)
}

// At returns the movie at position i.
func (c *Catalog) At(i int) Movie {
	return c.movies[i]
}

// Position returns the catalog position of a movie ID.
func (c *Catalog) Position(id int) (int, bool) {
	pos, ok := c.index[id]
	return pos, ok
}

// Movies returns a copy of the snapshot in catalog order.
func (c *Catalog) Movies() []Movie {
	out := make([]Movie, len(c.movies))
	copy(out, c.movies)
	return out
}

// IDs returns the movie IDs in catalog order.
func (c *Catalog) IDs() []int {
	ids := make([]int, len(c.movies))
	for i := range c.movies {
		ids[i] = c.movies[i].ID
	}
	return ids
}

// LikedSet is the set of movie IDs a user has liked.
type LikedSet map[int]struct{}

// NewLikedSet creates a set from IDs. Duplicates collapse.
func NewLikedSet(ids ...int) LikedSet {
	s := make(LikedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is in the set.
func (s LikedSet) Contains(id int) bool {
	_, ok := s[id]
	return ok
}

// Len returns the set size.
func (s LikedSet) Len() int {
	return len(s)
}

// Sorted returns the IDs in ascending order.
func (s LikedSet) Sorted() []int {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Candidate is a ranked recommendation produced by the Ranker.
type Candidate struct {
	// MovieID is the recommended movie.
	MovieID int `json:"movie_id"`

	// Position is the movie's catalog position.
	Position int `json:"position"`

	// Score is the aggregated similarity to the liked movies.
	Score float64 `json:"score"`

	// Sources lists the liked movie IDs that contributed this candidate.
	Sources []int `json:"sources,omitempty"`
}

// ResultSource identifies which tier produced a recommendation result.
type ResultSource int

const (
	// SourceNone means neither tier produced anything.
	SourceNone ResultSource = iota
	// SourceContent means the content similarity ranker produced the result.
	SourceContent
	// SourcePopularity means the popularity fallback produced the result.
	SourcePopularity
)

// String returns the source name.
func (s ResultSource) String() string {
	switch s {
	case SourceContent:
		return "content"
	case SourcePopularity:
		return "popularity"
	default:
		return "none"
	}
}

// MarshalText encodes the source by name.
func (s ResultSource) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is the outcome of a recommendation request.
// An empty Movies slice is a valid terminal state.
type Result struct {
	// Movies are the recommended records in rank order.
	Movies []Movie `json:"movies"`

	// Source is the tier that produced Movies.
	Source ResultSource `json:"source"`

	// Metadata describes how the result was produced.
	Metadata ResultMetadata `json:"metadata"`
}

// ResultMetadata contains request diagnostics.
type ResultMetadata struct {
	// RequestID identifies the request in logs.
	RequestID string `json:"request_id"`

	// LikedCount is the size of the liked set.
	LikedCount int `json:"liked_count"`

	// UnmatchedLiked is the number of liked IDs missing from the catalog.
	UnmatchedLiked int `json:"unmatched_liked"`

	// CacheHit indicates the similarity matrix came from the cache.
	CacheHit bool `json:"cache_hit"`

	// Stale indicates a cached matrix was served for a different catalog.
	Stale bool `json:"stale,omitempty"`

	// Degraded lists the failures that were absorbed while producing the result.
	Degraded []string `json:"degraded,omitempty"`

	// LatencyMS is the end-to-end latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// Timestamp is when the result was produced.
	Timestamp time.Time `json:"timestamp"`
}

// CatalogSource returns the full movie catalog.
// This is typically implemented by the database layer.
type CatalogSource interface {
	// FetchAllMovies returns a consistently ordered, ID-unique catalog.
	// An empty result is valid.
	FetchAllMovies(ctx context.Context) ([]Movie, error)
}

// InteractionSource returns user interaction data.
type InteractionSource interface {
	// FetchLikedMovieIDs returns the IDs a user liked.
	FetchLikedMovieIDs(ctx context.Context, userID int) ([]int, error)

	// FetchPopularityRanking returns up to limit movie IDs ordered by the
	// number of likes descending, then ID ascending, skipping exclude.
	FetchPopularityRanking(ctx context.Context, exclude LikedSet, limit int) ([]int, error)
}

// Metrics contains engine counters.
type Metrics struct {
	// TotalRequests is the number of recommendation requests served.
	TotalRequests int64 `json:"total_requests"`

	// ContentResults counts results produced by the content ranker.
	ContentResults int64 `json:"content_results"`

	// PopularityResults counts results produced by the popularity fallback.
	PopularityResults int64 `json:"popularity_results"`

	// EmptyResults counts results with no recommendations.
	EmptyResults int64 `json:"empty_results"`

	// CacheHits counts similarity cache hits.
	CacheHits int64 `json:"cache_hits"`

	// CacheMisses counts similarity cache misses (including unusable entries).
	CacheMisses int64 `json:"cache_misses"`

	// StaleHits counts trusted cache hits for a changed catalog.
	StaleHits int64 `json:"stale_hits"`

	// MatrixBuilds counts similarity matrix computations.
	MatrixBuilds int64 `json:"matrix_builds"`

	// Errors counts absorbed failures.
	Errors int64 `json:"errors"`

	// LastBuildDuration is the duration of the most recent matrix build.
	LastBuildDuration time.Duration `json:"last_build_duration"`

	// LastBuildAt is when the matrix was last computed.
	LastBuildAt time.Time `json:"last_build_at"`
}
