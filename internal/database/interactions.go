// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// FetchLikedMovieIDs returns the movies the user has liked, ordered by id.
// An unknown user has no likes.
func (db *DB) FetchLikedMovieIDs(ctx context.Context, userID int) (ids []int, err error) {
	ctx, done := db.observe(ctx, "fetch_liked_movie_ids")
	defer func() { done(err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT movie_id
		FROM user_interactions
		WHERE user_id = $1 AND liked = TRUE
		ORDER BY movie_id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query liked movies: %w", err)
	}
	defer closeRows(rows, "fetch_liked_movie_ids")

	return scanIDs(rows)
}

// FetchPopularityRanking returns up to limit movie ids ordered by number of
// likes, most liked first, ties broken by ascending id. Movies in exclude are
// never returned. Movies nobody liked are never returned.
func (db *DB) FetchPopularityRanking(ctx context.Context, exclude recommend.LikedSet, limit int) (ids []int, err error) {
	ctx, done := db.observe(ctx, "fetch_popularity_ranking")
	defer func() { done(err) }()

	if limit <= 0 {
		return []int{}, nil
	}

	query, args := popularityQuery(exclude.Sorted(), limit)
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query popularity ranking: %w", err)
	}
	defer closeRows(rows, "fetch_popularity_ranking")

	return scanIDs(rows)
}

// popularityQuery builds the ranking query with one placeholder per excluded id.
func popularityQuery(exclude []int, limit int) (string, []interface{}) {
	var sb strings.Builder
	args := make([]interface{}, 0, len(exclude)+1)
	args = append(args, limit)

	sb.WriteString(`SELECT movie_id
		FROM user_interactions
		WHERE liked = TRUE`)
	if len(exclude) > 0 {
		sb.WriteString(` AND movie_id NOT IN (`)
		for i, id := range exclude {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("$" + strconv.Itoa(i+2))
			args = append(args, id)
		}
		sb.WriteString(`)`)
	}
	sb.WriteString(`
		GROUP BY movie_id
		ORDER BY COUNT(*) DESC, movie_id ASC
		LIMIT $1`)

	return sb.String(), args
}

// SetLike records whether the user likes the movie, creating the interaction
// row if needed.
func (db *DB) SetLike(ctx context.Context, userID, movieID int, liked bool) (err error) {
	ctx, done := db.observe(ctx, "set_like")
	defer func() { done(err) }()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO user_interactions (user_id, movie_id, liked)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET liked = EXCLUDED.liked`,
		userID, movieID, liked)
	if err != nil {
		return fmt.Errorf("set like for user %d movie %d: %w", userID, movieID, err)
	}
	return nil
}

type idRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanIDs(rows idRows) ([]int, error) {
	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ids: %w", err)
	}
	return ids, nil
}
