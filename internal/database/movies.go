// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tomtom215/reelmatch/internal/recommend"
)

// FetchAllMovies returns every movie ordered by id. Catalog order must be
// stable between calls so that cached matrices line up with the catalog.
func (db *DB) FetchAllMovies(ctx context.Context) (movies []recommend.Movie, err error) {
	ctx, done := db.observe(ctx, "fetch_all_movies")
	defer func() { done(err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, description, genre, rating, release_year, poster_url
		FROM movies
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer closeRows(rows, "fetch_all_movies")

	for rows.Next() {
		var (
			m           recommend.Movie
			title       sql.NullString
			description sql.NullString
			genre       sql.NullString
			rating      sql.NullFloat64
			releaseYear sql.NullInt64
			posterURL   sql.NullString
		)
		if err := rows.Scan(&m.ID, &title, &description, &genre, &rating, &releaseYear, &posterURL); err != nil {
			return nil, fmt.Errorf("scan movie: %w", err)
		}

		// NULL text fields are treated as empty strings by the vectorizer
		m.Title = title.String
		m.Description = description.String
		m.Genre = genre.String
		m.Rating = rating.Float64
		m.PosterURL = posterURL.String
		if releaseYear.Valid {
			year := int(releaseYear.Int64)
			m.ReleaseYear = &year
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

// UpsertMovies inserts or replaces movies by id in one transaction.
func (db *DB) UpsertMovies(ctx context.Context, movies []recommend.Movie) (err error) {
	ctx, done := db.observe(ctx, "upsert_movies")
	defer func() { done(err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer rollbackQuietly(tx)

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO movies (id, title, description, genre, rating, release_year, poster_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			genre = EXCLUDED.genre,
			rating = EXCLUDED.rating,
			release_year = EXCLUDED.release_year,
			poster_url = EXCLUDED.poster_url`)
	if err != nil {
		return fmt.Errorf("prepare movie upsert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range movies {
		m := &movies[i]
		var year sql.NullInt64
		if m.ReleaseYear != nil {
			year = sql.NullInt64{Int64: int64(*m.ReleaseYear), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, m.ID, m.Title, m.Description, m.Genre, m.Rating, year, m.PosterURL); err != nil {
			return fmt.Errorf("upsert movie %d: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit movies: %w", err)
	}
	return nil
}

// CountMovies returns the number of movies in the catalog.
func (db *DB) CountMovies(ctx context.Context) (n int, err error) {
	ctx, done := db.observe(ctx, "count_movies")
	defer func() { done(err) }()

	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return n, nil
}
