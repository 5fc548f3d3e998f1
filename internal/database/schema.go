// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"fmt"
)

// schemaStatements is valid for both DuckDB and PostgreSQL.
// One row per (user, movie) pair; likes are upserted in place.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id           INTEGER PRIMARY KEY,
		title        VARCHAR,
		description  VARCHAR,
		genre        VARCHAR,
		rating       FLOAT8,
		release_year INTEGER,
		poster_url   VARCHAR
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id       INTEGER PRIMARY KEY,
		username VARCHAR UNIQUE,
		email    VARCHAR UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS user_interactions (
		user_id    INTEGER NOT NULL,
		movie_id   INTEGER NOT NULL,
		liked      BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, movie_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_interactions_movie ON user_interactions (movie_id)`,
}

// CreateSchema creates the movies, users and user_interactions tables if absent.
func (db *DB) CreateSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}
