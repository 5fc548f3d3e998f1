// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

/*
Package database provides the movie catalog and user interaction store.

Two drivers are supported through database/sql:

  - duckdb (default): embedded DuckDB file, or in-memory when the path is empty
  - pgx: PostgreSQL via github.com/jackc/pgx/v5/stdlib

All SQL uses $n placeholders and DDL that both engines accept.

# Schema

	movies(id, title, description, genre, rating, release_year, poster_url)
	users(id, username, email)
	user_interactions(user_id, movie_id, liked, created_at)
	    PRIMARY KEY (user_id, movie_id)

# Data Access

DB implements recommend.CatalogSource and recommend.InteractionSource:

  - FetchAllMovies: every movie ordered by id
  - FetchLikedMovieIDs: liked movie ids for one user
  - FetchPopularityRanking: most-liked movies, excluding a set, ties by id

SetLike upserts a single interaction. Seed loads a demo catalog into an
empty database.

Every query is bounded by DatabaseConfig.QueryTimeout and recorded in the
reelmatch_db_query_* Prometheus metrics.

# Circuit Breaker

Resilient wraps any Store with sony/gobreaker. The engine treats breaker
rejections like any other upstream failure and degrades.
*/
package database
