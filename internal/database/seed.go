// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"fmt"

	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/recommend"
)

func year(y int) *int { return &y }

// demoMovies is a small catalog with overlapping genres and plot vocabulary
// so that content similarity produces visible clusters.
var demoMovies = []recommend.Movie{
	{ID: 1, Title: "The Matrix", Genre: "Action Sci-Fi", Rating: 8.7, ReleaseYear: year(1999),
		Description: "A hacker discovers reality is a simulation run by machines and joins a rebellion against them."},
	{ID: 2, Title: "Inception", Genre: "Action Sci-Fi Thriller", Rating: 8.8, ReleaseYear: year(2010),
		Description: "A thief who steals secrets through dream sharing technology is given the task of planting an idea."},
	{ID: 3, Title: "Blade Runner", Genre: "Sci-Fi Noir", Rating: 8.1, ReleaseYear: year(1982),
		Description: "A detective hunts rogue replicants, machines built to look human, in a rain soaked future city."},
	{ID: 4, Title: "The Terminator", Genre: "Action Sci-Fi", Rating: 8.1, ReleaseYear: year(1984),
		Description: "A cyborg assassin is sent back in time by machines to kill the mother of a future rebellion leader."},
	{ID: 5, Title: "Interstellar", Genre: "Sci-Fi Drama", Rating: 8.7, ReleaseYear: year(2014),
		Description: "Explorers travel through a wormhole in space to find a new home for humanity."},
	{ID: 6, Title: "The Notebook", Genre: "Romance Drama", Rating: 7.8, ReleaseYear: year(2004),
		Description: "A poor young man and a rich young woman fall in love during a summer by the lake."},
	{ID: 7, Title: "Pride and Prejudice", Genre: "Romance Drama", Rating: 7.8, ReleaseYear: year(2005),
		Description: "Sparks fly when a spirited young woman meets a proud rich gentleman in rural England."},
	{ID: 8, Title: "La La Land", Genre: "Romance Musical", Rating: 8.0, ReleaseYear: year(2016),
		Description: "A jazz pianist and an aspiring actress fall in love while chasing their dreams in Los Angeles."},
	{ID: 9, Title: "The Shining", Genre: "Horror", Rating: 8.4, ReleaseYear: year(1980),
		Description: "A writer and his family become winter caretakers of an isolated haunted hotel."},
	{ID: 10, Title: "Get Out", Genre: "Horror Thriller", Rating: 7.7, ReleaseYear: year(2017),
		Description: "A young man visits the family of his girlfriend and uncovers a disturbing secret."},
	{ID: 11, Title: "Hereditary", Genre: "Horror Drama", Rating: 7.3, ReleaseYear: year(2018),
		Description: "After the death of their grandmother a family is haunted by a terrifying secret."},
	{ID: 12, Title: "Toy Story", Genre: "Animation Comedy Family", Rating: 8.3, ReleaseYear: year(1995),
		Description: "A cowboy doll feels threatened when a new space ranger toy becomes the favorite."},
	{ID: 13, Title: "Finding Nemo", Genre: "Animation Family", Rating: 8.2, ReleaseYear: year(2003),
		Description: "A clownfish father travels across the ocean to find his son."},
	{ID: 14, Title: "Up", Genre: "Animation Adventure Family", Rating: 8.3, ReleaseYear: year(2009),
		Description: "An old man ties balloons to his house and travels to South America with a young scout."},
	{ID: 15, Title: "Mad Max: Fury Road", Genre: "Action Adventure", Rating: 8.1, ReleaseYear: year(2015),
		Description: "In a desert wasteland a drifter and a rebel warrior flee a tyrant across the sand."},
}

// demoLikes maps user ids to liked movie ids.
var demoLikes = map[int][]int{
	1: {1, 2},
	2: {6, 7},
	3: {9, 10, 1},
	4: {1, 4, 15},
	5: {12, 13},
	6: {1, 6, 12},
}

// Seed loads the demo catalog, users and likes into an empty database.
// It returns false without changes when the catalog already has movies.
func (db *DB) Seed(ctx context.Context) (bool, error) {
	n, err := db.CountMovies(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		logging.Debug().Int("movies", n).Msg("Catalog not empty, skipping demo seed")
		return false, nil
	}

	if err := db.UpsertMovies(ctx, demoMovies); err != nil {
		return false, fmt.Errorf("seed movies: %w", err)
	}

	likes := 0
	for userID := 1; userID <= len(demoLikes); userID++ {
		if err := db.ensureUser(ctx, userID); err != nil {
			return false, fmt.Errorf("seed users: %w", err)
		}
		for _, movieID := range demoLikes[userID] {
			if err := db.SetLike(ctx, userID, movieID, true); err != nil {
				return false, fmt.Errorf("seed likes: %w", err)
			}
			likes++
		}
	}

	logging.Info().
		Int("movies", len(demoMovies)).
		Int("users", len(demoLikes)).
		Int("likes", likes).
		Msg("Seeded demo catalog")
	return true, nil
}

// ensureUser creates a placeholder user row.
func (db *DB) ensureUser(ctx context.Context, userID int) (err error) {
	ctx, done := db.observe(ctx, "ensure_user")
	defer func() { done(err) }()

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`,
		userID, fmt.Sprintf("user%d", userID), fmt.Sprintf("user%d@example.com", userID))
	return err
}
