// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package main is the ReelMatch command line tool.
//
// Usage:
//
//	recommend [flags] <userId>       recommendations from the user's stored likes
//	recommend [flags] -liked 1,2,3   recommendations for an explicit liked set
//	recommend [flags] -similar 7     movies most similar to one movie
//	recommend [flags] -popular       most liked movies
//	recommend [flags] -train         compute and store the similarity matrix
//
// Results are printed to stdout as a JSON array of movie records. Any
// condition that prevents a result prints [] instead. Diagnostics go to
// stderr. The exit code is 0 unless the flags cannot be parsed or -train
// fails.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/reelmatch/internal/app"
	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/recommend"
	"github.com/tomtom215/reelmatch/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options are the parsed command line flags.
type options struct {
	configPath string
	liked      string
	similar    int
	popular    bool
	k          int
	train      bool
	seed       bool
	userID     string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("recommend", flag.ContinueOnError)
	fs.SetOutput(stderr)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "YAML config file (default: CONFIG_PATH or the standard locations)")
	fs.StringVar(&opts.liked, "liked", "", "comma-separated liked movie IDs instead of a user ID")
	fs.IntVar(&opts.similar, "similar", 0, "list movies similar to this movie ID")
	fs.BoolVar(&opts.popular, "popular", false, "list the most liked movies")
	fs.IntVar(&opts.k, "k", 0, "number of movies for -similar and -popular (default: configured limit)")
	fs.BoolVar(&opts.train, "train", false, "compute and store the similarity matrix, then exit")
	fs.BoolVar(&opts.seed, "seed", false, "load the demo catalog into an empty database")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: recommend [flags] <userId>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.userID = fs.Arg(0)
	return opts, nil
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		writeMovies(stdout, nil)
		return 2
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		logging.Init(logging.Config{Level: "info", Format: "console", Output: stderr})
		logging.Error().Err(err).Msg("Failed to load configuration")
		return emptyUnlessTraining(stdout, opts)
	}
	if opts.seed {
		cfg.Database.SeedDemoData = true
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
		Output: stderr,
	})
	logger := logging.Logger()

	stack, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize recommendation stack")
		return emptyUnlessTraining(stdout, opts)
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logger.Warn().Err(err).Msg("Error closing recommendation stack")
		}
	}()

	if opts.train {
		return train(ctx, stack.Engine, logger)
	}

	writeMovies(stdout, query(ctx, stack.Engine, opts, logger))
	return 0
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.LoadWithKoanf()
}

// query runs the selected mode. Failures are logged and yield no movies.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func query(ctx context.Context, engine *recommend.Engine, opts *options, logger zerolog.Logger) []recommend.Movie {
	switch {
	case opts.similar != 0:
		movies, err := engine.Similar(ctx, opts.similar, opts.k)
		if err != nil {
			logger.Error().Err(err).Int("movie_id", opts.similar).Msg("Similar movies unavailable")
			return nil
		}
		return movies

	case opts.popular:
		movies, err := engine.Popular(ctx, opts.k)
		if err != nil {
			logger.Error().Err(err).Msg("Popular movies unavailable")
			return nil
		}
		return movies

	case opts.liked != "":
		ids, err := validation.ParseIDList(opts.liked)
		if err != nil {
			logger.Error().Err(err).Str("liked", opts.liked).Msg("Invalid liked list")
			return nil
		}
		return engine.RecommendForLiked(ctx, recommend.NewLikedSet(ids...)).Movies

	case opts.userID != "":
		userID, err := strconv.Atoi(opts.userID)
		if err != nil {
			logger.Error().Str("user_id", opts.userID).Msg("User ID must be an integer")
			return nil
		}
		res, err := engine.RecommendForUser(ctx, userID)
		if err != nil {
			logger.Error().Err(err).Msg("Invalid user ID")
			return nil
		}
		return res.Movies

	default:
		logger.Error().Msg("No user ID or liked list given")
		return nil
	}
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func train(ctx context.Context, engine *recommend.Engine, logger zerolog.Logger) int {
	if err := engine.Rebuild(ctx); err != nil {
		logger.Error().Err(err).Msg("Similarity matrix training failed")
		return 1
	}
	m := engine.GetMetrics()
	logger.Info().
		Dur("duration", m.LastBuildDuration).
		Msg("Similarity matrix computed and stored")
	return 0
}

func emptyUnlessTraining(stdout io.Writer, opts *options) int {
	if opts.train {
		return 1
	}
	writeMovies(stdout, nil)
	return 0
}

// writeMovies prints movies as a JSON array; nil prints [].
func writeMovies(w io.Writer, movies []recommend.Movie) {
	if movies == nil {
		movies = []recommend.Movie{}
	}
	data, err := json.Marshal(movies)
	if err != nil {
		data = []byte("[]")
	}
	fmt.Fprintln(w, string(data))
}
