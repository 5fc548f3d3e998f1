// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

// Package main is the entry point for the ReelMatch HTTP server.
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, optional YAML file, environment (Koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Recommendation stack: database, circuit breaker, similarity cache, engine
//  4. Metrics: engine counters registered with Prometheus
//  5. Supervisor tree: similarity cache warmer and HTTP server
//
// # Configuration
//
// Common environment variables:
//
//	DUCKDB_PATH=/data/reelmatch.duckdb   DuckDB database file
//	DATABASE_DRIVER=pgx                  use PostgreSQL instead of DuckDB
//	DATABASE_DSN=postgres://...          PostgreSQL connection string
//	SEED_DEMO_DATA=true                  load the demo catalog into an empty database
//	CACHE_BACKEND=file|badger|redis|none similarity cache backend
//	HTTP_PORT=8080                       listen port
//	LOG_LEVEL=debug                      log verbosity
//
// # Signal Handling
//
// SIGINT and SIGTERM stop the supervisor tree. The HTTP server drains
// in-flight requests within HTTP_SHUTDOWN_TIMEOUT before the database
// and cache are closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/reelmatch/internal/api"
	"github.com/tomtom215/reelmatch/internal/app"
	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/logging"
	"github.com/tomtom215/reelmatch/internal/metrics"
	"github.com/tomtom215/reelmatch/internal/supervisor"
	"github.com/tomtom215/reelmatch/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("driver", cfg.Database.Driver).
		Str("cache_backend", cfg.Cache.Backend).
		Msg("Starting ReelMatch")

	if cfg.HasWildcardCORS() {
		logging.Warn().Msg("CORS allows any origin; set CORS_ORIGINS for production")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stack, err := app.New(ctx, cfg, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation stack")
	}
	defer func() {
		if err := stack.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing recommendation stack")
		}
	}()

	metrics.SetAppInfo(version)
	if err := metrics.RegisterEngine(prometheus.DefaultRegisterer, stack.Engine); err != nil {
		logging.Warn().Err(err).Msg("Failed to register engine metrics")
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	server := newHTTPServer(cfg, stack)

	tree.AddEngineService(services.NewWarmService(stack.Engine, services.WarmServiceConfig{
		WarmOnStartup: cfg.Recommend.WarmOnStartup,
		Interval:      cfg.Recommend.WarmInterval,
		Timeout:       cfg.Recommend.BuildTimeout,
	}, logging.Logger()))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	var serveErr error
	select {
	case <-ctx.Done():
		serveErr = <-errCh
	case serveErr = <-errCh:
		cancel()
	}
	if serveErr != nil && !errors.Is(serveErr, context.Canceled) {
		logging.Error().Err(serveErr).Msg("Supervisor tree stopped with error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("ReelMatch stopped")
}

// newHTTPServer builds the HTTP server around the API router.
func newHTTPServer(cfg *config.Config, stack *app.Stack) *http.Server {
	handler := api.NewHandler(stack.Engine, api.HandlerOptions{
		Likes:   stack.Store,
		DB:      stack.DB,
		Cache:   stack.Cache,
		Version: version,
	})
	mw := api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security))
	router := api.NewRouter(handler, mw, cfg.Server.Timeout)

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
