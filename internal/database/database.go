// ReelMatch - Content Similarity Movie Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelmatch

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"   // registers the "duckdb" driver
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/tomtom215/reelmatch/internal/config"
	"github.com/tomtom215/reelmatch/internal/metrics"
)

// Driver names accepted by Open.
const (
	DriverDuckDB   = "duckdb"
	DriverPostgres = "pgx"
)

// DB wraps the catalog and interaction store. It implements
// recommend.CatalogSource and recommend.InteractionSource.
type DB struct {
	conn         *sql.DB
	driver       string
	queryTimeout time.Duration
}

// Open connects to the configured database and creates the schema if needed.
// An empty DuckDB path opens an in-memory database.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	driver, dsn, err := dataSource(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	configurePool(conn, driver, cfg.Threads)

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	db := &DB{conn: conn, driver: driver, queryTimeout: timeout}

	if err := db.Ping(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if err := db.CreateSchema(ctx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// dataSource builds the driver name and DSN from configuration.
func dataSource(cfg *config.DatabaseConfig) (driver, dsn string, err error) {
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.DSN == "" {
			return "", "", fmt.Errorf("database dsn is required for driver %q", cfg.Driver)
		}
		return DriverPostgres, cfg.DSN, nil

	case DriverDuckDB, "":
		path := cfg.Path
		if path == "" {
			path = ":memory:"
		} else if dir := filepath.Dir(path); dir != "" && dir != "." {
			// 0750 per gosec G301
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return "", "", fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}

		threads := cfg.Threads
		if threads <= 0 {
			threads = runtime.NumCPU()
		}
		maxMemory := cfg.MaxMemory
		if maxMemory == "" {
			maxMemory = "1GB"
		}
		// Extensions are not used; disable auto-install so restricted
		// networks never stall on a download.
		dsn = fmt.Sprintf("%s?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
			path, threads, maxMemory)
		return DriverDuckDB, dsn, nil

	default:
		return "", "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// configurePool sizes the connection pool for the driver.
func configurePool(conn *sql.DB, driver string, threads int) {
	maxOpen := threads
	if maxOpen <= 0 {
		maxOpen = runtime.NumCPU()
	}
	if driver == DriverPostgres {
		maxOpen *= 2
	}
	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)
	conn.SetConnMaxIdleTime(5 * time.Minute)
}

// Driver returns the driver name ("duckdb" or "pgx").
func (db *DB) Driver() string {
	return db.driver
}

// Conn returns the underlying connection pool.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// observe bounds ctx by the query timeout and returns a finish func that
// records the query duration under operation.
func (db *DB) observe(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	return ctx, func(err error) {
		cancel()
		metrics.RecordDBQuery(operation, time.Since(start), err)
	}
}
