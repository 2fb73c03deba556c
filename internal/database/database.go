// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/geoexplorer/internal/config"
	"github.com/tomtom215/geoexplorer/internal/logging"
)

// DriverName labels metrics and logs for this store.
const DriverName = "duckdb"

// DB wraps the DuckDB connection and provides landmark data access.
type DB struct {
	mu               sync.RWMutex // guards conn during reconnect
	conn             *sql.DB
	cfg              *config.DatabaseConfig
	spatialAvailable atomic.Bool // Tracks whether the spatial extension is loaded

	reconnectMu sync.Mutex
}

// New opens the database, loads extensions, creates the schema and seeds the
// sample landmarks when configured to.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	// Ensure parent directory exists for database file
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn: conn,
		cfg:  cfg,
	}
	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.SeedSampleData {
		ctx, cancel := schemaContext()
		defer cancel()
		if n, err := db.SeedSampleLandmarks(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to seed sample landmarks")
		} else if n > 0 {
			logging.Info().Int("landmarks", n).Msg("Sample Italian landmarks inserted")
		}
	}

	return db, nil
}

// connString builds the DuckDB DSN with tuning options. Auto-install and
// auto-load stay off so a restricted network can never hang startup;
// extensions are loaded explicitly by loadExtensions.
func connString(cfg *config.DatabaseConfig) string {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	preserveOrder := "true"
	if !cfg.PreserveInsertionOrder {
		preserveOrder = "false"
	}
	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}
	return fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&preserve_insertion_order=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, maxMemory, preserveOrder)
}

// IsSpatialAvailable returns whether the spatial extension is available
func (db *DB) IsSpatialAvailable() bool {
	return db.spatialAvailable.Load()
}

// Driver returns the backend name.
func (db *DB) Driver() string {
	return DriverName
}

// Close flushes the WAL with a CHECKPOINT and closes the connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		// Best effort, the WAL is replayed on next open
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}
	cancel()

	err := db.conn.Close()
	db.conn = nil
	return err
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	conn := db.current()
	if conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return conn.PingContext(ctx)
}

// initialize installs extensions, creates tables and indexes, then
// checkpoints so the schema is not left in the WAL.
func (db *DB) initialize() error {
	if err := db.loadExtensions(); err != nil {
		return err
	}

	if err := db.createTables(); err != nil {
		return err
	}

	if err := db.createIndexes(); err != nil {
		return err
	}

	ctx, cancel := schemaContext()
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		logging.Warn().Err(err).Msg("Failed to checkpoint after schema initialization")
	}

	return nil
}

// ensureContext applies the configured query timeout when ctx has no deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	timeout := db.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}
