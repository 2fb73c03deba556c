// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

/*
database_connection.go - Connection Management and Recovery

Every store operation goes through run, which applies the query timeout,
records metrics and maps failures to geoerr.Persistence.

Connection Recovery:
When an operation fails with a connection error, run makes exactly one
reconnect attempt and returns the original error. The operation is not
re-run, since a lost connection may still have committed it; the next call
uses the fresh connection. There is no backoff loop.

Connection Pool Configuration:
  - MaxOpenConns: database.max_open_conns, else CPU count
  - MaxIdleConns: 2 for efficient connection reuse
  - ConnMaxLifetime: 1 hour to prevent stale connections
  - ConnMaxIdleTime: 5 minutes for idle connection cleanup
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/metrics"
)

// errClosed is returned once Close has been called.
var errClosed = errors.New("sql: database is closed")

// queryFunc is one unit of work against a live connection.
type queryFunc func(ctx context.Context, conn *sql.DB) error

// current returns the live connection, or nil after Close.
func (db *DB) current() *sql.DB {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.conn
}

// run executes fn with the query timeout applied. A connection error
// triggers one reconnect for the next call; fn is never run twice.
func (db *DB) run(ctx context.Context, op, table string, fn queryFunc) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := db.exec(ctx, fn)
	if isConnectionError(err) && !errors.Is(err, errClosed) {
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("Database connection lost, reconnecting")
		if rerr := db.reconnect(); rerr != nil {
			err = fmt.Errorf("%w (reconnect failed: %v)", err, rerr)
		}
	}

	err = geoerr.Persistence("database."+op, err)
	metrics.RecordDBQuery(op, table, time.Since(start), err)
	return err
}

func (db *DB) exec(ctx context.Context, fn queryFunc) error {
	conn := db.current()
	if conn == nil {
		return errClosed
	}
	return fn(ctx, conn)
}

// reconnect replaces a dead connection. It is a no-op when another caller
// already restored it.
func (db *DB) reconnect() error {
	db.reconnectMu.Lock()
	defer db.reconnectMu.Unlock()

	conn := db.current()
	if conn == nil {
		return errClosed
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	alive := conn.PingContext(ctx) == nil
	cancel()
	if alive {
		return nil
	}

	err := db.attemptReconnect()
	metrics.RecordReconnect(DriverName, err)
	if err != nil {
		logging.Error().Err(err).Msg("Database reconnect failed")
		return err
	}
	logging.Info().Msg("Database connection re-established")
	return nil
}

// attemptReconnect opens a fresh connection and re-runs schema setup on it.
func (db *DB) attemptReconnect() error {
	conn, err := sql.Open("duckdb", connString(db.cfg))
	if err != nil {
		return fmt.Errorf("failed to open: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = conn.PingContext(pingCtx)
	pingCancel()
	if err != nil {
		closeQuietly(conn)
		return fmt.Errorf("failed to ping: %w", err)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	old := db.conn
	db.conn = conn
	db.configureConnectionPool()
	if err := db.initialize(); err != nil {
		db.conn = old
		closeQuietly(conn)
		return fmt.Errorf("failed to initialize: %w", err)
	}
	closeWithLog(old, "database connection")
	return nil
}

// isConnectionError checks if an error indicates database connection loss
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	errMsg := err.Error()
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"bad connection",
		"database is closed",
	} {
		if strings.Contains(errMsg, marker) {
			return true
		}
	}
	return false
}

// configureConnectionPool sets connection pool parameters
func (db *DB) configureConnectionPool() {
	maxOpen := db.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = runtime.NumCPU()
	}
	db.conn.SetMaxOpenConns(maxOpen)
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}
