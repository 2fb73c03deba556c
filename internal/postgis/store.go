// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package postgis

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/tomtom215/geoexplorer/internal/config"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/metrics"
)

// DriverName labels metrics and logs for this store.
const DriverName = "postgis"

// Store is the PostGIS landmark store.
type Store struct {
	db  *sqlx.DB
	cfg *config.DatabaseConfig
}

// New connects to PostgreSQL, creates the schema and seeds the sample
// landmarks when configured to.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	db, err := sqlx.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	s := &Store{db: db, cfg: cfg}
	s.configureConnectionPool()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := s.createSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if cfg.SeedSampleData {
		if n, err := s.SeedSampleLandmarks(ctx); err != nil {
			logging.Warn().Err(err).Msg("Failed to seed sample landmarks")
		} else if n > 0 {
			logging.Info().Int("landmarks", n).Msg("Sample Italian landmarks inserted")
		}
	}
	return s, nil
}

func (s *Store) configureConnectionPool() {
	maxOpen := s.cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	s.db.SetMaxOpenConns(maxOpen)
	s.db.SetMaxIdleConns(2)
	s.db.SetConnMaxLifetime(time.Hour)
	s.db.SetConnMaxIdleTime(5 * time.Minute)
}

// IsSpatialAvailable always reports true; PostGIS is required by the schema.
func (s *Store) IsSpatialAvailable() bool {
	return true
}

// Driver returns the backend name.
func (s *Store) Driver() string {
	return DriverName
}

// Ping checks if the database connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// run executes fn with the query timeout applied. A connection error
// triggers one reconnect (a ping, which redials the pool) so the next call
// finds a live connection. fn is not retried.
func (s *Store) run(ctx context.Context, op, table string, fn func(ctx context.Context) error) error {
	timeout := s.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	err := fn(ctx)
	if isConnectionError(err) {
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("Postgres connection lost, reconnecting")
		perr := s.db.PingContext(ctx)
		metrics.RecordReconnect(DriverName, perr)
		if perr != nil {
			err = fmt.Errorf("%w (reconnect failed: %v)", err, perr)
		}
	}

	err = geoerr.Persistence("postgis."+op, err)
	metrics.RecordDBQuery(op, table, time.Since(start), err)
	return err
}

// isConnectionError reports connection loss: a bad driver connection, a
// network failure, or a PostgreSQL class 08 (connection exception) or 57P
// (operator intervention) error.
func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "08" || strings.HasPrefix(string(pqErr.Code), "57P")
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "broken pipe")
}
