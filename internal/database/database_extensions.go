// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/tomtom215/geoexplorer/internal/logging"
)

// duckdbVersion is the DuckDB version used for extension paths
const duckdbVersion = "v1.4.3"

// extensionTimeout bounds a single INSTALL or LOAD. CGO calls ignore context
// cancellation, so the bound is enforced with a select.
const extensionTimeout = 30 * time.Second

// extensionContext returns a context with timeout for extension operations
func extensionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), extensionTimeout)
}

// loadExtensions loads the spatial extension. A locally installed extension
// is loaded directly. Otherwise, when spatial_optional is set, the store runs
// without it and filters by bounding-box columns; when it is not set the
// extension is downloaded and a failure aborts startup.
func (db *DB) loadExtensions() error {
	optional := db.cfg.SpatialOptional

	if !isExtensionInstalledLocally("spatial") && optional {
		db.spatialAvailable.Store(false)
		logging.Warn().Msg("Spatial extension not installed (DUCKDB_SPATIAL_OPTIONAL=true), bbox filters use bounding-box columns")
		return nil
	}

	if err := db.execWithHardTimeout("LOAD spatial;"); err != nil {
		if installErr := db.execWithHardTimeout("INSTALL spatial;"); installErr != nil {
			return db.spatialUnavailable(optional, fmt.Errorf("install: %w, load: %w", installErr, err))
		}
		if err := db.execWithHardTimeout("LOAD spatial;"); err != nil {
			return db.spatialUnavailable(optional, fmt.Errorf("load: %w", err))
		}
	}

	if err := db.verifySpatial(); err != nil {
		return db.spatialUnavailable(optional, err)
	}

	db.spatialAvailable.Store(true)
	logging.Debug().Msg("Spatial extension loaded")
	return nil
}

func (db *DB) spatialUnavailable(optional bool, err error) error {
	db.spatialAvailable.Store(false)
	if optional {
		logging.Warn().Err(err).Msg("Spatial extension unavailable, bbox filters use bounding-box columns")
		return nil
	}
	return fmt.Errorf("failed to load spatial extension: %w", err)
}

// verifySpatial runs the functions the bbox filter depends on.
func (db *DB) verifySpatial() error {
	const probe = `SELECT ST_Intersects(
		ST_GeomFromGeoJSON('{"type":"Point","coordinates":[12.49,41.89]}'),
		ST_MakeEnvelope(12.0, 41.0, 13.0, 42.0))`

	ctx, cancel := extensionContext()
	defer cancel()

	resultCh := make(chan error, 1)
	go func() {
		var ok bool
		err := db.conn.QueryRowContext(ctx, probe).Scan(&ok)
		if err == nil && !ok {
			err = fmt.Errorf("spatial probe returned false")
		}
		resultCh <- err
	}()

	select {
	case err := <-resultCh:
		return err
	case <-time.After(extensionTimeout):
		return fmt.Errorf("spatial probe timed out after %v", extensionTimeout)
	}
}

// execWithHardTimeout executes a SQL statement with a goroutine-based hard
// timeout. ExecContext is still used so the driver can clean up.
func (db *DB) execWithHardTimeout(query string) error {
	resultCh := make(chan error, 1)

	ctx, cancel := extensionContext()
	defer cancel()

	go func() {
		_, err := db.conn.ExecContext(ctx, query)
		resultCh <- err
	}()

	select {
	case err := <-resultCh:
		return err
	case <-time.After(extensionTimeout):
		return fmt.Errorf("operation timed out after %v", extensionTimeout)
	}
}

// isExtensionInstalledLocally checks ~/.duckdb/extensions for a downloaded
// extension binary.
func isExtensionInstalledLocally(extensionName string) bool {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return false
	}

	// DuckDB extension path: ~/.duckdb/extensions/{version}/{platform}/{name}.duckdb_extension
	platform := runtime.GOOS + "_" + runtime.GOARCH
	extPath := filepath.Join(homeDir, ".duckdb", "extensions", duckdbVersion, platform, extensionName+".duckdb_extension")

	_, err = os.Stat(extPath)
	return err == nil
}
