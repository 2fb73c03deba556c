// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

/*
database_schema.go - Database Schema Management

Tables:
  - landmarks: one row per landmark. The geometry is kept as GeoJSON text so
    the table works with or without the spatial extension; the bounding box
    and centroid columns are derived on write and serve bbox filtering,
    radius prefiltering and the extent statistic.
  - analysis_results: saved spatial analysis runs with their parameters and
    the JSON result document.

Timestamps are TIMESTAMP columns holding UTC; writers always pass the time
explicitly so rows do not depend on the session time zone.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS landmarks_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS landmarks (
			id BIGINT PRIMARY KEY DEFAULT nextval('landmarks_id_seq'),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			landmark_type TEXT NOT NULL,
			geometry TEXT NOT NULL,
			properties TEXT NOT NULL DEFAULT '{}',
			min_lon DOUBLE NOT NULL,
			min_lat DOUBLE NOT NULL,
			max_lon DOUBLE NOT NULL,
			max_lat DOUBLE NOT NULL,
			centroid_lon DOUBLE NOT NULL,
			centroid_lat DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE SEQUENCE IF NOT EXISTS analysis_results_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS analysis_results (
			id BIGINT PRIMARY KEY DEFAULT nextval('analysis_results_id_seq'),
			analysis_type TEXT NOT NULL,
			parameters TEXT NOT NULL DEFAULT '{}',
			results TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
}

// createIndexes indexes the write-once columns used for ordering. Mutable
// columns are left to DuckDB zone maps.
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_landmarks_created_at ON landmarks(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_results_created_at ON analysis_results(created_at)`,
	}
	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}
