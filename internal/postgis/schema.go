// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package postgis

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS postgis`,
	`CREATE TABLE IF NOT EXISTS landmarks (
		id BIGSERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		landmark_type VARCHAR(64) NOT NULL,
		geometry GEOMETRY(Geometry, 4326) NOT NULL,
		properties JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_landmarks_geometry ON landmarks USING GIST (geometry)`,
	`CREATE INDEX IF NOT EXISTS idx_landmarks_type ON landmarks (landmark_type)`,
	`CREATE INDEX IF NOT EXISTS idx_landmarks_created_at ON landmarks (created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_landmarks_properties ON landmarks USING GIN (properties)`,
	`CREATE TABLE IF NOT EXISTS analysis_results (
		id BIGSERIAL PRIMARY KEY,
		analysis_type VARCHAR(64) NOT NULL,
		parameters JSONB NOT NULL DEFAULT '{}'::jsonb,
		results JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_results_created_at ON analysis_results (created_at DESC)`,
}

// createSchema creates the extension, tables and indexes.
func (s *Store) createSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute: %s: %w", stmt, err)
		}
	}
	return nil
}
