// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package database

import (
	"context"
	"database/sql"

	"github.com/tomtom215/geoexplorer/internal/ingest"
)

// SeedSampleLandmarks inserts the sample Italian landmarks when the
// landmarks table is empty and returns how many rows were written.
func (db *DB) SeedSampleLandmarks(ctx context.Context) (int, error) {
	var count int64
	err := db.run(ctx, "count", "landmarks", func(ctx context.Context, conn *sql.DB) error {
		return conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM landmarks").Scan(&count)
	})
	if err != nil || count > 0 {
		return 0, err
	}
	return db.InsertLandmarks(ctx, ingest.SampleLandmarks())
}
