// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package database is the default landmark store, backed by DuckDB.
//
// # Architecture
//
// Core Database Operations:
//   - database.go: lifecycle (open, initialize, seed, checkpoint on close)
//   - database_connection.go: run wrapper, single reconnect, pool settings
//   - database_extensions.go: optional spatial extension with hard timeouts
//   - database_schema.go: landmarks and analysis_results tables
//
// Data Access:
//   - crud_landmarks.go: list, get, create, update, delete, bulk insert
//   - crud_spatial.go: nearby ranking and table statistics
//   - crud_analysis.go: saved analysis runs
//   - seed.go: sample Italian landmarks for an empty table
//
// # Geometry Storage
//
// Geometries are stored as GeoJSON text next to their bounding box and
// centroid. When the DuckDB spatial extension loads, bounding-box filters
// use ST_Intersects on the real geometry; without it they fall back to
// bounding-box overlap. Nearby queries always rank by great-circle distance
// to the centroid.
//
// # Semantics
//
// Each call commits on its own and concurrent writers resolve as last writer
// wins. GetLandmark and UpdateLandmark return a nil landmark for a missing
// id; DeleteLandmark reports zero rows. Failures are geoerr.Persistence
// errors, and a lost connection is re-opened once on the next call.
//
// # Usage Example
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	rows, err := db.ListLandmarks(ctx, models.LandmarkFilter{LandmarkType: "monument"})
//
// # Testing
//
// Tests open ":memory:" databases with spatial_optional set, so they pass
// with or without a locally installed spatial extension.
package database
