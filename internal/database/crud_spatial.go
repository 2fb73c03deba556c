// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/geoexplorer/internal/analysis"
	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// DefaultNearbyLimit is used when a nearby query asks for no limit.
const DefaultNearbyLimit = 10

// recentWindow is the look-back of Statistics.RecentActivity.
const recentWindow = 7 * 24 * time.Hour

// NearbyLandmarks ranks landmarks by great-circle distance from q.Point to
// their centroid. With a positive radius only landmarks within it are
// returned; the centroid columns prefilter with a padded bounding box.
func (db *DB) NearbyLandmarks(ctx context.Context, q models.NearbyQuery) ([]models.NearestResult, error) {
	query := "SELECT " + landmarkColumns + " FROM landmarks"
	var args []any
	if q.RadiusKm > 0 {
		b := geo.Buffer(q.Point, q.RadiusKm)
		query += " WHERE centroid_lon BETWEEN ? AND ? AND centroid_lat BETWEEN ? AND ?"
		args = append(args, b.Min.Lon(), b.Max.Lon(), b.Min.Lat(), b.Max.Lat())
	}
	query += " ORDER BY id"

	var rows []models.Landmark
	err := db.run(ctx, "nearby", "landmarks", func(ctx context.Context, conn *sql.DB) error {
		rows = rows[:0]
		return queryLandmarks(ctx, conn, query, args, func(l *models.Landmark) {
			rows = append(rows, *l)
		})
	})
	if err != nil {
		return nil, err
	}

	features, err := ingest.FromLandmarks(rows)
	if err != nil {
		return nil, err
	}
	if q.RadiusKm > 0 {
		features = analysis.WithinRadius(features, q.Point, q.RadiusKm)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}
	return analysis.Nearest(features, q.Point, limit), nil
}

// Statistics summarizes the landmark table.
func (db *DB) Statistics(ctx context.Context) (*models.Statistics, error) {
	stats := &models.Statistics{}
	since := now().Add(-recentWindow)

	err := db.run(ctx, "statistics", "landmarks", func(ctx context.Context, conn *sql.DB) error {
		var minLon, minLat, maxLon, maxLat sql.NullFloat64
		stats.TypeDistribution = map[string]int64{}
		err := conn.QueryRowContext(ctx, `SELECT
				COUNT(*),
				COUNT(*) FILTER (WHERE created_at > ?),
				MIN(min_lon), MIN(min_lat), MAX(max_lon), MAX(max_lat)
			FROM landmarks`, since).
			Scan(&stats.TotalLandmarks, &stats.RecentActivity, &minLon, &minLat, &maxLon, &maxLat)
		if err != nil {
			return fmt.Errorf("failed to summarize landmarks: %w", err)
		}
		stats.SpatialBounds = models.Extent{
			MinLon: minLon.Float64,
			MinLat: minLat.Float64,
			MaxLon: maxLon.Float64,
			MaxLat: maxLat.Float64,
		}

		rows, err := conn.QueryContext(ctx,
			"SELECT landmark_type, COUNT(*) FROM landmarks GROUP BY landmark_type ORDER BY landmark_type")
		if err != nil {
			return fmt.Errorf("failed to count landmark types: %w", err)
		}
		defer closeWithLog(rows, "rows")
		for rows.Next() {
			var (
				typ   string
				count int64
			)
			if err := rows.Scan(&typ, &count); err != nil {
				return err
			}
			stats.TypeDistribution[typ] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	stats.LastUpdated = time.Now().UTC()
	return stats, nil
}
