// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package postgis

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tomtom215/geoexplorer/internal/analysis"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// DefaultNearbyLimit is used when a nearby query asks for no limit.
const DefaultNearbyLimit = 10

const recentWindow = 7 * 24 * time.Hour

// nearbyPadding widens the ST_DWithin prefilter so that rows near the
// radius edge are ranked by the same haversine distance as DuckDB.
const nearbyPadding = 1.01

// NearbyLandmarks ranks landmarks by great-circle distance from q.Point to
// their centroid. With a positive radius ST_DWithin prefilters on the
// geography centroid; the final cut uses haversine distance.
func (s *Store) NearbyLandmarks(ctx context.Context, q models.NearbyQuery) ([]models.NearestResult, error) {
	query := "SELECT " + selectColumns + " FROM landmarks"
	var args []any
	if q.RadiusKm > 0 {
		query += ` WHERE ST_DWithin(ST_Centroid(geometry)::geography,
			ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?, false)`
		args = append(args, q.Point.Lon(), q.Point.Lat(), q.RadiusKm*1000*nearbyPadding)
	}
	query = s.db.Rebind(query + " ORDER BY id")

	var rows []landmarkRow
	err := s.run(ctx, "nearby", "landmarks", func(ctx context.Context) error {
		rows = rows[:0]
		return s.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, err
	}
	landmarks, err := toLandmarks(rows)
	if err != nil {
		return nil, err
	}

	features, err := ingest.FromLandmarks(landmarks)
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

type summaryRow struct {
	Total  int64           `db:"total"`
	Recent int64           `db:"recent"`
	MinLon sql.NullFloat64 `db:"min_lon"`
	MinLat sql.NullFloat64 `db:"min_lat"`
	MaxLon sql.NullFloat64 `db:"max_lon"`
	MaxLat sql.NullFloat64 `db:"max_lat"`
}

type typeCount struct {
	Type  string `db:"landmark_type"`
	Count int64  `db:"count"`
}

// Statistics summarizes the landmark table.
func (s *Store) Statistics(ctx context.Context) (*models.Statistics, error) {
	since := time.Now().UTC().Add(-recentWindow)
	var (
		summary summaryRow
		types   []typeCount
	)
	err := s.run(ctx, "statistics", "landmarks", func(ctx context.Context) error {
		err := s.db.GetContext(ctx, &summary, `WITH ext AS (SELECT ST_Extent(geometry) AS box FROM landmarks)
			SELECT
				(SELECT COUNT(*) FROM landmarks) AS total,
				(SELECT COUNT(*) FROM landmarks WHERE created_at > $1) AS recent,
				ST_XMin(box) AS min_lon, ST_YMin(box) AS min_lat,
				ST_XMax(box) AS max_lon, ST_YMax(box) AS max_lat
			FROM ext`, since)
		if err != nil {
			return fmt.Errorf("failed to summarize landmarks: %w", err)
		}
		types = types[:0]
		return s.db.SelectContext(ctx, &types, `SELECT landmark_type, COUNT(*) AS count
			FROM landmarks GROUP BY landmark_type ORDER BY landmark_type`)
	})
	if err != nil {
		return nil, err
	}

	stats := &models.Statistics{
		TotalLandmarks:   summary.Total,
		RecentActivity:   summary.Recent,
		TypeDistribution: make(map[string]int64, len(types)),
		SpatialBounds: models.Extent{
			MinLon: summary.MinLon.Float64,
			MinLat: summary.MinLat.Float64,
			MaxLon: summary.MaxLon.Float64,
			MaxLat: summary.MaxLat.Float64,
		},
		LastUpdated: time.Now().UTC(),
	}
	for _, tc := range types {
		stats.TypeDistribution[tc.Type] = tc.Count
	}
	return stats, nil
}
