// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package database

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// landmarkColumns is the SELECT list scanned by scanLandmark.
const landmarkColumns = `id, name, description, landmark_type, geometry, properties, created_at, updated_at`

// Page size bounds applied when a filter asks for none or too many rows.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// clampLimit applies DefaultLimit and MaxLimit.
func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// geometryColumns are the encoded geometry and its derived columns.
type geometryColumns struct {
	json     string
	metrics  geo.Metrics
	hasValue bool
}

// encodeGeometry validates g and derives the bbox and centroid columns.
func encodeGeometry(op string, g *geojson.Geometry) (geometryColumns, error) {
	if g == nil || g.Geometry() == nil {
		return geometryColumns{}, geoerr.DataFormat(op, "geometry is required")
	}
	if err := geo.Validate(g.Geometry()); err != nil {
		return geometryColumns{}, geoerr.Wrap(geoerr.KindDataFormat, op, err)
	}
	data, err := json.Marshal(g)
	if err != nil {
		return geometryColumns{}, geoerr.Wrap(geoerr.KindDataFormat, op, err)
	}
	return geometryColumns{
		json:     string(data),
		metrics:  geo.Derive(g.Geometry()),
		hasValue: true,
	}, nil
}

// encodeProperties renders properties as a JSON object. Nil becomes {}.
func encodeProperties(op string, props map[string]any) (string, error) {
	if props == nil {
		return "{}", nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", geoerr.Validation(op, "properties are not JSON encodable: %v", err)
	}
	return string(data), nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanLandmark scans one row selected with landmarkColumns.
func scanLandmark(row rowScanner) (*models.Landmark, error) {
	var (
		l            models.Landmark
		geometryJSON string
		propsJSON    string
	)
	if err := row.Scan(&l.ID, &l.Name, &l.Description, &l.LandmarkType,
		&geometryJSON, &propsJSON, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}

	g, err := geojson.UnmarshalGeometry([]byte(geometryJSON))
	if err != nil {
		return nil, fmt.Errorf("landmark %d has unreadable geometry: %w", l.ID, err)
	}
	l.Geometry = g

	l.Properties = map[string]any{}
	if propsJSON != "" {
		if err := json.Unmarshal([]byte(propsJSON), &l.Properties); err != nil {
			return nil, fmt.Errorf("landmark %d has unreadable properties: %w", l.ID, err)
		}
	}

	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

// now returns the current UTC time at the microsecond precision DuckDB
// stores, so returned rows compare equal to what a later read returns.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
