// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package models

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Landmark is one persisted row of the landmarks table.
// Geometry is always WGS84 longitude/latitude.
type Landmark struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	LandmarkType string            `json:"landmark_type"`
	Geometry     *geojson.Geometry `json:"geometry"`   // GeoJSON geometry object
	Properties   map[string]any    `json:"properties"` // Free-form JSON object
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// Geom returns the orb geometry, or nil when the landmark has none.
func (l *Landmark) Geom() orb.Geometry {
	if l == nil || l.Geometry == nil {
		return nil
	}
	return l.Geometry.Geometry()
}

// LandmarkInput is the body of a create request.
type LandmarkInput struct {
	Name         string            `json:"name" validate:"required,max=255"`
	Description  string            `json:"description" validate:"max=4000"`
	LandmarkType string            `json:"landmark_type" validate:"required,max=64"`
	Geometry     *geojson.Geometry `json:"geometry" validate:"required,geometry"`
	Properties   map[string]any    `json:"properties"`
}

// LandmarkPatch is the body of an update request. Nil fields are left unchanged.
type LandmarkPatch struct {
	Name         *string           `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description  *string           `json:"description,omitempty" validate:"omitempty,max=4000"`
	LandmarkType *string           `json:"landmark_type,omitempty" validate:"omitempty,min=1,max=64"`
	Geometry     *geojson.Geometry `json:"geometry,omitempty" validate:"omitempty,geometry"`
	Properties   map[string]any    `json:"properties,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p *LandmarkPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.LandmarkType == nil &&
		p.Geometry == nil && p.Properties == nil
}

// Apply copies the non-nil fields of p onto l.
func (p *LandmarkPatch) Apply(l *Landmark) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.LandmarkType != nil {
		l.LandmarkType = *p.LandmarkType
	}
	if p.Geometry != nil {
		l.Geometry = p.Geometry
	}
	if p.Properties != nil {
		l.Properties = p.Properties
	}
}

// LandmarkFilter narrows a landmark listing.
type LandmarkFilter struct {
	LandmarkType string    // Exact type tag, empty for all
	BBox         *orb.Bound // Spatial intersection filter, nil for all
	Limit        int        // Page size, clamped by the store
	Offset       int
}

// NearbyQuery selects landmarks within RadiusKm of a point.
type NearbyQuery struct {
	Point    orb.Point
	RadiusKm float64 // Zero or negative means unbounded
	Limit    int
}

// Extent is a WGS84 bounding box.
type Extent struct {
	MinLon float64 `json:"min_lon"`
	MinLat float64 `json:"min_lat"`
	MaxLon float64 `json:"max_lon"`
	MaxLat float64 `json:"max_lat"`
}

// Statistics summarizes the landmark table.
type Statistics struct {
	TotalLandmarks   int64            `json:"total_landmarks"`
	TypeDistribution map[string]int64 `json:"type_distribution"`
	SpatialBounds    Extent           `json:"spatial_bounds"`
	RecentActivity   int64            `json:"recent_activity"` // Rows created in the last 7 days
	LastUpdated      time.Time        `json:"last_updated"`
}

// AnalysisRecord is one saved spatial analysis run.
type AnalysisRecord struct {
	ID           int64          `json:"id"`
	AnalysisType string         `json:"analysis_type"`
	Parameters   map[string]any `json:"parameters"`
	Results      RawJSON        `json:"results"`
	CreatedAt    time.Time      `json:"created_at"`
}

// RawJSON is an already-encoded JSON value. It marshals verbatim.
type RawJSON []byte

// MarshalJSON implements json.Marshaler.
func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}
