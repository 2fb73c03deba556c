// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// QualityReport summarizes the state of a collection before it is loaded.
type QualityReport struct {
	TotalFeatures       int            `json:"total_features"`
	ValidGeometries     int            `json:"valid_geometries"`
	InvalidGeometries   int            `json:"invalid_geometries"`
	EmptyGeometries     int            `json:"empty_geometries"`
	NullGeometries      int            `json:"null_geometries"`
	DuplicateGeometries int            `json:"duplicate_geometries"`
	OutsideItaly        int            `json:"outside_italy"`
	Bounds              *models.Extent `json:"bounds,omitempty"`
	GeometryTypes       map[string]int `json:"geometry_types"`
	AttributeColumns    []string       `json:"attribute_columns"`
	MissingValues       map[string]int `json:"missing_values"`
	QualityScore        float64        `json:"quality_score"`
	QualityGrade        string         `json:"quality_grade"`
}

// Validate inspects fc without modifying it. The score gives 40 points for
// the valid share and 20 each for having no empty, null or duplicate
// geometries.
func Validate(fc *geojson.FeatureCollection) QualityReport {
	rep := QualityReport{
		TotalFeatures: len(fc.Features),
		GeometryTypes: make(map[string]int),
		MissingValues: make(map[string]int),
	}
	rep.AttributeColumns = propertyKeys(fc)
	if rep.AttributeColumns == nil {
		rep.AttributeColumns = []string{}
	}

	seen := make(map[string]struct{})
	var bound *orb.Bound
	for _, f := range fc.Features {
		for _, col := range rep.AttributeColumns {
			if v, ok := f.Properties[col]; !ok || v == nil || v == "" {
				rep.MissingValues[col]++
			}
		}

		switch {
		case f.Geometry == nil:
			rep.NullGeometries++
			continue
		case geo.IsEmpty(f.Geometry):
			rep.EmptyGeometries++
			rep.GeometryTypes[geo.TypeName(f.Geometry)]++
			continue
		}
		rep.GeometryTypes[geo.TypeName(f.Geometry)]++

		if geo.Validate(f.Geometry) != nil {
			rep.InvalidGeometries++
		} else {
			rep.ValidGeometries++
			c := geo.Derive(f.Geometry).Centroid
			if !geo.ItalyBounds.Contains(c) {
				rep.OutsideItaly++
			}
		}

		key := geo.ToWKT(f.Geometry)
		if _, dup := seen[key]; dup {
			rep.DuplicateGeometries++
		}
		seen[key] = struct{}{}

		b := f.Geometry.Bound()
		if bound == nil {
			bound = &b
		} else {
			u := bound.Union(b)
			bound = &u
		}
	}
	if bound != nil {
		rep.Bounds = &models.Extent{MinLon: bound.Min[0], MinLat: bound.Min[1], MaxLon: bound.Max[0], MaxLat: bound.Max[1]}
	}

	rep.QualityScore = qualityScore(rep)
	rep.QualityGrade = qualityGrade(rep.QualityScore)
	return rep
}

func qualityScore(rep QualityReport) float64 {
	if rep.TotalFeatures == 0 {
		return 0
	}
	score := 40 * float64(rep.ValidGeometries) / float64(rep.TotalFeatures)
	if rep.EmptyGeometries == 0 {
		score += 20
	}
	if rep.NullGeometries == 0 {
		score += 20
	}
	if rep.DuplicateGeometries == 0 {
		score += 20
	}
	return score
}

var gradeSteps = []struct {
	min   float64
	grade string
}{
	{90, "A"}, {80, "B"}, {70, "C"}, {60, "D"},
}

func qualityGrade(score float64) string {
	for _, s := range gradeSteps {
		if score >= s.min {
			return s.grade
		}
	}
	return "F"
}
