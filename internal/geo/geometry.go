// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package geo holds the small amount of geometry math the service needs on
// top of paulmach/orb: derived centroid/area/perimeter columns, great-circle
// distance, geometry validation, WKT helpers, the model feature vector and a
// convex hull.
//
// All geometries are WGS84 longitude/latitude. Areas and lengths are planar
// in degrees and converted with a flat 111 km per degree factor; they are
// deliberately approximate and only used for ranking and model features.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// KmPerDegree converts planar degrees to kilometers.
const KmPerDegree = 111.0

// ReferencePoint is the geographic center of Italy, used as the anchor of
// the distance feature.
var ReferencePoint = orb.Point{12.5674, 41.8719}

// ItalyBounds is the envelope used by the quality report.
var ItalyBounds = orb.Bound{Min: orb.Point{6.6, 35.5}, Max: orb.Point{18.5, 47.1}}

// Metrics are the derived columns of a feature.
type Metrics struct {
	Centroid    orb.Point
	AreaKm2     float64
	PerimeterKm float64
	Bound       orb.Bound
}

// Derive computes centroid, approximate area and perimeter, and the bounding
// box. The geometry must already be valid (see Validate).
func Derive(g orb.Geometry) Metrics {
	centroid, area := planar.CentroidArea(g)
	return Metrics{
		Centroid:    centroid,
		AreaKm2:     math.Abs(area) * KmPerDegree * KmPerDegree,
		PerimeterKm: planar.Length(g) * KmPerDegree,
		Bound:       g.Bound(),
	}
}

// TypeName returns the GeoJSON type name, or "" for nil.
func TypeName(g orb.Geometry) string {
	if g == nil {
		return ""
	}
	return g.GeoJSONType()
}

// Family groups geometry types the way shapefiles and map styling need them:
// "point", "line" or "polygon".
func Family(g orb.Geometry) string {
	switch g.(type) {
	case orb.Point, orb.MultiPoint:
		return "point"
	case orb.LineString, orb.MultiLineString:
		return "line"
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Bound:
		return "polygon"
	default:
		return ""
	}
}

// EachPoint calls fn for every vertex of g.
func EachPoint(g orb.Geometry, fn func(orb.Point)) {
	switch v := g.(type) {
	case orb.Point:
		fn(v)
	case orb.MultiPoint:
		for _, p := range v {
			fn(p)
		}
	case orb.LineString:
		for _, p := range v {
			fn(p)
		}
	case orb.MultiLineString:
		for _, ls := range v {
			EachPoint(ls, fn)
		}
	case orb.Ring:
		for _, p := range v {
			fn(p)
		}
	case orb.Polygon:
		for _, r := range v {
			EachPoint(r, fn)
		}
	case orb.MultiPolygon:
		for _, p := range v {
			EachPoint(p, fn)
		}
	case orb.Collection:
		for _, c := range v {
			EachPoint(c, fn)
		}
	case orb.Bound:
		EachPoint(v.ToPolygon(), fn)
	}
}

// IsEmpty reports whether g has no vertices.
func IsEmpty(g orb.Geometry) bool {
	if g == nil {
		return true
	}
	empty := true
	EachPoint(g, func(orb.Point) { empty = false })
	return empty
}

// FeatureVector builds the 9-value model input for a derived feature:
// centroid lon, centroid lat, area, perimeter, bbox minx, miny, maxx, maxy
// and the planar distance from the centroid to ReferencePoint.
func FeatureVector(m Metrics) []float64 {
	return []float64{
		m.Centroid[0],
		m.Centroid[1],
		m.AreaKm2,
		m.PerimeterKm,
		m.Bound.Min[0],
		m.Bound.Min[1],
		m.Bound.Max[0],
		m.Bound.Max[1],
		planar.Distance(m.Centroid, ReferencePoint),
	}
}

// FeatureVectorLen is the length of FeatureVector's result.
const FeatureVectorLen = 9

// FeatureVectorNames labels the FeatureVector columns.
var FeatureVectorNames = []string{
	"centroid_lon", "centroid_lat", "area_km2", "perimeter_km",
	"min_lon", "min_lat", "max_lon", "max_lat", "distance_to_reference",
}
