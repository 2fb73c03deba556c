// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
)

// Transform operations.
const (
	OpSimplify   = "simplify"
	OpConvexHull = "convex_hull"
	OpCentroid   = "centroid"
	OpEnvelope   = "envelope"
)

// DefaultSimplifyTolerance is in degrees.
const DefaultSimplifyTolerance = 0.001

// Transform applies a geometry operation to every feature and returns a
// new collection; properties are copied, fc is not modified. Features with
// no geometry pass through unchanged.
func Transform(fc *geojson.FeatureCollection, op string, tolerance float64) (*geojson.FeatureCollection, error) {
	var fn func(orb.Geometry) orb.Geometry
	switch strings.ToLower(strings.TrimSpace(op)) {
	case OpSimplify:
		if tolerance <= 0 {
			tolerance = DefaultSimplifyTolerance
		}
		s := simplify.DouglasPeucker(tolerance)
		fn = func(g orb.Geometry) orb.Geometry { return s.Simplify(orb.Clone(g)) }
	case OpConvexHull:
		fn = geo.ConvexHull
	case OpCentroid:
		fn = func(g orb.Geometry) orb.Geometry {
			c, _ := planar.CentroidArea(g)
			return c
		}
	case OpEnvelope:
		fn = func(g orb.Geometry) orb.Geometry {
			b := g.Bound()
			if b.Min == b.Max {
				return b.Min
			}
			return b.ToPolygon()
		}
	default:
		return nil, geoerr.Validation("ingest.transform", "unknown operation %q", op)
	}

	out := geojson.NewFeatureCollection()
	for _, src := range fc.Features {
		var g orb.Geometry
		if src.Geometry != nil {
			g = fn(src.Geometry)
		}
		f := geojson.NewFeature(g)
		f.ID = src.ID
		for k, v := range src.Properties {
			f.Properties[k] = v
		}
		out.Append(f)
	}
	return out, nil
}
