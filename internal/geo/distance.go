// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package geo

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

// DistanceKm is the great-circle (haversine) distance between two lon/lat
// points in kilometers.
func DistanceKm(a, b orb.Point) float64 {
	return geo.DistanceHaversine(a, b) / 1000
}

// DistanceDegrees is the flat euclidean distance in degrees. The model
// features and the accessibility training target are expressed in it.
func DistanceDegrees(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// Buffer returns the bound around p padded by km on every side, clamped to
// the WGS84 range. Radius queries prefilter with it before the exact
// great-circle test.
func Buffer(p orb.Point, km float64) orb.Bound {
	b := geo.BoundPad(orb.Bound{Min: p, Max: p}, km*1000)
	b.Min[0] = clamp(b.Min[0], -180, 180)
	b.Max[0] = clamp(b.Max[0], -180, 180)
	b.Min[1] = clamp(b.Min[1], -90, 90)
	b.Max[1] = clamp(b.Max[1], -90, 90)
	return b
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
