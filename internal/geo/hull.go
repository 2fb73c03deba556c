// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package geo

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

// ConvexHull returns the convex hull of all vertices of g using Andrew's
// monotone chain. One distinct vertex yields a Point, two or more collinear
// vertices a LineString, anything else a counter-clockwise Polygon.
func ConvexHull(g orb.Geometry) orb.Geometry {
	var pts []orb.Point
	EachPoint(g, func(p orb.Point) { pts = append(pts, p) })
	if len(pts) == 0 {
		return nil
	}

	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	uniq := pts[:1]
	for _, p := range pts[1:] {
		if !p.Equal(uniq[len(uniq)-1]) {
			uniq = append(uniq, p)
		}
	}
	if len(uniq) == 1 {
		return uniq[0]
	}

	hull := make([]orb.Point, 0, 2*len(uniq))
	for _, p := range uniq {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(uniq) - 2; i >= 0; i-- {
		p := uniq[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// hull now ends where it started.
	if len(hull) < 4 {
		return orb.LineString{uniq[0], uniq[len(uniq)-1]}
	}
	return orb.Polygon{orb.Ring(hull)}
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

// ToWKT encodes g as well-known text.
func ToWKT(g orb.Geometry) string {
	if g == nil {
		return ""
	}
	return wkt.MarshalString(g)
}

// ParseWKT decodes well-known text into a geometry.
func ParseWKT(s string) (orb.Geometry, error) {
	return wkt.Unmarshal(s)
}
