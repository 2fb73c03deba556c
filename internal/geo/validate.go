// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Geometry problems reported by Validate. Callers wrap them in a data
// format error with the feature index.
var (
	ErrNilGeometry      = errors.New("geometry is missing")
	ErrEmptyGeometry    = errors.New("geometry has no coordinates")
	ErrBadCoordinate    = errors.New("coordinate is not finite")
	ErrOutOfRange       = errors.New("coordinate is outside WGS84 range")
	ErrShortLineString  = errors.New("linestring needs at least 2 points")
	ErrBadRing          = errors.New("polygon ring needs at least 4 points and must be closed")
	ErrUnsupportedShape = errors.New("unsupported geometry type")
)

// Validate checks that g is usable: present, non-empty, finite, in range and
// structurally sound.
func Validate(g orb.Geometry) error {
	if g == nil {
		return ErrNilGeometry
	}
	if IsEmpty(g) {
		return ErrEmptyGeometry
	}

	var coordErr error
	EachPoint(g, func(p orb.Point) {
		if coordErr != nil {
			return
		}
		coordErr = checkPoint(p)
	})
	if coordErr != nil {
		return coordErr
	}

	return checkStructure(g)
}

func checkPoint(p orb.Point) error {
	lon, lat := p[0], p[1]
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return ErrBadCoordinate
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: (%g, %g)", ErrOutOfRange, lon, lat)
	}
	return nil
}

func checkStructure(g orb.Geometry) error {
	switch v := g.(type) {
	case orb.Point, orb.MultiPoint, orb.Bound:
		return nil
	case orb.LineString:
		if len(v) < 2 {
			return ErrShortLineString
		}
	case orb.MultiLineString:
		for _, ls := range v {
			if err := checkStructure(ls); err != nil {
				return err
			}
		}
	case orb.Ring:
		if len(v) < 4 || !v.Closed() {
			return ErrBadRing
		}
	case orb.Polygon:
		for _, r := range v {
			if err := checkStructure(r); err != nil {
				return err
			}
		}
	case orb.MultiPolygon:
		for _, p := range v {
			if err := checkStructure(p); err != nil {
				return err
			}
		}
	case orb.Collection:
		for _, c := range v {
			if err := checkStructure(c); err != nil {
				return err
			}
		}
	default:
		return ErrUnsupportedShape
	}
	return nil
}
