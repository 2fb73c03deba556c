// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package models

import (
	"strconv"

	"github.com/paulmach/orb"
)

// Feature is one row of an in-memory analysis table. It is built fresh for
// every request from an uploaded collection or from stored landmarks, with
// the derived columns already filled in.
type Feature struct {
	ID          string
	Name        string
	Description string
	Type        string
	Geometry    orb.Geometry
	Properties  map[string]any

	Centroid    orb.Point // Planar centroid, lon/lat
	AreaKm2     float64   // Planar area x 111 x 111 (approximation)
	PerimeterKm float64   // Planar length x 111 (approximation)
	Bound       orb.Bound
}

// Lon returns the centroid longitude.
func (f *Feature) Lon() float64 { return f.Centroid[0] }

// Lat returns the centroid latitude.
func (f *Feature) Lat() float64 { return f.Centroid[1] }

// DisplayName falls back to "Landmark <index>" like the dashboard does.
func (f *Feature) DisplayName(index int) string {
	if f.Name != "" {
		return f.Name
	}
	return "Landmark " + strconv.Itoa(index)
}
