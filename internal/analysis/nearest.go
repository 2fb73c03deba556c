// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package analysis

import (
	"sort"

	"github.com/paulmach/orb"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// Nearest ranks features by great-circle distance from query to their
// centroid. Ties keep input order. limit <= 0 returns every feature.
func Nearest(features []models.Feature, query orb.Point, limit int) []models.NearestResult {
	out := make([]models.NearestResult, len(features))
	for i := range features {
		f := &features[i]
		out[i] = models.NearestResult{
			ID:          f.ID,
			Name:        f.DisplayName(i),
			Description: f.Description,
			Type:        f.Type,
			DistanceKm:  geo.DistanceKm(query, f.Centroid),
			CentroidLat: f.Lat(),
			CentroidLon: f.Lon(),
			Properties:  f.Properties,
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm < out[j].DistanceKm
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// WithinRadius keeps the features whose centroid lies within radiusKm of
// center.
func WithinRadius(features []models.Feature, center orb.Point, radiusKm float64) []models.Feature {
	var out []models.Feature
	for i := range features {
		if geo.DistanceKm(center, features[i].Centroid) <= radiusKm {
			out = append(out, features[i])
		}
	}
	return out
}
