// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package analysis

import (
	"math"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// DefaultSpeedKmh is the travel speed assumed when a request gives none.
const DefaultSpeedKmh = 50.0

// Accessibility scores each feature by its mean great-circle distance to
// every other feature: score = 1 / (mean km + 1). A lone feature has zero
// distances and score 1.
func Accessibility(features []models.Feature, speedKmh float64) (*models.AccessibilityResult, error) {
	if speedKmh <= 0 || math.IsNaN(speedKmh) || math.IsInf(speedKmh, 0) {
		return nil, geoerr.Validation("analysis.accessibility", "transport speed must be positive, got %v", speedKmh)
	}
	res := &models.AccessibilityResult{
		TransportSpeedKmh: speedKmh,
		Entries:           make([]models.AccessibilityEntry, len(features)),
	}

	n := len(features)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := geo.DistanceKm(features[i].Centroid, features[j].Centroid)
			dist[i][j], dist[j][i] = d, d
		}
	}

	for i := range features {
		e := models.AccessibilityEntry{ID: features[i].ID, Name: features[i].DisplayName(i)}
		if n > 1 {
			var sum float64
			e.MinDistanceKm = math.Inf(1)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				sum += dist[i][j]
				e.MinDistanceKm = math.Min(e.MinDistanceKm, dist[i][j])
				e.MaxDistanceKm = math.Max(e.MaxDistanceKm, dist[i][j])
			}
			e.AvgDistanceKm = sum / float64(n-1)
		}
		e.AvgTravelTimeHours = e.AvgDistanceKm / speedKmh
		e.MinTravelTimeHours = e.MinDistanceKm / speedKmh
		e.MaxTravelTimeHours = e.MaxDistanceKm / speedKmh
		e.Score = 1 / (e.AvgDistanceKm + 1)
		res.Entries[i] = e
	}

	for i := range res.Entries {
		e := &res.Entries[i]
		if res.MostAccessible == nil || e.Score > res.MostAccessible.Score {
			res.MostAccessible = e
		}
		if res.LeastAccessible == nil || e.Score < res.LeastAccessible.Score {
			res.LeastAccessible = e
		}
	}
	return res, nil
}
