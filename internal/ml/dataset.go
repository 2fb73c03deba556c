// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ml

import (
	"strings"

	"github.com/paulmach/orb/planar"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// MinTrainingRows is the smallest collection Train accepts.
const MinTrainingRows = 5

// Vector returns the model input for one loaded feature.
func Vector(f *models.Feature) []float64 {
	return geo.FeatureVector(geo.Metrics{
		Centroid:    f.Centroid,
		AreaKm2:     f.AreaKm2,
		PerimeterKm: f.PerimeterKm,
		Bound:       f.Bound,
	})
}

// Vectors returns the model inputs for every feature, in order.
func Vectors(features []models.Feature) [][]float64 {
	out := make([][]float64, len(features))
	for i := range features {
		out[i] = Vector(&features[i])
	}
	return out
}

// AccessibilityTargets scores each feature by 1 / (mean planar degree
// distance to the others + 1). A lone feature scores 0.
func AccessibilityTargets(features []models.Feature) []float64 {
	n := len(features)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	for i := range features {
		var sum float64
		for j := range features {
			if i != j {
				sum += planar.Distance(features[i].Centroid, features[j].Centroid)
			}
		}
		out[i] = 1 / (sum/float64(n-1) + 1)
	}
	return out
}

// classLabels returns the type tag of every feature. Any blank tag, or fewer
// than two distinct tags, is a ModelInputError.
func classLabels(features []models.Feature) ([]string, error) {
	labels := make([]string, len(features))
	distinct := make(map[string]struct{})
	for i := range features {
		t := strings.TrimSpace(features[i].Type)
		if t == "" {
			return nil, geoerr.ModelInput("ml.train", "feature %d (%s) has no type label", i, features[i].DisplayName(i))
		}
		labels[i] = t
		distinct[t] = struct{}{}
	}
	if len(distinct) < 2 {
		return nil, geoerr.ModelInput("ml.train", "classification needs at least 2 distinct types, got %d", len(distinct))
	}
	return labels, nil
}

func checkRows(features []models.Feature) error {
	if len(features) < MinTrainingRows {
		return geoerr.ModelInput("ml.train", "need at least %d features to train, got %d", MinTrainingRows, len(features))
	}
	return nil
}
