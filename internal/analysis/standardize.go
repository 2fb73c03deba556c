// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package analysis implements the spatial analyses that run over a loaded
// feature table: nearest neighbours, clustering, density grids and
// accessibility scoring. Every function is pure; nothing is cached between
// calls and inputs are never modified.
package analysis

import (
	"gonum.org/v1/gonum/stat"
)

// StandardScaler rescales columns to zero mean and unit population variance.
// Columns with zero variance are only centered.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit learns column statistics from rows. All rows must have equal length.
func (s *StandardScaler) Fit(rows [][]float64) {
	if len(rows) == 0 {
		s.Mean, s.Scale = nil, nil
		return
	}
	d := len(rows[0])
	s.Mean = make([]float64, d)
	s.Scale = make([]float64, d)
	col := make([]float64, len(rows))
	for j := 0; j < d; j++ {
		for i, r := range rows {
			col[i] = r[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		s.Mean[j] = mean
		if std == 0 {
			std = 1
		}
		s.Scale[j] = std
	}
}

// Transform returns scaled copies of rows.
func (s *StandardScaler) Transform(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = s.TransformRow(r)
	}
	return out
}

// TransformRow scales a single row.
func (s *StandardScaler) TransformRow(r []float64) []float64 {
	out := make([]float64, len(r))
	for j, v := range r {
		if j < len(s.Mean) {
			out[j] = (v - s.Mean[j]) / s.Scale[j]
		} else {
			out[j] = v
		}
	}
	return out
}

// FitTransform is Fit followed by Transform.
func (s *StandardScaler) FitTransform(rows [][]float64) [][]float64 {
	s.Fit(rows)
	return s.Transform(rows)
}

func sqDist(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
