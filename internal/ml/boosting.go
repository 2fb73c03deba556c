// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ml

import (
	"context"

	"gonum.org/v1/gonum/stat"
)

// Boosting is a least-squares gradient boosted regressor.
type Boosting struct {
	Init         float64 `json:"init"`
	LearningRate float64 `json:"learning_rate"`
	Stages       []*Tree `json:"stages"`
}

type boostConfig struct {
	stages       int
	learningRate float64
	maxDepth     int
}

// fitBoosting starts from the target mean and fits each stage to the
// current residuals.
func fitBoosting(ctx context.Context, x [][]float64, y []float64, cfg boostConfig) (*Boosting, error) {
	b := &Boosting{Init: stat.Mean(y, nil), LearningRate: cfg.learningRate}
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = b.Init
	}
	all := make([]int, len(y))
	for i := range all {
		all[i] = i
	}
	residual := make([]float64, len(y))
	tc := treeConfig{maxDepth: cfg.maxDepth, minSplit: 2}

	for s := 0; s < cfg.stages; s++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		t := growTree(x, residual, all, tc, nil)
		b.Stages = append(b.Stages, t)
		for i := range pred {
			pred[i] += cfg.learningRate * t.Predict(x[i])
		}
	}
	return b, nil
}

// Predict sums the scaled stage outputs.
func (b *Boosting) Predict(x []float64) float64 {
	v := b.Init
	for _, t := range b.Stages {
		v += b.LearningRate * t.Predict(x)
	}
	return v
}

// PredictAll runs Predict over rows.
func (b *Boosting) PredictAll(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = b.Predict(r)
	}
	return out
}
