// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ml

import (
	"context"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Forest is a bagged ensemble of CART trees. Classes is 0 for a regressor.
type Forest struct {
	Trees   []*Tree `json:"trees"`
	Classes int     `json:"classes"`
}

// forestConfig mirrors the usual random forest defaults: bootstrap rows,
// all features per split for regression and sqrt(d) for classification.
type forestConfig struct {
	trees   int
	seed    int64
	classes int
}

// fitForest grows cfg.trees trees in parallel. Tree i draws its bootstrap
// sample and feature subsets from seed+i, so the result does not depend on
// scheduling.
func fitForest(ctx context.Context, x [][]float64, y []float64, cfg forestConfig) (*Forest, error) {
	f := &Forest{Trees: make([]*Tree, cfg.trees), Classes: cfg.classes}
	n := len(x)
	tc := treeConfig{minSplit: 2, classes: cfg.classes}
	if cfg.classes > 0 && n > 0 {
		tc.maxFeatures = max(1, int(math.Sqrt(float64(len(x[0])))))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < cfg.trees; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(cfg.seed + int64(i))) //nolint:gosec // reproducible bagging
			sample := make([]int, n)
			for j := range sample {
				sample[j] = rng.Intn(n)
			}
			f.Trees[i] = growTree(x, y, sample, tc, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return f, nil
}

// Predict returns the mean tree output for a regressor.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// Vote returns the majority class and the fraction of trees that voted for
// it. Ties go to the lower class index.
func (f *Forest) Vote(x []float64) (class int, fraction float64) {
	if len(f.Trees) == 0 || f.Classes == 0 {
		return 0, 0
	}
	votes := make([]int, f.Classes)
	for _, t := range f.Trees {
		c := int(t.Predict(x))
		if c >= 0 && c < f.Classes {
			votes[c]++
		}
	}
	class = argmax(votes)
	return class, float64(votes[class]) / float64(len(f.Trees))
}

// PredictAll runs Predict over rows.
func (f *Forest) PredictAll(rows [][]float64) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = f.Predict(r)
	}
	return out
}

// VoteAll runs Vote over rows and returns the winning classes.
func (f *Forest) VoteAll(rows [][]float64) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i], _ = f.Vote(r)
	}
	return out
}
