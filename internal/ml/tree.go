// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ml

import (
	"math/rand"
	"sort"
)

const minGain = 1e-12

// treeConfig controls CART growth.
type treeConfig struct {
	maxDepth    int // 0 grows until leaves are pure
	minSplit    int // Rows needed to try a split
	maxFeatures int // Features sampled per split, <= 0 for all
	classes     int // 0 grows a regression tree
}

// node is one entry of a flattened tree. Leaves have Feature -1.
type node struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"` // Mean target, or majority class index
}

// Tree is a fitted CART tree. Rows go left when x[Feature] <= Threshold.
type Tree struct {
	Nodes []node `json:"nodes"`
}

// Predict walks x down to a leaf and returns its value.
func (t *Tree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for t.Nodes[i].Feature >= 0 {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

type treeBuilder struct {
	x   [][]float64
	y   []float64
	cfg treeConfig
	rng *rand.Rand
	t   *Tree
}

// growTree fits a tree on the rows of x listed in idx. Duplicated indexes
// (bootstrap samples) count once per occurrence.
func growTree(x [][]float64, y []float64, idx []int, cfg treeConfig, rng *rand.Rand) *Tree {
	if cfg.minSplit < 2 {
		cfg.minSplit = 2
	}
	b := &treeBuilder{x: x, y: y, cfg: cfg, rng: rng, t: &Tree{}}
	if len(idx) > 0 {
		b.grow(idx, 0)
	}
	return b.t
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	id := len(b.t.Nodes)
	b.t.Nodes = append(b.t.Nodes, node{Feature: -1, Value: b.leafValue(idx)})

	if len(idx) < b.cfg.minSplit || (b.cfg.maxDepth > 0 && depth >= b.cfg.maxDepth) {
		return id
	}
	if b.impurity(idx) <= minGain {
		return id
	}
	f, thr, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][f] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.t.Nodes[id] = node{Feature: f, Threshold: thr, Left: l, Right: r, Value: b.t.Nodes[id].Value}
	return id
}

func (b *treeBuilder) leafValue(idx []int) float64 {
	if b.cfg.classes == 0 {
		var sum float64
		for _, i := range idx {
			sum += b.y[i]
		}
		return sum / float64(len(idx))
	}
	counts := make([]int, b.cfg.classes)
	for _, i := range idx {
		counts[int(b.y[i])]++
	}
	return float64(argmax(counts))
}

// impurity is the summed squared error for regression and n*gini for
// classification, so child impurities add up directly.
func (b *treeBuilder) impurity(idx []int) float64 {
	if b.cfg.classes == 0 {
		var sum, sumSq float64
		for _, i := range idx {
			sum += b.y[i]
			sumSq += b.y[i] * b.y[i]
		}
		return sse(sum, sumSq, float64(len(idx)))
	}
	counts := make([]float64, b.cfg.classes)
	for _, i := range idx {
		counts[int(b.y[i])]++
	}
	return weightedGini(counts, float64(len(idx)))
}

func (b *treeBuilder) candidateFeatures(d int) []int {
	if b.cfg.maxFeatures <= 0 || b.cfg.maxFeatures >= d || b.rng == nil {
		all := make([]int, d)
		for i := range all {
			all[i] = i
		}
		return all
	}
	return b.rng.Perm(d)[:b.cfg.maxFeatures]
}

func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold float64, ok bool) {
	parent := b.impurity(idx)
	bestCost := parent - minGain
	n := len(idx)
	sorted := make([]int, n)

	for _, f := range b.candidateFeatures(len(b.x[idx[0]])) {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.x[sorted[a]][f] < b.x[sorted[c]][f] })

		sweep := b.newSweep(sorted)
		for k := 0; k < n-1; k++ {
			sweep.move(sorted[k])
			lo, hi := b.x[sorted[k]][f], b.x[sorted[k+1]][f]
			if lo == hi {
				continue
			}
			if cost := sweep.cost(); cost < bestCost {
				bestCost = cost
				feature, ok = f, true
				threshold = lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
			}
		}
	}
	return feature, threshold, ok
}

// sweep tracks left/right sufficient statistics while rows move left.
type sweep struct {
	b                *treeBuilder
	nL, nR           float64
	sumL, sumR       float64
	sqL, sqR         float64
	countsL, countsR []float64
}

func (b *treeBuilder) newSweep(rows []int) *sweep {
	s := &sweep{b: b, nR: float64(len(rows))}
	if b.cfg.classes > 0 {
		s.countsL = make([]float64, b.cfg.classes)
		s.countsR = make([]float64, b.cfg.classes)
	}
	for _, i := range rows {
		v := b.y[i]
		if b.cfg.classes > 0 {
			s.countsR[int(v)]++
		} else {
			s.sumR += v
			s.sqR += v * v
		}
	}
	return s
}

func (s *sweep) move(i int) {
	v := s.b.y[i]
	s.nL++
	s.nR--
	if s.countsL != nil {
		s.countsL[int(v)]++
		s.countsR[int(v)]--
		return
	}
	s.sumL += v
	s.sumR -= v
	s.sqL += v * v
	s.sqR -= v * v
}

func (s *sweep) cost() float64 {
	if s.countsL != nil {
		return weightedGini(s.countsL, s.nL) + weightedGini(s.countsR, s.nR)
	}
	return sse(s.sumL, s.sqL, s.nL) + sse(s.sumR, s.sqR, s.nR)
}

func sse(sum, sumSq, n float64) float64 {
	if n == 0 {
		return 0
	}
	v := sumSq - sum*sum/n
	if v < 0 {
		return 0
	}
	return v
}

func weightedGini(counts []float64, n float64) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / n
		g -= p * p
	}
	return n * g
}

// argmax returns the first index of the largest count.
func argmax(counts []int) int {
	best := 0
	for i, c := range counts {
		if c > counts[best] {
			best = i
		}
	}
	return best
}
