// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package analysis

import (
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// Clustering methods.
const (
	MethodKMeans       = "kmeans"
	MethodDBSCAN       = "dbscan"
	MethodHierarchical = "hierarchical"
)

// Defaults applied by ClusterParams.withDefaults.
const (
	DefaultClusters   = 3
	DefaultEps        = 0.5
	DefaultMinSamples = 2
	DefaultSeed       = 42
	kmeansInits       = 10
	kmeansMaxIter     = 300
	kmeansTol         = 1e-4
)

// ClusterParams selects a clustering method. Zero values mean defaults.
type ClusterParams struct {
	Method     string  `json:"method"`
	NClusters  int     `json:"n_clusters"`
	Eps        float64 `json:"eps"`
	MinSamples int     `json:"min_samples"`
}

func (p ClusterParams) withDefaults() ClusterParams {
	p.Method = strings.ToLower(strings.TrimSpace(p.Method))
	if p.Method == "" {
		p.Method = MethodKMeans
	}
	if p.NClusters == 0 {
		p.NClusters = DefaultClusters
	}
	if p.Eps == 0 {
		p.Eps = DefaultEps
	}
	if p.MinSamples == 0 {
		p.MinSamples = DefaultMinSamples
	}
	return p
}

// Cluster groups features by their standardized centroid coordinates.
// Labels are aligned with the input. Noise points from DBSCAN get
// models.NoiseLabel and are left out of the per-cluster stats.
func Cluster(features []models.Feature, params ClusterParams) (*models.ClusterResult, error) {
	p := params.withDefaults()
	if len(features) == 0 {
		return nil, geoerr.Validation("analysis.cluster", "no features to cluster")
	}

	raw := make([][]float64, len(features))
	for i := range features {
		raw[i] = []float64{features[i].Lon(), features[i].Lat()}
	}
	var scaler StandardScaler
	points := scaler.FitTransform(raw)

	var labels []int
	switch p.Method {
	case MethodKMeans, MethodHierarchical:
		if p.NClusters < 1 || p.NClusters > len(points) {
			return nil, geoerr.Validation("analysis.cluster", "n_clusters must be between 1 and %d, got %d", len(points), p.NClusters)
		}
		if d := distinctPoints(points); d < p.NClusters {
			return nil, geoerr.Validation("analysis.cluster", "only %d distinct locations for %d clusters", d, p.NClusters)
		}
		if p.Method == MethodKMeans {
			labels = KMeans(points, p.NClusters, DefaultSeed).Labels
		} else {
			labels = Ward(points, p.NClusters)
		}
	case MethodDBSCAN:
		if p.Eps < 0 || p.MinSamples < 1 {
			return nil, geoerr.Validation("analysis.cluster", "eps must be positive and min_samples at least 1")
		}
		labels = DBSCAN(points, p.Eps, p.MinSamples)
	default:
		return nil, geoerr.Validation("analysis.cluster", "unknown clustering method %q", params.Method)
	}

	return summarizeClusters(features, labels, p.Method), nil
}

func summarizeClusters(features []models.Feature, labels []int, method string) *models.ClusterResult {
	res := &models.ClusterResult{Method: method, Labels: labels, Clusters: []models.ClusterStat{}}

	byLabel := make(map[int]*models.ClusterStat)
	distinct := make(map[int]struct{})
	for i, l := range labels {
		distinct[l] = struct{}{}
		if l == models.NoiseLabel {
			res.NoiseCount++
			continue
		}
		st, ok := byLabel[l]
		if !ok {
			st = &models.ClusterStat{Label: l}
			byLabel[l] = st
		}
		st.Count++
		st.CentroidLon += features[i].Lon()
		st.CentroidLat += features[i].Lat()
		st.Members = append(st.Members, features[i].DisplayName(i))
	}
	res.NClusters = len(distinct)

	for _, st := range byLabel {
		st.CentroidLon /= float64(st.Count)
		st.CentroidLat /= float64(st.Count)
		res.Clusters = append(res.Clusters, *st)
	}
	sort.Slice(res.Clusters, func(i, j int) bool { return res.Clusters[i].Label < res.Clusters[j].Label })
	return res
}

func distinctPoints(points [][]float64) int {
	seen := make(map[[2]float64]struct{}, len(points))
	for _, p := range points {
		var key [2]float64
		copy(key[:], p)
		seen[key] = struct{}{}
	}
	return len(seen)
}

// KMeansModel is a fitted k-means partition.
type KMeansModel struct {
	Centers [][]float64 `json:"centers"`
	Labels  []int       `json:"labels"`
	Inertia float64     `json:"inertia"`
}

// Predict returns the index of the nearest center.
func (m *KMeansModel) Predict(x []float64) int {
	best, bestD := 0, math.Inf(1)
	for c, center := range m.Centers {
		if d := sqDist(x, center); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// KMeans runs k-means++ seeded Lloyd iterations from several starts and
// keeps the partition with the lowest inertia. The same seed always gives
// the same result. Labels are renumbered in order of first appearance.
func KMeans(points [][]float64, k int, seed int64) *KMeansModel {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic clustering, not security
	var best *KMeansModel
	for run := 0; run < kmeansInits; run++ {
		m := lloyd(points, kmeansPlusPlus(points, k, rng))
		if best == nil || m.Inertia < best.Inertia {
			best = m
		}
	}
	relabel(best)
	return best
}

func kmeansPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	centers := make([][]float64, 0, k)
	centers = append(centers, clone(points[rng.Intn(len(points))]))

	d2 := make([]float64, len(points))
	for len(centers) < k {
		var total float64
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centers {
				d = math.Min(d, sqDist(p, c))
			}
			d2[i] = d
			total += d
		}
		if total == 0 {
			centers = append(centers, clone(points[rng.Intn(len(points))]))
			continue
		}
		target := rng.Float64() * total
		idx := len(points) - 1
		for i, d := range d2 {
			target -= d
			if target <= 0 {
				idx = i
				break
			}
		}
		centers = append(centers, clone(points[idx]))
	}
	return centers
}

func lloyd(points [][]float64, centers [][]float64) *KMeansModel {
	labels := make([]int, len(points))

	for iter := 0; iter < kmeansMaxIter; iter++ {
		for i, p := range points {
			best, bestD := 0, math.Inf(1)
			for c := range centers {
				if d := sqDist(p, centers[c]); d < bestD {
					best, bestD = c, d
				}
			}
			labels[i] = best
		}

		next := updateCenters(points, labels, centers)

		var shift float64
		for c := range centers {
			shift += sqDist(centers[c], next[c])
		}
		centers = next
		if shift <= kmeansTol*kmeansTol {
			break
		}
	}

	var inertia float64
	for i, p := range points {
		best, bestD := 0, math.Inf(1)
		for c := range centers {
			if d := sqDist(p, centers[c]); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
		inertia += bestD
	}
	return &KMeansModel{Centers: centers, Labels: labels, Inertia: inertia}
}

// relabel renumbers clusters by first appearance in input order and
// reorders the centers to match.
func relabel(m *KMeansModel) {
	mapping := make(map[int]int, len(m.Centers))
	for _, l := range m.Labels {
		if _, ok := mapping[l]; !ok {
			mapping[l] = len(mapping)
		}
	}
	for old := range m.Centers {
		if _, ok := mapping[old]; !ok {
			mapping[old] = len(mapping)
		}
	}
	centers := make([][]float64, len(m.Centers))
	for old, c := range m.Centers {
		centers[mapping[old]] = c
	}
	for i, l := range m.Labels {
		m.Labels[i] = mapping[l]
	}
	m.Centers = centers
}

// DBSCAN labels density-connected points. A point is a core point when at
// least minSamples points, itself included, lie within eps. Points reachable
// from no core point are labelled models.NoiseLabel.
func DBSCAN(points [][]float64, eps float64, minSamples int) []int {
	const unvisited = -2
	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = unvisited
	}
	eps2 := eps * eps

	neighbours := func(i int) []int {
		var out []int
		for j := range points {
			if sqDist(points[i], points[j]) <= eps2 {
				out = append(out, j)
			}
		}
		return out
	}

	cluster := 0
	for i := range points {
		if labels[i] != unvisited {
			continue
		}
		nb := neighbours(i)
		if len(nb) < minSamples {
			labels[i] = models.NoiseLabel
			continue
		}
		labels[i] = cluster
		queue := append([]int(nil), nb...)
		for len(queue) > 0 {
			j := queue[0]
			queue = queue[1:]
			if labels[j] == models.NoiseLabel {
				labels[j] = cluster
			}
			if labels[j] != unvisited {
				continue
			}
			labels[j] = cluster
			if more := neighbours(j); len(more) >= minSamples {
				queue = append(queue, more...)
			}
		}
		cluster++
	}
	return labels
}

// Ward runs agglomerative clustering with Ward linkage until k clusters
// remain. Ties merge the lowest-numbered pair first. Labels are numbered by
// each cluster's first member in input order.
func Ward(points [][]float64, k int) []int {
	n := len(points)
	active := make([]bool, n)
	size := make([]float64, n)
	members := make([][]int, n)
	dist := make([][]float64, n)
	for i := range points {
		active[i] = true
		size[i] = 1
		members[i] = []int{i}
		dist[i] = make([]float64, n)
		for j := 0; j < i; j++ {
			d := sqDist(points[i], points[j])
			dist[i][j], dist[j][i] = d, d
		}
	}

	for clusters := n; clusters > k; clusters-- {
		bi, bj, best := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					bi, bj, best = i, j, dist[i][j]
				}
			}
		}

		// Lance-Williams update for Ward on squared distances.
		for m := 0; m < n; m++ {
			if !active[m] || m == bi || m == bj {
				continue
			}
			total := size[bi] + size[bj] + size[m]
			d := ((size[bi]+size[m])*dist[bi][m] + (size[bj]+size[m])*dist[bj][m] - size[m]*best) / total
			dist[bi][m], dist[m][bi] = d, d
		}
		size[bi] += size[bj]
		members[bi] = append(members[bi], members[bj]...)
		active[bj] = false
	}

	labels := make([]int, n)
	roots := make([]int, 0, k)
	for i := 0; i < n; i++ {
		if active[i] {
			roots = append(roots, i)
		}
	}
	// members[root] always contains root, which is its smallest index.
	sort.Ints(roots)
	for label, r := range roots {
		for _, m := range members[r] {
			labels[m] = label
		}
	}
	return labels
}

// Silhouette is the mean silhouette coefficient over non-noise points. The
// second result is false when fewer than two clusters, or as many clusters
// as points, make the score undefined.
func Silhouette(points [][]float64, labels []int) (float64, bool) {
	groups := make(map[int][]int)
	var idx []int
	for i, l := range labels {
		if l == models.NoiseLabel {
			continue
		}
		groups[l] = append(groups[l], i)
		idx = append(idx, i)
	}
	if len(groups) < 2 || len(groups) >= len(idx) {
		return 0, false
	}

	var total float64
	for _, i := range idx {
		own := groups[labels[i]]
		if len(own) == 1 {
			continue
		}
		var a float64
		for _, j := range own {
			if j != i {
				a += math.Sqrt(sqDist(points[i], points[j]))
			}
		}
		a /= float64(len(own) - 1)

		b := math.Inf(1)
		for l, other := range groups {
			if l == labels[i] {
				continue
			}
			var sum float64
			for _, j := range other {
				sum += math.Sqrt(sqDist(points[i], points[j]))
			}
			b = math.Min(b, sum/float64(len(other)))
		}
		if s := math.Max(a, b); s > 0 {
			total += (b - a) / s
		}
	}
	return total / float64(len(idx)), true
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}

// updateCenters returns the mean of each cluster under labels. An empty
// cluster takes over the point farthest from its current center, among
// clusters that keep at least one other point; that point leaves its old
// cluster's mean and labels is updated in place.
func updateCenters(points [][]float64, labels []int, centers [][]float64) [][]float64 {
	k, dim := len(centers), len(points[0])
	sums := make([][]float64, k)
	counts := make([]int, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	for i, p := range points {
		counts[labels[i]]++
		for j, v := range p {
			sums[labels[i]][j] += v
		}
	}

	for c := range sums {
		if counts[c] > 0 {
			continue
		}
		far, farD := -1, -1.0
		for i, p := range points {
			if counts[labels[i]] < 2 {
				continue
			}
			if d := sqDist(p, centers[labels[i]]); d > farD {
				far, farD = i, d
			}
		}
		if far < 0 {
			sums[c] = clone(centers[c])
			counts[c] = 1
			continue
		}
		old := labels[far]
		counts[old]--
		for j, v := range points[far] {
			sums[old][j] -= v
		}
		sums[c] = clone(points[far])
		counts[c] = 1
		labels[far] = c
	}

	for c := range sums {
		for j := range sums[c] {
			sums[c][j] /= float64(counts[c])
		}
	}
	return sums
}
