// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package analysis

import (
	"math"
	"sort"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// DefaultGridSize is the density cell edge in degrees.
const DefaultGridSize = 0.1

// MaxGridCells bounds the grid a single request may ask for.
const MaxGridCells = 1_000_000

// Density lays a square grid over the centroid bounding box and counts the
// centroids inside each cell. The grid starts at the box minimum and has
// floor(span/size)+1 columns and rows, so every centroid falls into exactly
// one half-open cell [x0, x0+size) x [y0, y0+size). Only occupied cells are
// reported, most crowded first.
func Density(features []models.Feature, gridSize float64) (*models.DensityResult, error) {
	if gridSize <= 0 || math.IsNaN(gridSize) || math.IsInf(gridSize, 0) {
		return nil, geoerr.Validation("analysis.density", "grid_size must be positive, got %v", gridSize)
	}
	res := &models.DensityResult{GridSize: gridSize, Cells: []models.DensityCell{}}
	if len(features) == 0 {
		return res, nil
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)
	for i := range features {
		minLon = math.Min(minLon, features[i].Lon())
		maxLon = math.Max(maxLon, features[i].Lon())
		minLat = math.Min(minLat, features[i].Lat())
		maxLat = math.Max(maxLat, features[i].Lat())
	}

	colsF := math.Floor((maxLon-minLon)/gridSize) + 1
	rowsF := math.Floor((maxLat-minLat)/gridSize) + 1
	if colsF*rowsF > MaxGridCells {
		return nil, geoerr.Validation("analysis.density", "grid_size %v yields %.0f cells, limit is %d", gridSize, colsF*rowsF, MaxGridCells)
	}
	cols, rows := int(colsF), int(rowsF)
	res.TotalCells = cols * rows

	counts := make(map[int]int)
	for i := range features {
		c := cellIndex(features[i].Lon(), minLon, gridSize, cols)
		r := cellIndex(features[i].Lat(), minLat, gridSize, rows)
		counts[r*cols+c]++
	}

	area := gridSize * gridSize
	for id, n := range counts {
		c, r := id%cols, id/cols
		x0 := minLon + float64(c)*gridSize
		y0 := minLat + float64(r)*gridSize
		cell := models.DensityCell{
			CellID:    id,
			MinLon:    x0,
			MinLat:    y0,
			MaxLon:    x0 + gridSize,
			MaxLat:    y0 + gridSize,
			CenterLon: x0 + gridSize/2,
			CenterLat: y0 + gridSize/2,
			Count:     n,
			Density:   float64(n) / area,
		}
		res.Cells = append(res.Cells, cell)
		res.MaxDensity = math.Max(res.MaxDensity, cell.Density)
	}
	res.OccupiedCells = len(res.Cells)

	sort.Slice(res.Cells, func(i, j int) bool {
		if res.Cells[i].Count != res.Cells[j].Count {
			return res.Cells[i].Count > res.Cells[j].Count
		}
		return res.Cells[i].CellID < res.Cells[j].CellID
	})
	return res, nil
}

// cellIndex finds the cell whose half-open interval [origin+i*size,
// origin+(i+1)*size) holds v, checked against the same bounds the cells
// report so rounding in the division cannot move a value across an edge.
func cellIndex(v, origin, size float64, n int) int {
	i := int(math.Floor((v - origin) / size))
	for i > 0 && v < origin+float64(i)*size {
		i--
	}
	for i < n-1 && v >= origin+float64(i+1)*size {
		i++
	}
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
