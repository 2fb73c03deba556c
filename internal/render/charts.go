// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package render

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/geoexplorer/internal/analysis"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// Chart names a PNG chart.
type Chart string

// Available charts.
const (
	ChartTypeBar       Chart = "types_bar"       // landmark count per type
	ChartTypePie       Chart = "types_pie"       // share per type
	ChartLocations     Chart = "locations"       // centroid scatter, lon by lat
	ChartAreaHistogram Chart = "area_histogram"  // AreaKm2 in ten bins
	ChartDensity       Chart = "density_heatmap" // occupied grid cells colored by density
)

// Charts lists every chart in dashboard order.
var Charts = []Chart{ChartTypeBar, ChartTypePie, ChartLocations, ChartAreaHistogram, ChartDensity}

const histogramBins = 10

// ParseChart validates a chart name.
func ParseChart(s string) (Chart, error) {
	for _, c := range Charts {
		if string(c) == s {
			return c, nil
		}
	}
	return "", geoerr.Validation("render.parse_chart", "unknown chart %q", s)
}

// RenderChart writes the named chart as PNG. A collection with nothing to
// plot is a data format error.
func (r *Renderer) RenderChart(w io.Writer, features []models.Feature, c Chart) error {
	const op = "render.chart"
	if len(features) == 0 {
		return geoerr.DataFormat(op, "no landmarks to chart")
	}
	var err error
	switch c {
	case ChartTypeBar:
		err = r.typeBar(w, features)
	case ChartTypePie:
		err = r.typePie(w, features)
	case ChartLocations:
		err = r.locations(w, features)
	case ChartAreaHistogram:
		err = r.areaHistogram(w, features)
	case ChartDensity:
		err = r.densityHeatmap(w, features)
	default:
		return geoerr.Validation(op, "unknown chart %q", c)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s chart: %w", c, err)
	}
	return nil
}

// ChartPNG renders a chart into memory.
func (r *Renderer) ChartPNG(features []models.Feature, c Chart) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderChart(&buf, features, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func featureTypes(features []models.Feature) []string {
	types := make([]string, len(features))
	for i := range features {
		types[i] = features[i].Type
	}
	return types
}

func fill(hex string) chart.Style {
	c := drawing.ColorFromHex(hex)
	return chart.Style{FillColor: c, StrokeColor: c}
}

func (r *Renderer) typeBar(w io.Writer, features []models.Feature) error {
	counts := countTypes(featureTypes(features))
	bars := make([]chart.Value, 0, len(counts))
	maxCount := 0
	for _, tc := range counts {
		bars = append(bars, chart.Value{Label: titleCase(tc.Type), Value: float64(tc.Count), Style: fill(TypeColor(tc.Type))})
		maxCount = max(maxCount, tc.Count)
	}
	bc := chart.BarChart{
		Title:    "Landmark Types",
		Width:    r.cfg.ChartWidth,
		Height:   r.cfg.ChartHeight,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount) * 1.1},
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}

func (r *Renderer) typePie(w io.Writer, features []models.Feature) error {
	counts := countTypes(featureTypes(features))
	values := make([]chart.Value, 0, len(counts))
	for _, tc := range counts {
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%d)", titleCase(tc.Type), tc.Count),
			Value: float64(tc.Count),
			Style: fill(TypeColor(tc.Type)),
		})
	}
	pc := chart.PieChart{
		Title:  "Landmark Type Share",
		Width:  r.cfg.ChartWidth,
		Height: r.cfg.ChartHeight,
		Values: values,
	}
	return pc.Render(chart.PNG, w)
}

// paddedRange returns a non-empty range around values.
func paddedRange(values []float64) *chart.ContinuousRange {
	lo, hi := floats.Min(values), floats.Max(values)
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = 0.5
	}
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func (r *Renderer) locations(w io.Writer, features []models.Feature) error {
	lons := make([]float64, len(features))
	lats := make([]float64, len(features))
	for i := range features {
		lons[i] = features[i].Lon()
		lats[i] = features[i].Lat()
	}
	c := chart.Chart{
		Title:  "Landmark Locations",
		Width:  r.cfg.ChartWidth,
		Height: r.cfg.ChartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20},
		},
		XAxis: chart.XAxis{Name: "Longitude", Range: paddedRange(lons)},
		YAxis: chart.YAxis{Name: "Latitude", Range: paddedRange(lats)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    5,
					DotColor:    drawing.ColorFromHex(TypeColor("cathedral")),
				},
				XValues: lons,
				YValues: lats,
			},
		},
	}
	return c.Render(chart.PNG, w)
}

// areaBins counts AreaKm2 into histogramBins equal-width bins.
func areaBins(features []models.Feature) (dividers, counts []float64) {
	areas := make([]float64, len(features))
	for i := range features {
		areas[i] = features[i].AreaKm2
	}
	sort.Float64s(areas)
	lo, hi := areas[0], areas[len(areas)-1]
	if hi == lo {
		hi = lo + 1
	}
	dividers = floats.Span(make([]float64, histogramBins+1), lo, hi)
	// The top divider is exclusive; nudge it so the largest area is counted.
	dividers[histogramBins] = math.Nextafter(hi, math.Inf(1))
	counts = stat.Histogram(nil, dividers, areas, nil)
	return dividers, counts
}

func (r *Renderer) areaHistogram(w io.Writer, features []models.Feature) error {
	dividers, counts := areaBins(features)
	bars := make([]chart.Value, len(counts))
	for i, n := range counts {
		bars[i] = chart.Value{Label: fmt.Sprintf("%.0f", dividers[i]), Value: n, Style: fill("#74add1")}
	}
	bc := chart.BarChart{
		Title:    "Area Distribution (km2)",
		Width:    r.cfg.ChartWidth,
		Height:   r.cfg.ChartHeight,
		BarWidth: max(10, r.cfg.ChartWidth/(2*histogramBins)),
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: floats.Max(counts) * 1.1},
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}

// densityPoints flattens the occupied cells of a default-size density grid
// into cell centers and their densities.
func densityPoints(features []models.Feature) (lons, lats, dens []float64, grid float64, err error) {
	res, err := analysis.Density(features, analysis.DefaultGridSize)
	if err != nil {
		return nil, nil, nil, 0, err
	}
	lons = make([]float64, len(res.Cells))
	lats = make([]float64, len(res.Cells))
	dens = make([]float64, len(res.Cells))
	for i, c := range res.Cells {
		lons[i], lats[i], dens[i] = c.CenterLon, c.CenterLat, c.Density
	}
	return lons, lats, dens, res.GridSize, nil
}

func (r *Renderer) densityHeatmap(w io.Writer, features []models.Feature) error {
	lons, lats, dens, grid, err := densityPoints(features)
	if err != nil {
		return err
	}
	xr := paddedRange(lons)
	// One cell edge in pixels, halved for the dot radius.
	dot := float64(r.cfg.ChartWidth) * grid / (xr.Max - xr.Min) / 2
	dot = math.Max(3, math.Min(dot, 20))
	lo, hi := floats.Min(dens), floats.Max(dens)
	if hi == lo {
		lo = 0
	}

	c := chart.Chart{
		Title:  "Landmark Density",
		Width:  r.cfg.ChartWidth,
		Height: r.cfg.ChartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20},
		},
		XAxis: chart.XAxis{Name: "Longitude", Range: xr},
		YAxis: chart.YAxis{Name: "Latitude", Range: paddedRange(lats)},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style: chart.Style{
					StrokeWidth: chart.Disabled,
					DotWidth:    dot,
					DotColor:    chart.Viridis(hi, lo, hi),
					DotColorProvider: func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
						return chart.Viridis(dens[index], lo, hi)
					},
				},
				XValues: lons,
				YValues: lats,
			},
		},
	}
	return c.Render(chart.PNG, w)
}
