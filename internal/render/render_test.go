// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package render

import (
	"bytes"
	"errors"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"

	"github.com/tomtom215/geoexplorer/internal/config"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "disabled",
		Format: "console",
		Output: io.Discard,
	})
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(config.RenderConfig{
		CenterLat:    41.8719,
		CenterLon:    12.5674,
		Zoom:         6,
		ChartWidth:   640,
		ChartHeight:  400,
		DashboardTop: 3,
	}, t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return r
}

func sampleFeatures(t *testing.T) []models.Feature {
	t.Helper()
	inputs := ingest.SampleLandmarks()
	rows := make([]models.Landmark, len(inputs))
	for i, in := range inputs {
		rows[i] = models.Landmark{
			ID:           int64(i + 1),
			Name:         in.Name,
			Description:  in.Description,
			LandmarkType: in.LandmarkType,
			Geometry:     in.Geometry,
			Properties:   in.Properties,
		}
	}
	features, err := ingest.FromLandmarks(rows)
	if err != nil {
		t.Fatalf("FromLandmarks() error = %v", err)
	}
	return features
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{"", StyleDefault, false},
		{"dark", StyleDark, false},
		{"satellite", StyleSatellite, false},
		{"terrain", StyleTerrain, false},
		{"neon", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStyle(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStyle(%q) error = %v", tt.in, err)
			}
			if tt.wantErr && !errors.Is(err, geoerr.ErrValidation) {
				t.Errorf("error kind = %v, want validation", err)
			}
			if got != tt.want {
				t.Errorf("ParseStyle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTypeColor(t *testing.T) {
	if got := TypeColor("monument"); got != "#d73027" {
		t.Errorf("TypeColor(monument) = %s", got)
	}
	if got := TypeColor("spaceport"); got != defaultColor {
		t.Errorf("TypeColor(spaceport) = %s, want default", got)
	}
}

func TestTitleCase(t *testing.T) {
	tests := map[string]string{
		"monument":            "Monument",
		"archaeological_site": "Archaeological Site",
		"city-state":          "City State",
		"":                    "",
	}
	for in, want := range tests {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderMap(t *testing.T) {
	r := newTestRenderer(t)
	features := sampleFeatures(t)

	var buf bytes.Buffer
	if err := r.RenderMap(&buf, features, StyleDark); err != nil {
		t.Fatalf("RenderMap() error = %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		"dark_all",
		"leaflet.markercluster",
		"L.heatLayer",
		"Colosseum",
		"#d73027",
		"41.8719",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("map page missing %q", want)
		}
	}

	buf.Reset()
	if err := r.RenderMap(&buf, features[:1], StyleDefault); err != nil {
		t.Fatalf("RenderMap(single) error = %v", err)
	}
	if strings.Contains(buf.String(), "L.heatLayer(") {
		t.Error("single feature map should not draw a heat layer")
	}
}

func TestRenderMapEscapesNames(t *testing.T) {
	r := newTestRenderer(t)
	features := sampleFeatures(t)[:1]
	features[0].Name = "</script><script>alert(1)</script>"

	var buf bytes.Buffer
	if err := r.RenderMap(&buf, features, StyleDefault); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<script>alert(1)") {
		t.Error("feature name was not escaped")
	}
}

func TestWriteMap(t *testing.T) {
	r := newTestRenderer(t)
	path, err := r.WriteMap(sampleFeatures(t), StyleTerrain)
	if err != nil {
		t.Fatalf("WriteMap() error = %v", err)
	}
	if filepath.Base(path) != "italy_landmarks_map_terrain.html" {
		t.Errorf("path = %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "opentopomap") {
		t.Error("terrain map does not use the terrain tiles")
	}
	entries, _ := os.ReadDir(r.OutputDir())
	if len(entries) != 1 {
		t.Errorf("output dir has %d entries, want only the map", len(entries))
	}
}

func TestRenderChart(t *testing.T) {
	r := newTestRenderer(t)
	features := sampleFeatures(t)

	for _, c := range Charts {
		t.Run(string(c), func(t *testing.T) {
			data, err := r.ChartPNG(features, c)
			if err != nil {
				t.Fatalf("ChartPNG() error = %v", err)
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("not a PNG: %v", err)
			}
			if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 400 {
				t.Errorf("size = %v", b)
			}
		})
	}

	t.Run("single point", func(t *testing.T) {
		if _, err := r.ChartPNG(features[:1], ChartLocations); err != nil {
			t.Errorf("single point scatter error = %v", err)
		}
	})
	t.Run("empty", func(t *testing.T) {
		if _, err := r.ChartPNG(nil, ChartTypeBar); !errors.Is(err, geoerr.ErrDataFormat) {
			t.Errorf("empty error = %v, want data format", err)
		}
	})
}

func TestParseChart(t *testing.T) {
	if c, err := ParseChart("types_pie"); err != nil || c != ChartTypePie {
		t.Errorf("ParseChart(types_pie) = %q, %v", c, err)
	}
	if _, err := ParseChart("radar"); !errors.Is(err, geoerr.ErrValidation) {
		t.Errorf("ParseChart(radar) error = %v", err)
	}
}

func TestDensityPoints(t *testing.T) {
	tests := []struct {
		name     string
		coords   [][2]float64
		wantLen  int
		wantPeak float64
	}{
		{"one cell", [][2]float64{{12.49, 41.89}, {12.49, 41.89}}, 1, 2 / (0.1 * 0.1)},
		{"two cells", [][2]float64{{12.49, 41.89}, {12.49, 41.89}, {11.25, 43.77}}, 2, 2 / (0.1 * 0.1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			features := make([]models.Feature, len(tt.coords))
			for i, c := range tt.coords {
				features[i] = models.Feature{Centroid: orb.Point{c[0], c[1]}}
			}
			lons, lats, dens, grid, err := densityPoints(features)
			if err != nil {
				t.Fatalf("densityPoints() error = %v", err)
			}
			if len(lons) != tt.wantLen || len(lats) != tt.wantLen || len(dens) != tt.wantLen {
				t.Fatalf("got %d/%d/%d cells, want %d", len(lons), len(lats), len(dens), tt.wantLen)
			}
			if grid != 0.1 {
				t.Errorf("grid = %v, want 0.1", grid)
			}
			if math.Abs(dens[0]-tt.wantPeak) > 1e-6 {
				t.Errorf("peak density = %v, want %v", dens[0], tt.wantPeak)
			}
		})
	}
}

func TestAreaBins(t *testing.T) {
	features := []models.Feature{{AreaKm2: 0}, {AreaKm2: 5}, {AreaKm2: 10}, {AreaKm2: 10}}
	dividers, counts := areaBins(features)
	if len(dividers) != histogramBins+1 || len(counts) != histogramBins {
		t.Fatalf("got %d dividers, %d counts", len(dividers), len(counts))
	}
	if counts[0] != 1 || counts[5] != 1 || counts[9] != 2 {
		t.Errorf("counts = %v", counts)
	}

	_, same := areaBins([]models.Feature{{AreaKm2: 3}, {AreaKm2: 3}})
	if same[0] != 2 {
		t.Errorf("equal areas counts = %v", same)
	}
}

func TestRenderDashboard(t *testing.T) {
	r := newTestRenderer(t)
	features := sampleFeatures(t)
	stats := &models.Statistics{
		TotalLandmarks:   int64(len(features)),
		RecentActivity:   2,
		TypeDistribution: map[string]int64{"monument": 1},
		SpatialBounds:    models.Extent{MinLon: 9.2, MinLat: 40.7, MaxLon: 14.5, MaxLat: 46.1},
	}

	path, err := r.WriteDashboard(stats, features)
	if err != nil {
		t.Fatalf("WriteDashboard() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	html := string(data)
	if got := strings.Count(html, "data:image/png;base64,"); got != len(Charts) {
		t.Errorf("dashboard has %d charts, want %d", got, len(Charts))
	}
	if !strings.Contains(html, "Largest 3 landmarks") {
		t.Error("dashboard missing top landmarks table")
	}
	if !strings.Contains(html, "added in the last 7 days") {
		t.Error("dashboard missing statistics cards")
	}
}

func TestRenderDashboardEmpty(t *testing.T) {
	r := newTestRenderer(t)
	var buf bytes.Buffer
	if err := r.RenderDashboard(&buf, nil, nil); err != nil {
		t.Fatalf("RenderDashboard() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No landmarks loaded.") {
		t.Error("empty dashboard missing placeholder")
	}
}
