// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package render

import (
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"os"
	"sort"
	"time"

	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// DashboardFileName is the artifact name of the dashboard.
const DashboardFileName = "italy_landmarks_dashboard.html"

type dashboardChart struct {
	Title string
	Src   template.URL
}

type dashboardRow struct {
	Name    string
	Type    string
	Lat     float64
	Lon     float64
	AreaKm2 float64
}

type dashboardPage struct {
	GeneratedAt   time.Time
	Stats         *models.Statistics
	FeatureCount  int
	TotalAreaKm2  float64
	Types         []legendEntry
	Charts        []dashboardChart
	TopLandmarks  []dashboardRow
	TopN          int
	RecentWindowD int
}

var chartTitles = map[Chart]string{
	ChartTypeBar:       "Landmark types",
	ChartTypePie:       "Type share",
	ChartLocations:     "Locations",
	ChartAreaHistogram: "Area distribution",
	ChartDensity:       "Density heatmap",
}

// RenderDashboard writes an HTML summary page: headline statistics, the
// type breakdown, every chart inlined as PNG data URIs and the largest
// landmarks by area. stats may be nil.
func (r *Renderer) RenderDashboard(w io.Writer, stats *models.Statistics, features []models.Feature) error {
	page := dashboardPage{
		GeneratedAt:   time.Now().UTC(),
		Stats:         stats,
		FeatureCount:  len(features),
		TopN:          r.cfg.DashboardTop,
		RecentWindowD: 7,
	}
	for _, tc := range countTypes(featureTypes(features)) {
		page.Types = append(page.Types, legendEntry{Type: tc.Type, Color: TypeColor(tc.Type), Count: tc.Count})
	}

	rows := make([]dashboardRow, len(features))
	for i := range features {
		f := &features[i]
		page.TotalAreaKm2 += f.AreaKm2
		rows[i] = dashboardRow{Name: f.DisplayName(i), Type: f.Type, Lat: f.Lat(), Lon: f.Lon(), AreaKm2: f.AreaKm2}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AreaKm2 > rows[j].AreaKm2 })
	if len(rows) > page.TopN {
		rows = rows[:page.TopN]
	}
	page.TopLandmarks = rows

	if len(features) > 0 {
		for _, c := range Charts {
			png, err := r.ChartPNG(features, c)
			if err != nil {
				logging.Warn().Err(err).Str("chart", string(c)).Msg("Skipping dashboard chart")
				continue
			}
			page.Charts = append(page.Charts, dashboardChart{
				Title: chartTitles[c],
				Src:   template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png)), //nolint:gosec // generated PNG
			})
		}
	}

	if err := r.templates.ExecuteTemplate(w, "dashboard.html.tmpl", page); err != nil {
		return fmt.Errorf("failed to render dashboard: %w", err)
	}
	return nil
}

// WriteDashboard renders the dashboard into the output directory.
func (r *Renderer) WriteDashboard(stats *models.Statistics, features []models.Feature) (string, error) {
	return r.writeArtifact(DashboardFileName, func(f *os.File) error {
		return r.RenderDashboard(f, stats, features)
	})
}
