// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package render

import (
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/tomtom215/geoexplorer/internal/config"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Renderer produces map, dashboard and chart artifacts.
type Renderer struct {
	cfg       config.RenderConfig
	outputDir string
	templates *template.Template
}

// New parses the embedded templates. Artifacts written to disk go to outputDir.
func New(cfg config.RenderConfig, outputDir string) (*Renderer, error) {
	if cfg.ChartWidth <= 0 {
		cfg.ChartWidth = 800
	}
	if cfg.ChartHeight <= 0 {
		cfg.ChartHeight = 500
	}
	if cfg.Zoom <= 0 {
		cfg.Zoom = 6
	}
	if cfg.DashboardTop <= 0 {
		cfg.DashboardTop = 10
	}
	tmpl, err := template.New("render").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{cfg: cfg, outputDir: outputDir, templates: tmpl}, nil
}

// OutputDir returns where artifacts are written.
func (r *Renderer) OutputDir() string {
	return r.outputDir
}

// writeArtifact creates name in the output directory through fn.
func (r *Renderer) writeArtifact(name string, fn func(f *os.File) error) (path string, err error) {
	if err := os.MkdirAll(r.outputDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	path = filepath.Join(r.outputDir, name)
	tmp, err := os.CreateTemp(r.outputDir, "temp_*_"+name)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = fn(tmp); err != nil {
		return "", err
	}
	if err = tmp.Close(); err != nil {
		return "", err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to publish %s: %w", name, err)
	}
	return path, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"formatFloat": func(f float64, precision int) string {
			return fmt.Sprintf("%.*f", precision, f)
		},
		"titleCase": titleCase,
		"truncate": func(s string, maxLen int) string {
			runes := []rune(s)
			if len(runes) <= maxLen {
				return s
			}
			return string(runes[:maxLen-3]) + "..."
		},
		"typeColor": TypeColor,
	}
}

// titleCase turns "natural_landmark" into "Natural Landmark".
func titleCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' || unicode.IsSpace(r) })
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// typeColors keys marker colours by landmark type.
var typeColors = map[string]string{
	"monument":            "#d73027",
	"cathedral":           "#4575b4",
	"waterway":            "#74add1",
	"city-state":          "#1a9850",
	"coastline":           "#fdae61",
	"lake":                "#313695",
	"archaeological_site": "#762a83",
	"natural_landmark":    "#66bd63",
}

const defaultColor = "#808080"

// TypeColor returns the marker colour for a landmark type.
func TypeColor(landmarkType string) string {
	if c, ok := typeColors[landmarkType]; ok {
		return c
	}
	return defaultColor
}

// typeCount is one row of a type distribution.
type typeCount struct {
	Type  string
	Count int
}

// countTypes returns counts sorted by count desc, then type.
func countTypes(types []string) []typeCount {
	m := map[string]int{}
	for _, t := range types {
		if t == "" {
			t = "unknown"
		}
		m[t]++
	}
	out := make([]typeCount, 0, len(m))
	for t, c := range m {
		out = append(out, typeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}
