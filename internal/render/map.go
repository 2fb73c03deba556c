// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package render

import (
	"fmt"
	"html/template"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// Style selects the base layer of a map.
type Style string

// Map styles.
const (
	StyleDefault   Style = "default"
	StyleDark      Style = "dark"
	StyleSatellite Style = "satellite"
	StyleTerrain   Style = "terrain"
)

type tileLayer struct {
	URL         string
	Attribution string
}

var styleTiles = map[Style]tileLayer{
	StyleDefault: {
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
	},
	StyleDark: {
		URL:         "https://{s}.basemaps.cartocdn.com/dark_all/{z}/{x}/{y}{r}.png",
		Attribution: "&copy; OpenStreetMap contributors &copy; CARTO",
	},
	StyleSatellite: {
		URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
		Attribution: "Tiles &copy; Esri",
	},
	StyleTerrain: {
		URL:         "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenTopoMap (CC-BY-SA)",
	},
}

// ParseStyle validates a style name. Empty means default.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleDefault, nil
	}
	st := Style(s)
	if _, ok := styleTiles[st]; !ok {
		return "", geoerr.Validation("render.parse_style", "unknown map style %q (default, dark, satellite, terrain)", s)
	}
	return st, nil
}

// MapFileName is the artifact name for a map of the given style.
func MapFileName(style Style) string {
	return fmt.Sprintf("italy_landmarks_map_%s.html", style)
}

// mapMarker is the per-feature payload handed to the page script.
type mapMarker struct {
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Description string         `json:"description"`
	Lat         float64        `json:"lat"`
	Lon         float64        `json:"lon"`
	Color       string         `json:"color"`
	Extra       map[string]any `json:"extra,omitempty"`
}

type mapPage struct {
	Title       string
	Tiles       tileLayer
	CenterLat   float64
	CenterLon   float64
	Zoom        int
	Markers     template.JS
	Shapes      template.JS
	ShowHeatmap bool
	Legend      []legendEntry
}

type legendEntry struct {
	Type  string
	Color string
	Count int
}

// RenderMap writes a self-contained Leaflet page with one coloured marker
// per feature centroid, marker clustering, and a heat layer when there is
// more than one feature.
func (r *Renderer) RenderMap(w io.Writer, features []models.Feature, style Style) error {
	const op = "render.map"
	tiles, ok := styleTiles[style]
	if !ok {
		return geoerr.Validation(op, "unknown map style %q", style)
	}
	if r.cfg.TileURL != "" && style == StyleDefault {
		tiles = tileLayer{URL: r.cfg.TileURL, Attribution: r.cfg.Attribution}
	}

	markers := make([]mapMarker, 0, len(features))
	shapes := geojson.NewFeatureCollection()
	types := make([]string, 0, len(features))
	for i := range features {
		f := &features[i]
		markers = append(markers, mapMarker{
			Name:        f.DisplayName(i),
			Type:        f.Type,
			Description: f.Description,
			Lat:         f.Lat(),
			Lon:         f.Lon(),
			Color:       TypeColor(f.Type),
			Extra:       popupExtras(f.Properties),
		})
		types = append(types, f.Type)
		if f.Geometry != nil && f.Geometry.GeoJSONType() != "Point" {
			gf := geojson.NewFeature(f.Geometry)
			gf.Properties["color"] = TypeColor(f.Type)
			shapes.Append(gf)
		}
	}
	markerJSON, err := json.Marshal(markers)
	if err != nil {
		return fmt.Errorf("failed to encode markers: %w", err)
	}
	shapeJSON, err := json.Marshal(shapes)
	if err != nil {
		return fmt.Errorf("failed to encode shapes: %w", err)
	}

	var legend []legendEntry
	for _, tc := range countTypes(types) {
		legend = append(legend, legendEntry{Type: tc.Type, Color: TypeColor(tc.Type), Count: tc.Count})
	}

	page := mapPage{
		Title:       "Italian Landmarks",
		Tiles:       tiles,
		CenterLat:   r.cfg.CenterLat,
		CenterLon:   r.cfg.CenterLon,
		Zoom:        r.cfg.Zoom,
		Markers:     template.JS(markerJSON), //nolint:gosec // JSON encoded above
		Shapes:      template.JS(shapeJSON),  //nolint:gosec // JSON encoded above
		ShowHeatmap: len(features) > 1,
		Legend:      legend,
	}
	if err := r.templates.ExecuteTemplate(w, "map.html.tmpl", page); err != nil {
		return fmt.Errorf("failed to render map: %w", err)
	}
	return nil
}

// WriteMap renders the map into the output directory and returns its path.
func (r *Renderer) WriteMap(features []models.Feature, style Style) (string, error) {
	return r.writeArtifact(MapFileName(style), func(f *os.File) error {
		return r.RenderMap(f, features, style)
	})
}

// popupExtras keeps the scalar properties shown in a marker popup.
func popupExtras(props map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range props {
		switch k {
		case "name", "description", "type", "landmark_type", "id":
			continue
		}
		switch v.(type) {
		case string, float64, int, int64, bool:
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
