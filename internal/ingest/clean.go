// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/text/unicode/norm"

	"github.com/tomtom215/geoexplorer/internal/geo"
)

const unknown = "Unknown"

// CleanReport counts what Clean changed.
type CleanReport struct {
	Input             int `json:"input_features"`
	Output            int `json:"output_features"`
	DroppedNull       int `json:"dropped_null_geometry"`
	DroppedInvalid    int `json:"dropped_invalid_geometry"`
	RepairedRings     int `json:"repaired_rings"`
	DroppedDuplicates int `json:"dropped_duplicates"`
	FilledNames       int `json:"filled_names"`
	FilledTypes       int `json:"filled_types"`
}

// Clean returns a new collection with null and unusable geometries dropped,
// open polygon rings closed, duplicates removed, text properties
// NFC-normalized and trimmed, and missing name, type and description set
// to "Unknown". Two features with the same geometry are duplicates.
func Clean(fc *geojson.FeatureCollection) (*geojson.FeatureCollection, CleanReport) {
	out := geojson.NewFeatureCollection()
	rep := CleanReport{Input: len(fc.Features)}
	seen := make(map[string]struct{}, len(fc.Features))

	for _, src := range fc.Features {
		if src == nil || src.Geometry == nil {
			rep.DroppedNull++
			continue
		}

		g := orb.Clone(src.Geometry)
		if n := closeRings(g); n > 0 {
			rep.RepairedRings += n
		}
		if geo.Validate(g) != nil {
			rep.DroppedInvalid++
			continue
		}

		f := geojson.NewFeature(g)
		f.ID = src.ID
		for k, v := range src.Properties {
			if s, ok := v.(string); ok {
				v = normalizeText(s)
			}
			f.Properties[k] = v
		}
		if stringProp(f.Properties, PropName) == "" {
			f.Properties[PropName] = unknown
			rep.FilledNames++
		}
		if stringProp(f.Properties, PropLandmarkType) == "" && stringProp(f.Properties, PropType) == "" {
			f.Properties[PropLandmarkType] = unknown
			rep.FilledTypes++
		}
		if stringProp(f.Properties, PropDescription) == "" {
			f.Properties[PropDescription] = unknown
		}

		key := geo.ToWKT(g)
		if _, dup := seen[key]; dup {
			rep.DroppedDuplicates++
			continue
		}
		seen[key] = struct{}{}
		out.Append(f)
	}

	rep.Output = len(out.Features)
	return out, rep
}

func normalizeText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// closeRings appends the first vertex to every open ring with at least three
// points and reports how many it closed. g is modified in place.
func closeRings(g orb.Geometry) int {
	fixed := 0
	fixPoly := func(p orb.Polygon) {
		for i, r := range p {
			if len(r) >= 3 && !r.Closed() {
				p[i] = append(r, r[0])
				fixed++
			}
		}
	}
	switch v := g.(type) {
	case orb.Polygon:
		fixPoly(v)
	case orb.MultiPolygon:
		for _, p := range v {
			fixPoly(p)
		}
	case orb.Collection:
		for _, c := range v {
			fixed += closeRings(c)
		}
	}
	return fixed
}
