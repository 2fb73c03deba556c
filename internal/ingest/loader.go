// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// Property keys lifted out of the property bag into Feature fields.
const (
	PropID           = "id"
	PropName         = "name"
	PropDescription  = "description"
	PropType         = "type"
	PropLandmarkType = "landmark_type"
)

// Load turns a feature collection into the analysis table. Every feature
// must carry a valid geometry; the first bad one fails the whole load with
// a data format error naming its index.
func Load(fc *geojson.FeatureCollection) ([]models.Feature, error) {
	if fc == nil {
		return nil, geoerr.DataFormat("ingest.load", "feature collection is missing")
	}

	out := make([]models.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		if f == nil {
			return nil, geoerr.DataFormat("ingest.load", "feature %d is null", i)
		}
		if err := geo.Validate(f.Geometry); err != nil {
			return nil, geoerr.DataFormat("ingest.load", "feature %d: %v", i, err)
		}
		out = append(out, newFeature(f, i))
	}
	return out, nil
}

func newFeature(f *geojson.Feature, index int) models.Feature {
	props := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		props[k] = v
	}

	id := idString(f.ID)
	if id == "" {
		id = idString(props[PropID])
	}
	if id == "" {
		id = strconv.Itoa(index)
	}

	typ := stringProp(props, PropType)
	if typ == "" {
		typ = stringProp(props, PropLandmarkType)
	}

	m := geo.Derive(f.Geometry)
	return models.Feature{
		ID:          id,
		Name:        stringProp(props, PropName),
		Description: stringProp(props, PropDescription),
		Type:        typ,
		Geometry:    f.Geometry,
		Properties:  props,
		Centroid:    m.Centroid,
		AreaKm2:     m.AreaKm2,
		PerimeterKm: m.PerimeterKm,
		Bound:       m.Bound,
	}
}

// FromLandmarks builds the analysis table from stored rows. Rows without a
// usable geometry are a data format error, same as for uploaded data.
func FromLandmarks(rows []models.Landmark) ([]models.Feature, error) {
	fc := geojson.NewFeatureCollection()
	for i := range rows {
		fc.Append(LandmarkFeature(&rows[i]))
	}
	return Load(fc)
}

// LandmarkFeature converts a stored landmark to a GeoJSON feature with the
// landmark columns merged into its properties.
func LandmarkFeature(l *models.Landmark) *geojson.Feature {
	f := geojson.NewFeature(l.Geom())
	f.ID = l.ID
	for k, v := range l.Properties {
		f.Properties[k] = v
	}
	f.Properties[PropID] = l.ID
	f.Properties[PropName] = l.Name
	f.Properties[PropDescription] = l.Description
	f.Properties[PropLandmarkType] = l.LandmarkType
	if !l.CreatedAt.IsZero() {
		f.Properties["created_at"] = l.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return f
}

// LandmarksCollection wraps stored landmarks in a feature collection.
func LandmarksCollection(rows []models.Landmark) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i := range rows {
		fc.Append(LandmarkFeature(&rows[i]))
	}
	return fc
}

// ToLandmarkInput maps an imported feature onto a create request. Missing
// names and types fall back to "Unknown"/"unknown".
func ToLandmarkInput(f *geojson.Feature) models.LandmarkInput {
	props := make(map[string]any, len(f.Properties))
	for k, v := range f.Properties {
		switch k {
		case PropID, PropName, PropDescription, PropType, PropLandmarkType, "created_at", "updated_at":
			continue
		}
		props[k] = v
	}

	name := stringProp(f.Properties, PropName)
	if name == "" {
		name = unknown
	}
	typ := stringProp(f.Properties, PropLandmarkType)
	if typ == "" {
		typ = stringProp(f.Properties, PropType)
	}
	if typ == "" {
		typ = "unknown"
	}
	return models.LandmarkInput{
		Name:         name,
		Description:  stringProp(f.Properties, PropDescription),
		LandmarkType: typ,
		Geometry:     geojson.NewGeometry(f.Geometry),
		Properties:   props,
	}
}

// Summarize reports counts, bounds and total size of a table.
func Summarize(features []models.Feature) models.CollectionSummary {
	s := models.CollectionSummary{
		FeatureCount:  len(features),
		GeometryTypes: make(map[string]int),
	}
	for i := range features {
		f := &features[i]
		s.GeometryTypes[geo.TypeName(f.Geometry)]++
		s.TotalAreaKm2 += f.AreaKm2
		if geo.Family(f.Geometry) == "line" {
			s.TotalLengthKm += f.PerimeterKm
		}
		if s.Bounds == nil {
			s.Bounds = &models.Extent{MinLon: f.Bound.Min[0], MinLat: f.Bound.Min[1], MaxLon: f.Bound.Max[0], MaxLat: f.Bound.Max[1]}
			continue
		}
		s.Bounds.MinLon = min(s.Bounds.MinLon, f.Bound.Min[0])
		s.Bounds.MinLat = min(s.Bounds.MinLat, f.Bound.Min[1])
		s.Bounds.MaxLon = max(s.Bounds.MaxLon, f.Bound.Max[0])
		s.Bounds.MaxLat = max(s.Bounds.MaxLat, f.Bound.Max[1])
	}
	return s
}

func stringProp(props map[string]any, key string) string {
	v, ok := props[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(id, 10)
	case int:
		return strconv.Itoa(id)
	default:
		return fmt.Sprint(id)
	}
}

// propertyKeys returns the sorted union of property keys, minus skip.
func propertyKeys(fc *geojson.FeatureCollection, skip ...string) []string {
	seen := make(map[string]struct{})
	for _, s := range skip {
		seen[s] = struct{}{}
	}
	var keys []string
	for _, f := range fc.Features {
		for k := range f.Properties {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
