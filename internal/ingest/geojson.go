// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
)

// ReadGeoJSON accepts a FeatureCollection, a single Feature or a bare
// geometry object. Single objects are wrapped into a collection.
func ReadGeoJSON(r io.Reader) (*geojson.FeatureCollection, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, geoerr.DataFormat("ingest.geojson", "read: %v", err)
	}
	return DecodeGeoJSON(data)
}

// DecodeGeoJSON is ReadGeoJSON for an in-memory document.
func DecodeGeoJSON(data []byte) (*geojson.FeatureCollection, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, geoerr.DataFormat("ingest.geojson", "invalid JSON: %v", err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, geoerr.DataFormat("ingest.geojson", "%v", err)
		}
		return fc, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, geoerr.DataFormat("ingest.geojson", "%v", err)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(f)
		return fc, nil
	case "Point", "MultiPoint", "LineString", "MultiLineString", "Polygon", "MultiPolygon", "GeometryCollection":
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, geoerr.DataFormat("ingest.geojson", "%v", err)
		}
		fc := geojson.NewFeatureCollection()
		fc.Append(geojson.NewFeature(g.Geometry()))
		return fc, nil
	case "":
		return nil, geoerr.DataFormat("ingest.geojson", "document has no type member")
	}
	return nil, geoerr.DataFormat("ingest.geojson", "unsupported GeoJSON type %q", head.Type)
}

// WriteGeoJSON encodes fc as a FeatureCollection.
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
