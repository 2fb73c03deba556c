// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/serjvanilla/go-overpass"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
)

// OverpassQuerier runs an Overpass QL query.
type OverpassQuerier interface {
	Query(q string) (overpass.Result, error)
}

func newOverpassClient(endpoint string, httpClient *http.Client) OverpassQuerier {
	if endpoint == "" {
		endpoint = DefaultConfig().OverpassEndpoint
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &client
}

// landmarkQuery selects named tourism and historic nodes in a bbox given
// as south, west, north, east.
const landmarkQuery = `[out:json][timeout:25];
(
  node["tourism"~"attraction|museum|viewpoint|artwork|gallery"]["name"](%[1]f,%[2]f,%[3]f,%[4]f);
  node["historic"]["name"](%[1]f,%[2]f,%[3]f,%[4]f);
);
out body;`

func (imp *Importer) importOverpass(ctx context.Context, bbox []float64) (*geojson.FeatureCollection, error) {
	if len(bbox) != 4 {
		return nil, geoerr.Validation("ingest.overpass", "bbox needs south, west, north, east")
	}
	south, west, north, east := bbox[0], bbox[1], bbox[2], bbox[3]
	if south >= north || west >= east {
		return nil, geoerr.Validation("ingest.overpass", "bbox is empty or inverted")
	}
	if err := imp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ingest.overpass: rate limiter: %w", err)
	}

	q := fmt.Sprintf(landmarkQuery, south, west, north, east)
	result, err := imp.overpass.Query(q)
	if err != nil {
		return nil, fmt.Errorf("ingest.overpass: %w", err)
	}

	fc := OverpassCollection(result)
	logging.Info().
		Int("nodes", len(result.Nodes)).
		Int("features", len(fc.Features)).
		Msg("Imported landmarks from Overpass")
	return fc, nil
}

// OverpassCollection converts the nodes of an Overpass result into point
// features ordered by OSM id.
func OverpassCollection(result overpass.Result) *geojson.FeatureCollection {
	ids := make([]int64, 0, len(result.Nodes))
	for id := range result.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fc := geojson.NewFeatureCollection()
	for _, id := range ids {
		node := result.Nodes[id]
		if node == nil || node.Tags["name"] == "" {
			continue
		}
		f := geojson.NewFeature(orb.Point{node.Lon, node.Lat})
		for k, v := range node.Tags {
			f.Properties[k] = v
		}
		f.Properties["osm_id"] = id
		f.Properties[PropName] = node.Tags["name"]
		f.Properties[PropDescription] = node.Tags["description"]
		typ := node.Tags["historic"]
		if typ == "" || typ == "yes" {
			typ = node.Tags["tourism"]
		}
		if typ == "" {
			typ = "landmark"
		}
		f.Properties[PropLandmarkType] = typ
		fc.Append(f)
	}
	return fc
}
