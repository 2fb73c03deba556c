// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/models"
)

type sampleLandmark struct {
	name, description, typ, wkt string
	properties                  map[string]any
}

var sampleLandmarks = []sampleLandmark{
	{"Colosseum", "Ancient Roman amphitheater in Rome", "monument",
		"POINT(12.4922 41.8902)",
		map[string]any{"built": "70-80 AD", "capacity": "50,000 spectators"}},
	{"Leaning Tower of Pisa", "Famous bell tower in Pisa", "monument",
		"POINT(10.3966 43.7230)",
		map[string]any{"height": "56.67m", "tilt": "3.97 degrees"}},
	{"Venice Grand Canal", "Main waterway in Venice", "waterway",
		"LINESTRING(12.3267 45.4408, 12.3350 45.4300, 12.3450 45.4200)",
		map[string]any{"length": "3.8 km", "width": "30-70m"}},
	{"Vatican City", "Independent city-state within Rome", "city-state",
		"POLYGON((12.4459 41.9022, 12.4580 41.9022, 12.4580 41.9094, 12.4459 41.9094, 12.4459 41.9022))",
		map[string]any{"area": "0.17 sq mi", "population": "825"}},
	{"Florence Cathedral", "Cathedral of Santa Maria del Fiore", "cathedral",
		"POINT(11.2558 43.7731)",
		map[string]any{"height": "114m", "dome": "Brunelleschi's Dome"}},
	{"Amalfi Coast", "Stunning coastline in southern Italy", "coastline",
		"LINESTRING(14.6270 40.6340, 14.7200 40.6500, 14.8000 40.6800, 14.9000 40.7200)",
		map[string]any{"length": "50 km", "region": "Campania"}},
	{"Lake Como", "Beautiful lake in northern Italy", "lake",
		"POLYGON((9.2000 46.0000, 9.3000 46.0000, 9.3000 46.1000, 9.2000 46.1000, 9.2000 46.0000))",
		map[string]any{"area": "146 sq km", "depth": "425m"}},
	{"Pompeii", "Ancient Roman city destroyed by Vesuvius", "archaeological_site",
		"POINT(14.4848 40.7489)",
		map[string]any{"destroyed": "79 AD", "area": "66 hectares"}},
}

// SampleLandmarks returns the eight Italian landmarks seeded into an empty
// store. Every call returns fresh values.
func SampleLandmarks() []models.LandmarkInput {
	out := make([]models.LandmarkInput, 0, len(sampleLandmarks))
	for _, s := range sampleLandmarks {
		g, err := geo.ParseWKT(s.wkt)
		if err != nil {
			panic("ingest: bad sample geometry for " + s.name + ": " + err.Error())
		}
		props := make(map[string]any, len(s.properties))
		for k, v := range s.properties {
			props[k] = v
		}
		out = append(out, models.LandmarkInput{
			Name:         s.name,
			Description:  s.description,
			LandmarkType: s.typ,
			Geometry:     geojson.NewGeometry(g),
			Properties:   props,
		})
	}
	return out
}
