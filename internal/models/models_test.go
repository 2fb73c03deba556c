// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package models

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// testJSONRoundTrip marshals input, unmarshals it back and calls verify.
func testJSONRoundTrip[T any](t *testing.T, name string, input T, verify func(t *testing.T, decoded T)) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		data, err := json.Marshal(input)
		if err != nil {
			t.Fatalf("Failed to marshal %s: %v", name, err)
		}

		var decoded T
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Failed to unmarshal %s: %v", name, err)
		}

		if verify != nil {
			verify(t, decoded)
		}
	})
}

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestJSONMarshaling(t *testing.T) {
	t.Parallel()

	testJSONRoundTrip(t, "Landmark", Landmark{
		ID:           7,
		Name:         "Colosseum",
		LandmarkType: "monument",
		Geometry:     geojson.NewGeometry(orb.Point{12.4922, 41.8902}),
		Properties:   map[string]any{"year_built": 80.0},
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}, func(t *testing.T, decoded Landmark) {
		p, ok := decoded.Geom().(orb.Point)
		if !ok || p != (orb.Point{12.4922, 41.8902}) {
			t.Errorf("geometry = %v", decoded.Geom())
		}
		if decoded.Properties["year_built"] != 80.0 {
			t.Errorf("properties = %v", decoded.Properties)
		}
		if !decoded.CreatedAt.Equal(testTime) {
			t.Errorf("created_at = %v", decoded.CreatedAt)
		}
	})

	testJSONRoundTrip(t, "AnalysisRecord", AnalysisRecord{
		ID:           3,
		AnalysisType: "density",
		Parameters:   map[string]any{"grid_size": 0.5},
		Results:      RawJSON(`{"total_cells":4}`),
		CreatedAt:    testTime,
	}, func(t *testing.T, decoded AnalysisRecord) {
		if string(decoded.Results) != `{"total_cells":4}` {
			t.Errorf("results = %s", decoded.Results)
		}
	})
}

func TestRawJSONEmptyMarshalsNull(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(AnalysisRecord{AnalysisType: "clustering"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"results":null`) {
		t.Errorf("marshal = %s, want null results", data)
	}
}

func TestLandmarkPatch(t *testing.T) {
	t.Parallel()

	name := "Fontana di Trevi"
	empty := ""
	tests := []struct {
		name      string
		patch     LandmarkPatch
		wantEmpty bool
		wantName  string
		wantDesc  string
	}{
		{"empty patch", LandmarkPatch{}, true, "Trevi Fountain", "Baroque fountain"},
		{"rename", LandmarkPatch{Name: &name}, false, name, "Baroque fountain"},
		{"clear description", LandmarkPatch{Description: &empty}, false, "Trevi Fountain", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Landmark{Name: "Trevi Fountain", Description: "Baroque fountain", LandmarkType: "monument"}
			if got := tt.patch.Empty(); got != tt.wantEmpty {
				t.Errorf("Empty() = %v, want %v", got, tt.wantEmpty)
			}
			tt.patch.Apply(&l)
			if l.Name != tt.wantName || l.Description != tt.wantDesc || l.LandmarkType != "monument" {
				t.Errorf("Apply() = %+v", l)
			}
		})
	}
}

func TestPatchOmitsUnsetFields(t *testing.T) {
	t.Parallel()

	var p LandmarkPatch
	if err := json.Unmarshal([]byte(`{"landmark_type":"lake"}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Name != nil || p.LandmarkType == nil || *p.LandmarkType != "lake" {
		t.Errorf("decoded patch = %+v", p)
	}
}

func TestFeatureDisplayName(t *testing.T) {
	t.Parallel()

	named := Feature{Name: "Lake Como"}
	if got := named.DisplayName(4); got != "Lake Como" {
		t.Errorf("DisplayName() = %q", got)
	}
	var unnamed Feature
	if got := unnamed.DisplayName(4); got != "Landmark 4" {
		t.Errorf("DisplayName() = %q, want Landmark 4", got)
	}
}

func TestRealtimeSummaryFlattens(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(RealtimeSummary{
		CollectionSummary: CollectionSummary{FeatureCount: 2, GeometryTypes: map[string]int{"Point": 2}},
		Timestamp:         testTime,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"feature_count":2`, `"geometry_types":{"Point":2}`, `"timestamp":"2026-03-01T12:00:00Z"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("marshal = %s, missing %s", data, want)
		}
	}
}
