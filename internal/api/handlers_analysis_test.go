// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"net/http"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/models"
)

func TestSpatialAnalysisOnStoredLandmarks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		body  string
		check func(t *testing.T, results json.RawMessage)
	}{
		{
			name: "clustering",
			body: `{"analysis_type":"clustering","parameters":{"n_clusters":3}}`,
			check: func(t *testing.T, raw json.RawMessage) {
				var res models.ClusterResult
				mustUnmarshal(t, raw, &res)
				if len(res.Labels) != 8 {
					t.Errorf("labels = %d, want 8", len(res.Labels))
				}
				if res.NClusters != 3 {
					t.Errorf("n_clusters = %d, want 3", res.NClusters)
				}
			},
		},
		{
			name: "density",
			body: `{"analysis_type":"density","parameters":{"grid_size":1}}`,
			check: func(t *testing.T, raw json.RawMessage) {
				var res models.DensityResult
				mustUnmarshal(t, raw, &res)
				total := 0
				for _, c := range res.Cells {
					total += c.Count
				}
				if total != 8 {
					t.Errorf("cell counts sum to %d, want 8", total)
				}
			},
		},
		{
			name: "accessibility",
			body: `{"analysis_type":"accessibility"}`,
			check: func(t *testing.T, raw json.RawMessage) {
				var res models.AccessibilityResult
				mustUnmarshal(t, raw, &res)
				if len(res.Entries) != 8 {
					t.Errorf("entries = %d, want 8", len(res.Entries))
				}
				if res.TransportSpeedKmh != DefaultTransportSpeed {
					t.Errorf("speed = %v, want default %v", res.TransportSpeedKmh, DefaultTransportSpeed)
				}
			},
		},
		{
			name: "nearest",
			body: `{"analysis_type":"nearest","parameters":{"lat":43.7731,"lon":11.2558,"limit":2}}`,
			check: func(t *testing.T, raw json.RawMessage) {
				var res []models.NearestResult
				mustUnmarshal(t, raw, &res)
				if len(res) != 2 || res[0].Name != "Florence Cathedral" {
					t.Errorf("nearest = %+v", res)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, newSeededStore())

			var out struct {
				AnalysisType string          `json:"analysis_type"`
				AnalysisID   int64           `json:"analysis_id"`
				FeatureCount int             `json:"feature_count"`
				Results      json.RawMessage `json:"results"`
			}
			expectData(t, env.do(t, http.MethodPost, "/api/analysis/spatial", tt.body), http.StatusOK, &out)
			if out.AnalysisType != tt.name {
				t.Errorf("analysis_type = %q", out.AnalysisType)
			}
			if out.FeatureCount != 8 {
				t.Errorf("feature_count = %d, want 8", out.FeatureCount)
			}
			if out.AnalysisID == 0 {
				t.Error("analysis was not saved to history")
			}
			tt.check(t, out.Results)

			ev := env.nextEvent(t)
			if ev.Type != events.AnalysisCompleted {
				t.Errorf("event = %s, want %s", ev.Type, events.AnalysisCompleted)
			}
		})
	}
}

func mustUnmarshal(t *testing.T, raw json.RawMessage, dst any) {
	t.Helper()
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("unmarshal %s: %v", raw, err)
	}
}

func TestSpatialAnalysisOnPostedFeatures(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	body := `{"analysis_type":"accessibility","features":` + pointCollection(romePoints...) + `}`
	var out models.SpatialAnalysisResult
	expectData(t, env.do(t, http.MethodPost, "/api/analysis/spatial", body), http.StatusOK, &out)
	if out.FeatureCount != 3 {
		t.Errorf("feature_count = %d, want the 3 posted features", out.FeatureCount)
	}
}

func TestSpatialAnalysisErrors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unknown type", `{"analysis_type":"heatmap"}`, http.StatusBadRequest, ErrCodeValidation},
		{"unknown cluster method", `{"analysis_type":"clustering","parameters":{"method":"spectral"}}`, http.StatusBadRequest, ErrCodeValidation},
		{"nearest without point", `{"analysis_type":"nearest"}`, http.StatusBadRequest, ErrCodeValidation},
		{"negative grid", `{"analysis_type":"density","parameters":{"grid_size":-1}}`, http.StatusBadRequest, ErrCodeValidation},
		{
			"null geometry",
			`{"analysis_type":"density","features":{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null,"properties":{}}]}}`,
			http.StatusBadRequest, ErrCodeDataFormat,
		},
		{
			"more clusters than features",
			`{"analysis_type":"clustering","parameters":{"n_clusters":5},"features":` + pointCollection(romePoints...) + `}`,
			http.StatusBadRequest, ErrCodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodPost, "/api/analysis/spatial", tt.body), tt.status, tt.code)
		})
	}
	env.expectNoEvent(t)
}

func TestAnalysisHistory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	for _, body := range []string{
		`{"analysis_type":"density"}`,
		`{"analysis_type":"accessibility"}`,
		`{"analysis_type":"density","parameters":{"grid_size":0.5}}`,
	} {
		expectData(t, env.do(t, http.MethodPost, "/api/analysis/spatial", body), http.StatusOK, nil)
	}

	var all []models.AnalysisRecord
	expectData(t, env.do(t, http.MethodGet, "/api/analysis/history", ""), http.StatusOK, &all)
	if len(all) != 3 {
		t.Fatalf("history = %d records, want 3", len(all))
	}

	var density []models.AnalysisRecord
	expectData(t, env.do(t, http.MethodGet, "/api/analysis/history?analysis_type=density&limit=1", ""), http.StatusOK, &density)
	if len(density) != 1 {
		t.Fatalf("filtered history = %d records, want 1", len(density))
	}
	if got := density[0].Parameters["grid_size"]; got != 0.5 {
		t.Errorf("newest density grid_size = %v, want 0.5", got)
	}
	if len(density[0].Results) == 0 {
		t.Error("history record has no results")
	}

	expectError(t, env.do(t, http.MethodGet, "/api/analysis/history?limit=0", ""), http.StatusBadRequest, ErrCodeValidation)
}
