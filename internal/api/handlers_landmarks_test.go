// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/models"
)

func TestListLandmarks(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantMore  bool
	}{
		{"all", "", 8, false},
		{"by type", "?landmark_type=monument", 2, false},
		{"bbox around Rome", "?bbox=12.4,41.8,12.6,42.0", 2, false},
		{"first page", "?limit=3", 3, true},
		{"past the end", "?offset=100", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rows []models.Landmark
			resp := expectData(t, env.do(t, http.MethodGet, "/api/landmarks"+tt.query, ""), http.StatusOK, &rows)
			if len(rows) != tt.wantCount {
				t.Errorf("got %d landmarks, want %d", len(rows), tt.wantCount)
			}
			if resp.Meta == nil || resp.Meta.Pagination == nil {
				t.Fatal("missing pagination meta")
			}
			if resp.Meta.Pagination.HasMore != tt.wantMore {
				t.Errorf("has_more = %v, want %v", resp.Meta.Pagination.HasMore, tt.wantMore)
			}
		})
	}
}

func TestListLandmarksRejectsBadParams(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	for _, query := range []string{
		"?bbox=1,2,3",
		"?bbox=10,40,5,45",
		"?limit=abc",
		"?limit=0",
		"?limit=5000",
		"?offset=-1",
	} {
		t.Run(query, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodGet, "/api/landmarks"+query, ""), http.StatusBadRequest, ErrCodeValidation)
		})
	}
}

func TestGetLandmark(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	var l models.Landmark
	expectData(t, env.do(t, http.MethodGet, "/api/landmarks/1", ""), http.StatusOK, &l)
	if l.Name != "Colosseum" || l.LandmarkType != "monument" {
		t.Errorf("got %q (%s), want Colosseum (monument)", l.Name, l.LandmarkType)
	}
	if l.Geometry == nil {
		t.Error("geometry missing")
	}

	expectError(t, env.do(t, http.MethodGet, "/api/landmarks/999", ""), http.StatusNotFound, ErrCodeNotFound)
	expectError(t, env.do(t, http.MethodGet, "/api/landmarks/abc", ""), http.StatusBadRequest, ErrCodeValidation)
	expectError(t, env.do(t, http.MethodGet, "/api/landmarks/0", ""), http.StatusBadRequest, ErrCodeValidation)
}

func TestCreateLandmark(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newFakeStore())

	body := `{"name":"Duomo di Milano","landmark_type":"cathedral",
		"geometry":{"type":"Point","coordinates":[9.1919,45.4642]},
		"properties":{"style":"gothic"}}`
	var l models.Landmark
	expectData(t, env.do(t, http.MethodPost, "/api/landmarks", body), http.StatusCreated, &l)
	if l.ID == 0 || l.Name != "Duomo di Milano" {
		t.Errorf("created = %+v", l)
	}
	if l.Properties["style"] != "gothic" {
		t.Errorf("properties = %v", l.Properties)
	}

	ev := env.nextEvent(t)
	if ev.Type != events.LandmarkCreated {
		t.Errorf("event = %s, want %s", ev.Type, events.LandmarkCreated)
	}
}

func TestCreateLandmarkRejectsInvalidBodies(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newFakeStore())

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed JSON", `{"name":`},
		{"missing name", `{"landmark_type":"x","geometry":{"type":"Point","coordinates":[12,42]}}`},
		{"missing geometry", `{"name":"a","landmark_type":"x"}`},
		{"latitude out of range", `{"name":"a","landmark_type":"x","geometry":{"type":"Point","coordinates":[12,95]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodPost, "/api/landmarks", tt.body), http.StatusBadRequest, ErrCodeValidation)
		})
	}
	env.expectNoEvent(t)
}

func TestCreateLandmarkBodyTooLarge(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newFakeStore(), withMaxBody(64))

	body := `{"name":"` + strings.Repeat("x", 200) + `","landmark_type":"x","geometry":{"type":"Point","coordinates":[12,42]}}`
	expectError(t, env.do(t, http.MethodPost, "/api/landmarks", body), http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge)
}

func TestUpdateLandmark(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	var l models.Landmark
	expectData(t, env.do(t, http.MethodPut, "/api/landmarks/2", `{"name":"Torre Pendente"}`), http.StatusOK, &l)
	if l.Name != "Torre Pendente" {
		t.Errorf("name = %q", l.Name)
	}
	if l.LandmarkType != "monument" {
		t.Errorf("landmark_type changed to %q", l.LandmarkType)
	}
	if ev := env.nextEvent(t); ev.Type != events.LandmarkUpdated {
		t.Errorf("event = %s", ev.Type)
	}

	expectError(t, env.do(t, http.MethodPut, "/api/landmarks/2", `{}`), http.StatusBadRequest, ErrCodeValidation)
	expectError(t, env.do(t, http.MethodPut, "/api/landmarks/999", `{"name":"x"}`), http.StatusNotFound, ErrCodeNotFound)
	env.expectNoEvent(t)
}

func TestDeleteLandmark(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	var out struct {
		ID           int64 `json:"id"`
		RowsAffected int64 `json:"rows_affected"`
	}
	expectData(t, env.do(t, http.MethodDelete, "/api/landmarks/1", ""), http.StatusOK, &out)
	if out.ID != 1 || out.RowsAffected != 1 {
		t.Errorf("delete = %+v", out)
	}
	if ev := env.nextEvent(t); ev.Type != events.LandmarkDeleted {
		t.Errorf("event = %s", ev.Type)
	}

	expectData(t, env.do(t, http.MethodDelete, "/api/landmarks/1", ""), http.StatusOK, &out)
	if out.RowsAffected != 0 {
		t.Errorf("second delete rows_affected = %d, want 0", out.RowsAffected)
	}
	env.expectNoEvent(t)

	expectError(t, env.do(t, http.MethodGet, "/api/landmarks/1", ""), http.StatusNotFound, ErrCodeNotFound)
}

func TestNearbyLandmarks(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	t.Run("nearest first", func(t *testing.T) {
		var got []models.NearestResult
		expectData(t, env.do(t, http.MethodGet, "/api/landmarks/nearby?lat=41.8902&lon=12.4922&limit=3", ""), http.StatusOK, &got)
		if len(got) != 3 {
			t.Fatalf("got %d results, want 3", len(got))
		}
		if got[0].Name != "Colosseum" {
			t.Errorf("nearest = %q, want Colosseum", got[0].Name)
		}
		for i := 1; i < len(got); i++ {
			if got[i].DistanceKm < got[i-1].DistanceKm {
				t.Errorf("results not ordered by distance: %v", got)
			}
		}
	})

	t.Run("radius", func(t *testing.T) {
		var got []models.NearestResult
		expectData(t, env.do(t, http.MethodGet, "/api/landmarks/nearby?lat=41.8902&lon=12.4922&radius_km=10", ""), http.StatusOK, &got)
		if len(got) != 2 {
			t.Errorf("got %d results within 10 km of the Colosseum, want 2", len(got))
		}
		for _, r := range got {
			if r.DistanceKm > 10 {
				t.Errorf("%s is %.1f km away", r.Name, r.DistanceKm)
			}
		}
	})

	for _, query := range []string{
		"?lon=12.49",
		"?lat=41.89",
		"?lat=100&lon=12",
		"?lat=41&lon=12&radius_km=-1",
		"?lat=41&lon=12&limit=0",
		"?lat=NaN&lon=12",
	} {
		t.Run("rejects "+query, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodGet, "/api/landmarks/nearby"+query, ""), http.StatusBadRequest, ErrCodeValidation)
		})
	}
}

func TestStatisticsCachedUntilWrite(t *testing.T) {
	t.Parallel()
	store := newSeededStore()
	env := newTestEnv(t, store)

	var stats models.Statistics
	expectData(t, env.do(t, http.MethodGet, "/api/statistics", ""), http.StatusOK, &stats)
	expectData(t, env.do(t, http.MethodGet, "/api/statistics", ""), http.StatusOK, &stats)
	if n := store.statisticsLoads(); n != 1 {
		t.Errorf("store loads = %d after two reads, want 1", n)
	}
	if stats.TotalLandmarks != 8 || stats.TypeDistribution["monument"] != 2 {
		t.Errorf("stats = %+v", stats)
	}

	body := `{"name":"Mole Antonelliana","landmark_type":"monument","geometry":{"type":"Point","coordinates":[7.6932,45.069]}}`
	expectData(t, env.do(t, http.MethodPost, "/api/landmarks", body), http.StatusCreated, nil)

	expectData(t, env.do(t, http.MethodGet, "/api/statistics", ""), http.StatusOK, &stats)
	if n := store.statisticsLoads(); n != 2 {
		t.Errorf("store loads = %d after a write, want 2", n)
	}
	if stats.TotalLandmarks != 9 || stats.TypeDistribution["monument"] != 3 {
		t.Errorf("stats after write = %+v", stats)
	}
}

func TestPersistenceErrorsAreNotLeaked(t *testing.T) {
	t.Parallel()
	store := newSeededStore()
	store.setDown(true)
	env := newTestEnv(t, store)

	apiErr := expectError(t, env.do(t, http.MethodGet, "/api/landmarks", ""), http.StatusServiceUnavailable, ErrCodePersistence)
	if strings.Contains(apiErr.Message, errStoreDown.Error()) {
		t.Errorf("message leaks driver error: %q", apiErr.Message)
	}
	if apiErr.RequestID == "" {
		t.Error("error response has no request_id")
	}
}
