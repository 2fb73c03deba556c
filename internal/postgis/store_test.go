// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package postgis

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/config"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/models"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "disabled",
		Format: "console",
		Output: io.Discard,
	})
}

const testURLEnv = "GEOEXPLORER_TEST_POSTGRES_URL"

// setupTestStore connects to the server named by GEOEXPLORER_TEST_POSTGRES_URL
// and empties both tables. The test is skipped when the variable is unset.
func setupTestStore(t *testing.T, seed bool) *Store {
	t.Helper()
	url := os.Getenv(testURLEnv)
	if url == "" {
		t.Skipf("%s not set, skipping PostGIS integration test", testURLEnv)
	}

	ctx := context.Background()
	s, err := New(ctx, &config.DatabaseConfig{
		Driver:       config.DriverPostGIS,
		PostgresURL:  url,
		MaxOpenConns: 4,
		QueryTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if _, err := s.db.ExecContext(ctx, "TRUNCATE landmarks, analysis_results RESTART IDENTITY"); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if seed {
		if _, err := s.SeedSampleLandmarks(ctx); err != nil {
			t.Fatalf("SeedSampleLandmarks() error = %v", err)
		}
	}
	return s
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"wrapped bad conn", fmt.Errorf("query: %w", driver.ErrBadConn), true},
		{"connection failure", &pq.Error{Code: "08006"}, true},
		{"admin shutdown", &pq.Error{Code: "57P01"}, true},
		{"wrapped admin shutdown", fmt.Errorf("select: %w", &pq.Error{Code: "57P01"}), true},
		{"unique violation", &pq.Error{Code: "23505"}, false},
		{"syntax error", &pq.Error{Code: "42601"}, false},
		{"query canceled", &pq.Error{Code: "57014"}, false},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"plain", errors.New("something else"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.want {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestListQuery(t *testing.T) {
	bbox := orb.Bound{Min: orb.Point{12.4, 41.8}, Max: orb.Point{12.6, 42.0}}

	tests := []struct {
		name      string
		filter    models.LandmarkFilter
		wantWhere []string
		wantArgs  []any
	}{
		{
			name:     "no filter uses default page",
			filter:   models.LandmarkFilter{},
			wantArgs: []any{DefaultLimit, 0},
		},
		{
			name:      "type filter",
			filter:    models.LandmarkFilter{LandmarkType: "monument", Limit: 5, Offset: 10},
			wantWhere: []string{"landmark_type = ?"},
			wantArgs:  []any{"monument", 5, 10},
		},
		{
			name:      "bbox and oversized limit",
			filter:    models.LandmarkFilter{BBox: &bbox, Limit: 5000, Offset: -3},
			wantWhere: []string{"ST_Intersects(geometry, ST_MakeEnvelope(?, ?, ?, ?, 4326))"},
			wantArgs:  []any{12.4, 41.8, 12.6, 42.0, MaxLimit, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := listQuery(tt.filter)
			if len(tt.wantWhere) == 0 && strings.Contains(query, "WHERE") {
				t.Errorf("unexpected WHERE in %q", query)
			}
			for _, w := range tt.wantWhere {
				if !strings.Contains(query, w) {
					t.Errorf("query %q missing %q", query, w)
				}
			}
			if !strings.HasSuffix(query, "ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?") {
				t.Errorf("query %q has wrong ordering", query)
			}
			if fmt.Sprint(args) != fmt.Sprint(tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestEncodeGeometry(t *testing.T) {
	if _, err := encodeGeometry("test", nil); !errors.Is(err, geoerr.ErrDataFormat) {
		t.Errorf("nil geometry error = %v, want data format", err)
	}
	got, err := encodeGeometry("test", geojson.NewGeometry(orb.Point{12.4922, 41.8902}))
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"type":"Point","coordinates":[12.4922,41.8902]}` {
		t.Errorf("encodeGeometry() = %s", got)
	}
}

func TestStoreCRUD(t *testing.T) {
	s := setupTestStore(t, false)
	ctx := context.Background()

	created, err := s.CreateLandmark(ctx, &models.LandmarkInput{
		Name:         "Trevi Fountain",
		LandmarkType: "monument",
		Geometry:     geojson.NewGeometry(orb.Point{12.4833, 41.9009}),
		Properties:   map[string]any{"year_built": 1762.0},
	})
	if err != nil {
		t.Fatalf("CreateLandmark() error = %v", err)
	}

	got, err := s.GetLandmark(ctx, created.ID)
	if err != nil || got == nil {
		t.Fatalf("GetLandmark() = %v, %v", got, err)
	}
	if got.Name != "Trevi Fountain" || got.Properties["year_built"] != 1762.0 {
		t.Errorf("GetLandmark() = %+v", got)
	}
	if p, ok := got.Geom().(orb.Point); !ok || p != (orb.Point{12.4833, 41.9009}) {
		t.Errorf("geometry = %v", got.Geom())
	}

	name := "Fontana di Trevi"
	updated, err := s.UpdateLandmark(ctx, created.ID, &models.LandmarkPatch{Name: &name})
	if err != nil || updated == nil {
		t.Fatalf("UpdateLandmark() = %v, %v", updated, err)
	}
	if updated.Name != name || updated.LandmarkType != "monument" {
		t.Errorf("UpdateLandmark() = %+v", updated)
	}
	if missing, err := s.UpdateLandmark(ctx, created.ID+1000, &models.LandmarkPatch{Name: &name}); err != nil || missing != nil {
		t.Errorf("UpdateLandmark(missing) = %v, %v", missing, err)
	}

	for _, want := range []int64{1, 0} {
		n, err := s.DeleteLandmark(ctx, created.ID)
		if err != nil || n != want {
			t.Errorf("DeleteLandmark() = %d, %v, want %d", n, err, want)
		}
	}
	if gone, err := s.GetLandmark(ctx, created.ID); err != nil || gone != nil {
		t.Errorf("GetLandmark() after delete = %v, %v", gone, err)
	}
}

func TestStoreQueries(t *testing.T) {
	s := setupTestStore(t, true)
	ctx := context.Background()

	rome := orb.Bound{Min: orb.Point{12.4, 41.85}, Max: orb.Point{12.55, 41.95}}
	rows, err := s.ListLandmarks(ctx, models.LandmarkFilter{BBox: &rome})
	if err != nil {
		t.Fatalf("ListLandmarks() error = %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("Rome bbox returned %d landmarks, want 2", len(rows))
	}

	near, err := s.NearbyLandmarks(ctx, models.NearbyQuery{Point: orb.Point{12.4922, 41.8902}, RadiusKm: 5})
	if err != nil {
		t.Fatalf("NearbyLandmarks() error = %v", err)
	}
	if len(near) != 2 || near[0].Name != "Colosseum" || near[1].Name != "Vatican City" {
		t.Errorf("NearbyLandmarks() = %+v", near)
	}

	stats, err := s.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalLandmarks != 8 || len(stats.TypeDistribution) != 7 {
		t.Errorf("Statistics() = %+v", stats)
	}
	if stats.SpatialBounds.MinLon != 9.2 || stats.SpatialBounds.MaxLat != 46.1 {
		t.Errorf("SpatialBounds = %+v", stats.SpatialBounds)
	}

	if _, err := s.SaveAnalysis(ctx, "density", map[string]any{"grid_size": 0.5}, []int{1, 2}); err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	history, err := s.AnalysisHistory(ctx, "density", 0)
	if err != nil {
		t.Fatalf("AnalysisHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].Parameters["grid_size"] != 0.5 {
		t.Errorf("AnalysisHistory() = %+v", history)
	}
}
