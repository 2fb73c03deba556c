// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package database

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	"github.com/tomtom215/geoexplorer/internal/models"
)

var colosseum = orb.Point{12.4922, 41.8902}

func TestNearbyLandmarks(t *testing.T) {
	db := setupTestDB(t, true)
	ctx := context.Background()

	tests := []struct {
		name      string
		query     models.NearbyQuery
		wantLen   int
		wantFirst []string
	}{
		{
			name:      "radius around the Colosseum",
			query:     models.NearbyQuery{Point: colosseum, RadiusKm: 5},
			wantLen:   2,
			wantFirst: []string{"Colosseum", "Vatican City"},
		},
		{
			name:      "unbounded with limit",
			query:     models.NearbyQuery{Point: colosseum, Limit: 3},
			wantLen:   3,
			wantFirst: []string{"Colosseum", "Vatican City", "Pompeii"},
		},
		{
			name:    "default limit",
			query:   models.NearbyQuery{Point: colosseum},
			wantLen: 8,
		},
		{
			name:    "nothing in range",
			query:   models.NearbyQuery{Point: orb.Point{0, 0}, RadiusKm: 50},
			wantLen: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.NearbyLandmarks(ctx, tt.query)
			if err != nil {
				t.Fatalf("NearbyLandmarks() error = %v", err)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("got %d results, want %d", len(got), tt.wantLen)
			}
			for i, name := range tt.wantFirst {
				if got[i].Name != name {
					t.Errorf("result[%d] = %q, want %q", i, got[i].Name, name)
				}
			}
			for i := 1; i < len(got); i++ {
				if got[i].DistanceKm < got[i-1].DistanceKm {
					t.Errorf("results not sorted by distance at %d", i)
				}
			}
			if tt.query.RadiusKm > 0 {
				for _, r := range got {
					if r.DistanceKm > tt.query.RadiusKm {
						t.Errorf("%s is %.2f km away, outside %.0f km", r.Name, r.DistanceKm, tt.query.RadiusKm)
					}
				}
			}
		})
	}
}

func TestStatistics(t *testing.T) {
	db := setupTestDB(t, true)
	ctx := context.Background()

	stats, err := db.Statistics(ctx)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalLandmarks != 8 || stats.RecentActivity != 8 {
		t.Errorf("total/recent = %d/%d, want 8/8", stats.TotalLandmarks, stats.RecentActivity)
	}
	if stats.TypeDistribution["monument"] != 2 || stats.TypeDistribution["lake"] != 1 {
		t.Errorf("TypeDistribution = %v", stats.TypeDistribution)
	}
	if len(stats.TypeDistribution) != 7 {
		t.Errorf("got %d types, want 7", len(stats.TypeDistribution))
	}
	want := models.Extent{MinLon: 9.2, MinLat: 40.634, MaxLon: 14.9, MaxLat: 46.1}
	if stats.SpatialBounds != want {
		t.Errorf("SpatialBounds = %+v, want %+v", stats.SpatialBounds, want)
	}
	if time.Since(stats.LastUpdated) > time.Minute {
		t.Errorf("LastUpdated = %v", stats.LastUpdated)
	}
}

func TestStatisticsEmpty(t *testing.T) {
	db := setupTestDB(t, false)

	stats, err := db.Statistics(context.Background())
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.TotalLandmarks != 0 || len(stats.TypeDistribution) != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.SpatialBounds != (models.Extent{}) {
		t.Errorf("SpatialBounds = %+v, want zero", stats.SpatialBounds)
	}
}

func TestAnalysisHistory(t *testing.T) {
	db := setupTestDB(t, false)
	ctx := context.Background()

	first, err := db.SaveAnalysis(ctx, "clustering",
		map[string]any{"method": "kmeans", "n_clusters": 3.0},
		map[string]any{"n_clusters": 3})
	if err != nil {
		t.Fatalf("SaveAnalysis() error = %v", err)
	}
	if first.ID == 0 {
		t.Error("SaveAnalysis() returned no id")
	}
	if _, err := db.SaveAnalysis(ctx, "density", nil, []int{1, 2}); err != nil {
		t.Fatal(err)
	}

	t.Run("all types newest first", func(t *testing.T) {
		got, err := db.AnalysisHistory(ctx, "", 0)
		if err != nil {
			t.Fatalf("AnalysisHistory() error = %v", err)
		}
		if len(got) != 2 || got[0].AnalysisType != "density" || got[1].AnalysisType != "clustering" {
			t.Fatalf("history = %+v", got)
		}
		if string(got[0].Results) != "[1,2]" {
			t.Errorf("Results = %s", got[0].Results)
		}
		if len(got[0].Parameters) != 0 {
			t.Errorf("nil parameters stored as %v", got[0].Parameters)
		}
		if got[1].Parameters["method"] != "kmeans" || got[1].Parameters["n_clusters"] != 3.0 {
			t.Errorf("Parameters = %v", got[1].Parameters)
		}
	})

	t.Run("filtered by type", func(t *testing.T) {
		got, err := db.AnalysisHistory(ctx, "clustering", 10)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || !strings.Contains(string(got[0].Results), `"n_clusters":3`) {
			t.Errorf("history = %+v", got)
		}
	})

	t.Run("limit", func(t *testing.T) {
		got, err := db.AnalysisHistory(ctx, "", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Errorf("got %d records, want 1", len(got))
		}
	})
}
