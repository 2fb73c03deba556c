// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoexplorer/internal/analysis"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/models"
)

var errStoreDown = errors.New("connection refused")

// fakeStore is an in-memory LandmarkStore. Setting down makes every call
// fail with a persistence error.
type fakeStore struct {
	mu       sync.Mutex
	rows     map[int64]models.Landmark
	nextID   int64
	analyses []models.AnalysisRecord
	down     bool
	statsHit int
}

var _ LandmarkStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[int64]models.Landmark)}
}

// newSeededStore holds the eight sample landmarks with ids 1..8.
func newSeededStore() *fakeStore {
	s := newFakeStore()
	if _, err := s.InsertLandmarks(context.Background(), ingest.SampleLandmarks()); err != nil {
		panic(err)
	}
	return s
}

func (s *fakeStore) fail(op string) error {
	if s.down {
		return geoerr.Persistence(op, errStoreDown)
	}
	return nil
}

func (s *fakeStore) sorted() []models.Landmark {
	out := make([]models.Landmark, 0, len(s.rows))
	for _, l := range s.rows {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (s *fakeStore) ListLandmarks(_ context.Context, f models.LandmarkFilter) ([]models.Landmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fake.list"); err != nil {
		return nil, err
	}

	var out []models.Landmark
	for _, l := range s.sorted() {
		if f.LandmarkType != "" && l.LandmarkType != f.LandmarkType {
			continue
		}
		if f.BBox != nil && !f.BBox.Intersects(l.Geom().Bound()) {
			continue
		}
		out = append(out, l)
	}
	if f.Offset >= len(out) {
		return []models.Landmark{}, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *fakeStore) GetLandmark(_ context.Context, id int64) (*models.Landmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fake.get"); err != nil {
		return nil, err
	}
	l, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (s *fakeStore) create(in *models.LandmarkInput) models.Landmark {
	s.nextID++
	now := time.Now().UTC()
	l := models.Landmark{
		ID:           s.nextID,
		Name:         in.Name,
		Description:  in.Description,
		LandmarkType: in.LandmarkType,
		Geometry:     in.Geometry,
		Properties:   in.Properties,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if l.Properties == nil {
		l.Properties = map[string]any{}
	}
	s.rows[l.ID] = l
	return l
}

func (s *fakeStore) CreateLandmark(_ context.Context, in *models.LandmarkInput) (*models.Landmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fake.create"); err != nil {
		return nil, err
	}
	l := s.create(in)
	return &l, nil
}

func (s *fakeStore) UpdateLandmark(_ context.Context, id int64, patch *models.LandmarkPatch) (*models.Landmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fake.update"); err != nil {
		return nil, err
	}
	l, ok := s.rows[id]
	if !ok {
		return nil, nil
	}
	patch.Apply(&l)
	l.UpdatedAt = time.Now().UTC()
	s.rows[id] = l
	return &l, nil
}

func (s *fakeStore) DeleteLandmark(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fake.delete"); err != nil {
		return 0, err
	}
	if _, ok := s.rows[id]; !ok {
		return 0, nil
	}
	delete(s.rows, id)
	return 1, nil
}

func (s *fakeStore) InsertLandmarks(_ context.Context, inputs []models.LandmarkInput) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fake.insert"); err != nil {
		return 0, err
	}
	for i := range inputs {
		s.create(&inputs[i])
	}
	return len(inputs), nil
}

func (s *fakeStore) NearbyLandmarks(ctx context.Context, q models.NearbyQuery) ([]models.NearestResult, error) {
	rows, err := s.ListLandmarks(ctx, models.LandmarkFilter{})
	if err != nil {
		return nil, err
	}
	features, err := ingest.FromLandmarks(rows)
	if err != nil {
		return nil, err
	}
	if q.RadiusKm > 0 {
		features = analysis.WithinRadius(features, q.Point, q.RadiusKm)
	}
	return analysis.Nearest(features, q.Point, q.Limit), nil
}

func (s *fakeStore) Statistics(_ context.Context) (*models.Statistics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fake.statistics"); err != nil {
		return nil, err
	}
	s.statsHit++
	st := &models.Statistics{
		TotalLandmarks:   int64(len(s.rows)),
		TypeDistribution: make(map[string]int64),
		LastUpdated:      time.Now().UTC(),
	}
	for _, l := range s.rows {
		st.TypeDistribution[l.LandmarkType]++
		st.RecentActivity++
	}
	return st, nil
}

func (s *fakeStore) statisticsLoads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsHit
}

func (s *fakeStore) SaveAnalysis(_ context.Context, analysisType string, params map[string]any, results any) (*models.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fake.save_analysis"); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(results)
	if err != nil {
		return nil, geoerr.Persistence("fake.save_analysis", err)
	}
	rec := models.AnalysisRecord{
		ID:           int64(len(s.analyses) + 1),
		AnalysisType: analysisType,
		Parameters:   params,
		Results:      raw,
		CreatedAt:    time.Now().UTC(),
	}
	s.analyses = append(s.analyses, rec)
	return &rec, nil
}

func (s *fakeStore) AnalysisHistory(_ context.Context, analysisType string, limit int) ([]models.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("fake.history"); err != nil {
		return nil, err
	}
	var out []models.AnalysisRecord
	for i := len(s.analyses) - 1; i >= 0 && len(out) < limit; i-- {
		if analysisType == "" || s.analyses[i].AnalysisType == analysisType {
			out = append(out, s.analyses[i])
		}
	}
	return out, nil
}

func (s *fakeStore) IsSpatialAvailable() bool { return false }
func (s *fakeStore) Driver() string           { return "fake" }

func (s *fakeStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail("fake.ping")
}

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) setDown(down bool) {
	s.mu.Lock()
	s.down = down
	s.mu.Unlock()
}
