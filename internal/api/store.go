// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"context"

	"github.com/tomtom215/geoexplorer/internal/models"
)

// LandmarkStore is the persistence contract shared by the DuckDB and
// PostGIS backends.
//
// Get and Update return a nil landmark and a nil error for a missing id;
// Delete of a missing id reports zero rows. Every other failure is a
// geoerr persistence error.
type LandmarkStore interface {
	ListLandmarks(ctx context.Context, filter models.LandmarkFilter) ([]models.Landmark, error)
	GetLandmark(ctx context.Context, id int64) (*models.Landmark, error)
	CreateLandmark(ctx context.Context, in *models.LandmarkInput) (*models.Landmark, error)
	UpdateLandmark(ctx context.Context, id int64, patch *models.LandmarkPatch) (*models.Landmark, error)
	DeleteLandmark(ctx context.Context, id int64) (int64, error)
	InsertLandmarks(ctx context.Context, inputs []models.LandmarkInput) (int, error)

	NearbyLandmarks(ctx context.Context, q models.NearbyQuery) ([]models.NearestResult, error)
	Statistics(ctx context.Context) (*models.Statistics, error)

	SaveAnalysis(ctx context.Context, analysisType string, params map[string]any, results any) (*models.AnalysisRecord, error)
	AnalysisHistory(ctx context.Context, analysisType string, limit int) ([]models.AnalysisRecord, error)

	IsSpatialAvailable() bool
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}
