// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package models

import "time"

// SpatialAnalysisResult is returned by POST /api/analysis/spatial.
//
// Example:
//
//	{
//	  "analysis_type": "clustering",
//	  "parameters": {"method": "kmeans", "n_clusters": 3},
//	  "results": {"method": "kmeans", "labels": [0, 1, 0], ...},
//	  "analysis_id": 12,
//	  "timestamp": "2026-03-01T12:00:00Z"
//	}
type SpatialAnalysisResult struct {
	AnalysisType string         `json:"analysis_type"`
	Parameters   map[string]any `json:"parameters"`
	Results      any            `json:"results"`
	AnalysisID   int64          `json:"analysis_id,omitempty"` // Zero when history could not be saved
	FeatureCount int            `json:"feature_count"`
	Timestamp    time.Time      `json:"timestamp"`
}

// TrainingAccepted acknowledges a background training job.
type TrainingAccepted struct {
	Status       string `json:"status"` // Always "training_in_progress"
	JobID        string `json:"job_id"`
	ModelType    string `json:"model_type"`
	FeatureCount int    `json:"feature_count"`
}

// ImportResult reports a completed data import.
type ImportResult struct {
	Format       string         `json:"format"`
	FeatureCount int            `json:"feature_count"`
	Inserted     int            `json:"inserted"`
	Skipped      int            `json:"skipped"`
	Cleaning     any            `json:"cleaning,omitempty"` // Cleaning report when the import was cleaned
}

// Artifact describes a rendered file under the output directory.
type Artifact struct {
	Path        string    `json:"map_path"`
	DownloadURL string    `json:"download_url"`
	Style       string    `json:"style,omitempty"`
	Features    int       `json:"feature_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// RealtimeSummary is the quick summary computed for POST /api/realtime/process
// and broadcast as a realtime_analysis event.
type RealtimeSummary struct {
	CollectionSummary
	Timestamp time.Time `json:"timestamp"`
}
