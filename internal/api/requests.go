// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/ingest"
)

// Spatial analysis types accepted by POST /api/analysis/spatial.
const (
	AnalysisClustering    = "clustering"
	AnalysisDensity       = "density"
	AnalysisAccessibility = "accessibility"
	AnalysisNearest       = "nearest"
)

// Defaults applied to missing analysis parameters.
const (
	DefaultClusterMethod  = "kmeans"
	DefaultNClusters      = 3
	DefaultGridSize       = 0.1
	DefaultTransportSpeed = 50.0
	DefaultNearestLimit   = 10
)

// SpatialAnalysisRequest runs one analysis over either the posted
// collection or, when Features is absent, the stored landmarks (optionally
// narrowed to one type).
type SpatialAnalysisRequest struct {
	AnalysisType string                     `json:"analysis_type" validate:"required,oneof=clustering density accessibility nearest"`
	Parameters   AnalysisParameters         `json:"parameters"`
	Features     *geojson.FeatureCollection `json:"features,omitempty"`
	LandmarkType string                     `json:"landmark_type,omitempty" validate:"max=64"`
}

// AnalysisParameters is the union of every analysis's options.
type AnalysisParameters struct {
	Method     string  `json:"method,omitempty" validate:"omitempty,oneof=kmeans dbscan hierarchical"`
	NClusters  int     `json:"n_clusters,omitempty" validate:"omitempty,min=1,max=100"`
	Eps        float64 `json:"eps,omitempty" validate:"omitempty,gt=0"`
	MinSamples int     `json:"min_samples,omitempty" validate:"omitempty,min=1"`

	GridSize float64 `json:"grid_size,omitempty" validate:"omitempty,gt=0"`

	TransportSpeed float64 `json:"transport_speed,omitempty" validate:"omitempty,gt=0"`

	Lat      *float64 `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lon      *float64 `json:"lon,omitempty" validate:"omitempty,longitude"`
	Limit    int      `json:"limit,omitempty" validate:"omitempty,min=1,max=1000"`
	RadiusKm float64  `json:"radius_km,omitempty" validate:"omitempty,gt=0"`
}

// withDefaults fills the documented defaults for the chosen analysis.
func (p AnalysisParameters) withDefaults() AnalysisParameters {
	if p.Method == "" {
		p.Method = DefaultClusterMethod
	}
	if p.NClusters == 0 {
		p.NClusters = DefaultNClusters
	}
	if p.GridSize == 0 {
		p.GridSize = DefaultGridSize
	}
	if p.TransportSpeed == 0 {
		p.TransportSpeed = DefaultTransportSpeed
	}
	if p.Limit == 0 {
		p.Limit = DefaultNearestLimit
	}
	return p
}

// asMap returns the parameters relevant to analysisType for history records.
func (p AnalysisParameters) asMap(analysisType string) map[string]any {
	switch analysisType {
	case AnalysisClustering:
		m := map[string]any{"method": p.Method, "n_clusters": p.NClusters}
		if p.Eps > 0 {
			m["eps"] = p.Eps
		}
		if p.MinSamples > 0 {
			m["min_samples"] = p.MinSamples
		}
		return m
	case AnalysisDensity:
		return map[string]any{"grid_size": p.GridSize}
	case AnalysisAccessibility:
		return map[string]any{"transport_speed": p.TransportSpeed}
	case AnalysisNearest:
		m := map[string]any{"limit": p.Limit}
		if p.Lat != nil && p.Lon != nil {
			m["lat"], m["lon"] = *p.Lat, *p.Lon
		}
		if p.RadiusKm > 0 {
			m["radius_km"] = p.RadiusKm
		}
		return m
	}
	return map[string]any{}
}

// TrainRequest starts a background training job. Without TrainingData the
// stored landmarks are used.
type TrainRequest struct {
	ModelType    string                     `json:"model_type" validate:"required"`
	TrainingData *geojson.FeatureCollection `json:"training_data,omitempty"`
}

// PredictRequest predicts either for every feature of a collection or for
// one raw feature vector.
type PredictRequest struct {
	ModelType string                     `json:"model_type" validate:"required"`
	Features  *geojson.FeatureCollection `json:"features,omitempty"`
	Vector    []float64                  `json:"vector,omitempty"`
}

// EvaluateRequest scores a trained model on a labeled collection.
type EvaluateRequest struct {
	ModelType string                     `json:"model_type" validate:"required"`
	Features  *geojson.FeatureCollection `json:"features"`
}

// ImportRequest reads a collection from a file under the data directory,
// a URL, an inline payload or the Overpass API, then stores it.
//
// Data may be a GeoJSON object or a JSON string holding CSV or KML text.
type ImportRequest struct {
	FilePath  string          `json:"file_path,omitempty" validate:"max=1024"`
	URL       string          `json:"url,omitempty" validate:"omitempty,url"`
	Data      json.RawMessage `json:"data,omitempty"`
	Format    string          `json:"format" validate:"required"`
	LatColumn string          `json:"lat_column,omitempty"`
	LonColumn string          `json:"lon_column,omitempty"`
	WKTColumn string          `json:"wkt_column,omitempty"`
	Sheet     string          `json:"sheet,omitempty"`
	BBox      []float64       `json:"bbox,omitempty" validate:"omitempty,len=4"`
	Clean     bool            `json:"clean"`
	DryRun    bool            `json:"dry_run"` // Parse and summarize without inserting
}

// source converts the request into an ingest source.
func (req *ImportRequest) source(format ingest.Format) ingest.Source {
	src := ingest.Source{
		Format:    format,
		Path:      req.FilePath,
		URL:       req.URL,
		LatColumn: req.LatColumn,
		LonColumn: req.LonColumn,
		WKTColumn: req.WKTColumn,
		Sheet:     req.Sheet,
		BBox:      req.BBox,
	}
	if len(req.Data) > 0 {
		var text string
		if err := json.Unmarshal(req.Data, &text); err == nil {
			src.Data = []byte(text)
		} else {
			src.Data = []byte(req.Data)
		}
	}
	return src
}

// TransformRequest applies one geometry operation to a collection.
type TransformRequest struct {
	Operation string                     `json:"operation" validate:"required,oneof=simplify convex_hull centroid envelope"`
	Tolerance float64                    `json:"tolerance,omitempty" validate:"omitempty,gt=0"`
	Features  *geojson.FeatureCollection `json:"features"`
}

// MapRequest selects what to draw. Without Features the stored landmarks
// are used.
type MapRequest struct {
	Features     *geojson.FeatureCollection `json:"features,omitempty"`
	LandmarkType string                     `json:"landmark_type,omitempty" validate:"max=64"`
}
