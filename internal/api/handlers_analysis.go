// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/analysis"
	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/metrics"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// requestFeatures loads the posted collection, or the stored landmarks of
// landmarkType when fc is nil.
func (h *Handler) requestFeatures(ctx context.Context, fc *geojson.FeatureCollection, landmarkType string) ([]models.Feature, error) {
	if fc != nil {
		return ingest.Load(fc)
	}
	rows, err := h.allLandmarks(ctx, strings.TrimSpace(landmarkType))
	if err != nil {
		return nil, err
	}
	return ingest.FromLandmarks(rows)
}

// SpatialAnalysis handles POST /api/analysis/spatial.
//
// The analysis runs synchronously. On success the result is appended to the
// analysis history and an analysis_completed event is published. A history
// write failure is logged and does not fail the request.
func (h *Handler) SpatialAnalysis(w http.ResponseWriter, r *http.Request) {
	var req SpatialAnalysisRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	features, err := h.requestFeatures(ctx, req.Features, req.LandmarkType)
	if err != nil {
		rw.DomainError(err)
		return
	}

	params := req.Parameters.withDefaults()
	start := time.Now()
	results, err := runAnalysis(req.AnalysisType, features, params)
	metrics.RecordAnalysis(req.AnalysisType, len(features), time.Since(start), err)
	if err != nil {
		rw.DomainError(err)
		return
	}

	out := models.SpatialAnalysisResult{
		AnalysisType: req.AnalysisType,
		Parameters:   params.asMap(req.AnalysisType),
		Results:      results,
		FeatureCount: len(features),
		Timestamp:    time.Now().UTC(),
	}
	if rec, err := h.store.SaveAnalysis(ctx, req.AnalysisType, out.Parameters, results); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("analysis_type", req.AnalysisType).Msg("Failed to save analysis history")
	} else {
		out.AnalysisID = rec.ID
	}

	logging.Ctx(ctx).Info().
		Str("analysis_type", req.AnalysisType).
		Int("features", len(features)).
		Dur("duration", time.Since(start)).
		Msg("Spatial analysis completed")

	h.publisher.Publish(ctx, events.AnalysisCompleted, map[string]any{
		"analysis_type": out.AnalysisType,
		"analysis_id":   out.AnalysisID,
		"results":       results,
	})
	rw.Success(out)
}

// runAnalysis dispatches to the analysis package.
func runAnalysis(analysisType string, features []models.Feature, p AnalysisParameters) (any, error) {
	switch analysisType {
	case AnalysisClustering:
		return analysis.Cluster(features, analysis.ClusterParams{
			Method:     p.Method,
			NClusters:  p.NClusters,
			Eps:        p.Eps,
			MinSamples: p.MinSamples,
		})
	case AnalysisDensity:
		return analysis.Density(features, p.GridSize)
	case AnalysisAccessibility:
		return analysis.Accessibility(features, p.TransportSpeed)
	case AnalysisNearest:
		if p.Lat == nil || p.Lon == nil {
			return nil, geoerr.Validation("api.nearest", "nearest analysis needs lat and lon parameters")
		}
		query := orb.Point{*p.Lon, *p.Lat}
		candidates := features
		if p.RadiusKm > 0 {
			candidates = analysis.WithinRadius(features, query, p.RadiusKm)
		}
		nearest := analysis.Nearest(candidates, query, p.Limit)
		if nearest == nil {
			nearest = []models.NearestResult{}
		}
		return nearest, nil
	}
	return nil, geoerr.Validation("api.analysis", "unsupported analysis type %q", analysisType)
}

// AnalysisHistory handles GET /api/analysis/history?analysis_type=&limit=.
func (h *Handler) AnalysisHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	limit, err := getIntParam(r, "limit", 50)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if limit < 1 || limit > 1000 {
		rw.DomainError(geoerr.Validation("api.history", "limit must be between 1 and 1000"))
		return
	}

	history, err := h.store.AnalysisHistory(r.Context(), strings.TrimSpace(r.URL.Query().Get("analysis_type")), limit)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if history == nil {
		history = []models.AnalysisRecord{}
	}
	rw.SuccessWithPagination(history, &PaginationMeta{Count: len(history), Limit: limit, HasMore: len(history) == limit})
}
