// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/models"
	"github.com/tomtom215/geoexplorer/internal/validation"
)

// ExportBaseName is the download file name of exports, before the extension.
const ExportBaseName = "italy_landmarks"

// ImportData handles POST /api/data/import.
//
// The source is read, optionally cleaned, mapped onto landmark inputs and
// inserted in one batch. Features that fail landmark validation are skipped
// and counted. With dry_run nothing is written.
func (h *Handler) ImportData(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	format, err := ingest.ParseFormat(req.Format)
	if err != nil {
		rw.DomainError(err)
		return
	}
	fc, err := h.importer.Import(ctx, req.source(format))
	if err != nil {
		rw.DomainError(err)
		return
	}

	result := models.ImportResult{Format: string(format), FeatureCount: len(fc.Features)}
	if req.Clean {
		var report ingest.CleanReport
		fc, report = ingest.Clean(fc)
		result.Cleaning = report
	}

	inputs := make([]models.LandmarkInput, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			result.Skipped++
			continue
		}
		in := ingest.ToLandmarkInput(f)
		if verr := validation.ValidateStruct(&in); verr != nil {
			result.Skipped++
			continue
		}
		inputs = append(inputs, in)
	}

	if !req.DryRun && len(inputs) > 0 {
		n, err := h.store.InsertLandmarks(ctx, inputs)
		if err != nil {
			rw.DomainError(err)
			return
		}
		result.Inserted = n
		h.landmarksChanged(ctx, events.DataImported, result)
	}

	logging.Ctx(ctx).Info().
		Str("format", string(format)).
		Int("features", result.FeatureCount).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Bool("dry_run", req.DryRun).
		Msg("Data import finished")
	rw.Success(result)
}

// decodeCollection reads a bare FeatureCollection body.
func (h *Handler) decodeCollection(w http.ResponseWriter, r *http.Request) (*geojson.FeatureCollection, bool) {
	fc := geojson.NewFeatureCollection()
	if !h.decodeJSON(w, r, fc) {
		return nil, false
	}
	return fc, true
}

// cleanResponse pairs a cleaned collection with what changed.
type cleanResponse struct {
	Collection *geojson.FeatureCollection `json:"collection"`
	Report     ingest.CleanReport         `json:"report"`
}

// CleanData handles POST /api/data/clean with a FeatureCollection body.
func (h *Handler) CleanData(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.decodeCollection(w, r)
	if !ok {
		return
	}
	cleaned, report := ingest.Clean(fc)
	NewResponseWriter(w, r).Success(cleanResponse{Collection: cleaned, Report: report})
}

// ValidateData handles POST /api/data/validate with a FeatureCollection
// body and returns the quality report.
func (h *Handler) ValidateData(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.decodeCollection(w, r)
	if !ok {
		return
	}
	NewResponseWriter(w, r).Success(ingest.Validate(fc))
}

// TransformData handles POST /api/data/transform.
func (h *Handler) TransformData(w http.ResponseWriter, r *http.Request) {
	var req TransformRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)
	if req.Features == nil {
		rw.DomainError(geoerr.Validation("api.transform", "features is required"))
		return
	}

	out, err := ingest.Transform(req.Features, req.Operation, req.Tolerance)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(out)
}

// ExportData handles GET /api/data/export?format=&landmark_type=.
//
// The body is rendered in memory so that a failure still produces a JSON
// error instead of a truncated download.
func (h *Handler) ExportData(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(ingest.FormatGeoJSON)
	}
	format, err := ingest.ParseFormat(name)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if format == ingest.FormatOverpass {
		rw.DomainError(geoerr.Validation("api.export", "overpass is an import-only source"))
		return
	}

	rows, err := h.allLandmarks(ctx, strings.TrimSpace(r.URL.Query().Get("landmark_type")))
	if err != nil {
		rw.DomainError(err)
		return
	}

	var buf bytes.Buffer
	if err := ingest.Export(&buf, ingest.LandmarksCollection(rows), format); err != nil {
		rw.DomainError(err)
		return
	}

	mime, ext := ingest.ContentType(format)
	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Disposition", `attachment; filename="`+ExportBaseName+ext+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to write export")
	}
}
