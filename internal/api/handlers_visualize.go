// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/models"
	"github.com/tomtom215/geoexplorer/internal/render"
	"github.com/tomtom215/geoexplorer/internal/supervisor/services"
)

// filesRoute is the prefix artifacts are downloaded from.
const filesRoute = "/api/files/"

// CreateMap handles POST /api/visualize/map?style=.
//
// The body is optional: without one every stored landmark is drawn. The
// map is written to the output directory and a download URL is returned.
func (h *Handler) CreateMap(w http.ResponseWriter, r *http.Request) {
	var req MapRequest
	if !h.decodeOptionalJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)
	if h.renderer == nil {
		rw.ServiceUnavailable("rendering is not configured")
		return
	}

	style, err := render.ParseStyle(r.URL.Query().Get("style"))
	if err != nil {
		rw.DomainError(err)
		return
	}
	features, err := h.requestFeatures(r.Context(), req.Features, req.LandmarkType)
	if err != nil {
		rw.DomainError(err)
		return
	}

	path, err := h.renderer.WriteMap(features, style)
	if err != nil {
		rw.DomainError(err)
		return
	}
	name := filepath.Base(path)
	logging.Ctx(r.Context()).Info().Str("file", name).Int("features", len(features)).Msg("Map rendered")

	rw.Success(models.Artifact{
		Path:        path,
		DownloadURL: filesRoute + name,
		Style:       string(style),
		Features:    len(features),
		CreatedAt:   time.Now().UTC(),
	})
}

// Dashboard handles GET /api/visualize/dashboard. The dashboard is written
// to the output directory and served as HTML.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.renderer == nil {
		rw.ServiceUnavailable("rendering is not configured")
		return
	}
	ctx := r.Context()

	stats, err := h.statistics(ctx)
	if err != nil {
		rw.DomainError(err)
		return
	}
	features, err := h.requestFeatures(ctx, nil, "")
	if err != nil {
		rw.DomainError(err)
		return
	}

	path, err := h.renderer.WriteDashboard(stats, features)
	if err != nil {
		rw.DomainError(err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, path)
}

// Chart handles GET /api/visualize/charts/{chart}.png for the stored
// landmarks, optionally narrowed by landmark_type.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.renderer == nil {
		rw.ServiceUnavailable("rendering is not configured")
		return
	}

	chart, err := render.ParseChart(chi.URLParam(r, "chart"))
	if err != nil {
		rw.DomainError(err)
		return
	}
	features, err := h.requestFeatures(r.Context(), nil, r.URL.Query().Get("landmark_type"))
	if err != nil {
		rw.DomainError(err)
		return
	}
	png, err := h.renderer.ChartPNG(features, chart)
	if err != nil {
		rw.DomainError(err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to write chart")
	}
}

// DownloadFile handles GET /api/files/{filename}: it serves a published
// artifact from the output directory. Only plain file names are accepted,
// and in-progress temp files are never served.
func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.renderer == nil {
		rw.ServiceUnavailable("rendering is not configured")
		return
	}

	name := chi.URLParam(r, "filename")
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") ||
		strings.HasPrefix(name, services.TempPrefix) || strings.ContainsAny(name, `/\`) {
		rw.DomainError(geoerr.Validation("api.files", "invalid file name %q", name))
		return
	}

	path := filepath.Join(h.renderer.OutputDir(), name)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
		rw.NotFound("file not found")
		return
	}
	if err != nil {
		rw.DomainError(err)
		return
	}
	http.ServeFile(w, r, path)
}
