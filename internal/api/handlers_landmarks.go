// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"net/http"
	"strings"

	"github.com/paulmach/orb"

	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/models"
	"github.com/tomtom215/geoexplorer/internal/validation"
)

// ListLandmarks handles GET /api/landmarks.
//
// Query parameters:
//   - landmark_type: exact type tag
//   - bbox: min_lon,min_lat,max_lon,max_lat
//   - limit, offset: paging, newest first
func (h *Handler) ListLandmarks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit, offset, err := h.pageParams(r)
	if err != nil {
		rw.DomainError(err)
		return
	}
	filter := models.LandmarkFilter{
		LandmarkType: strings.TrimSpace(r.URL.Query().Get("landmark_type")),
		Limit:        limit,
		Offset:       offset,
	}
	if s := r.URL.Query().Get("bbox"); s != "" {
		box, err := validation.ParseBBox(s)
		if err != nil {
			rw.Error(http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		filter.BBox = &orb.Bound{Min: orb.Point{box[0], box[1]}, Max: orb.Point{box[2], box[3]}}
	}

	rows, err := h.store.ListLandmarks(r.Context(), filter)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if rows == nil {
		rows = []models.Landmark{}
	}
	rw.SuccessWithPagination(rows, &PaginationMeta{
		Count:   len(rows),
		Offset:  offset,
		Limit:   limit,
		HasMore: len(rows) == limit,
	})
}

// GetLandmark handles GET /api/landmarks/{id}.
func (h *Handler) GetLandmark(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := pathID(r)
	if err != nil {
		rw.DomainError(err)
		return
	}

	l, err := h.store.GetLandmark(r.Context(), id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if l == nil {
		rw.NotFound("landmark not found")
		return
	}
	rw.Success(l)
}

// CreateLandmark handles POST /api/landmarks and publishes landmark_created.
func (h *Handler) CreateLandmark(w http.ResponseWriter, r *http.Request) {
	var in models.LandmarkInput
	if !h.decodeJSON(w, r, &in) {
		return
	}
	rw := NewResponseWriter(w, r)

	l, err := h.store.CreateLandmark(r.Context(), &in)
	if err != nil {
		rw.DomainError(err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Int64("landmark_id", l.ID).
		Str("landmark_type", sanitizeLogValue(l.LandmarkType)).
		Msg("Landmark created")
	h.landmarksChanged(r.Context(), events.LandmarkCreated, l)
	rw.Created(l)
}

// UpdateLandmark handles PUT /api/landmarks/{id}. Only the fields present in
// the body change. Publishes landmark_updated.
func (h *Handler) UpdateLandmark(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := pathID(r)
	if err != nil {
		rw.DomainError(err)
		return
	}

	var patch models.LandmarkPatch
	if !h.decodeJSON(w, r, &patch) {
		return
	}
	if patch.Empty() {
		rw.DomainError(geoerr.Validation("api.update_landmark", "no fields to update"))
		return
	}

	l, err := h.store.UpdateLandmark(r.Context(), id, &patch)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if l == nil {
		rw.NotFound("landmark not found")
		return
	}
	h.landmarksChanged(r.Context(), events.LandmarkUpdated, l)
	rw.Success(l)
}

// DeleteLandmark handles DELETE /api/landmarks/{id}. Deleting a missing id
// succeeds with rows_affected 0 and publishes nothing.
func (h *Handler) DeleteLandmark(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	id, err := pathID(r)
	if err != nil {
		rw.DomainError(err)
		return
	}

	n, err := h.store.DeleteLandmark(r.Context(), id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if n > 0 {
		h.landmarksChanged(r.Context(), events.LandmarkDeleted, map[string]any{"id": id})
	}
	rw.Success(map[string]any{"id": id, "rows_affected": n})
}

// NearbyLandmarks handles GET /api/landmarks/nearby?lat=&lon=&radius_km=&limit=.
// Results are ordered by great-circle distance; without radius_km the
// nearest landmarks are returned regardless of distance.
func (h *Handler) NearbyLandmarks(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	lat, err := requireFloatParam(r, "lat")
	if err != nil {
		rw.DomainError(err)
		return
	}
	lon, err := requireFloatParam(r, "lon")
	if err != nil {
		rw.DomainError(err)
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		rw.DomainError(geoerr.Validation("api.nearby", "lat/lon outside WGS84 range"))
		return
	}
	radius, err := getFloatParam(r, "radius_km", 0)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if radius < 0 {
		rw.DomainError(geoerr.Validation("api.nearby", "radius_km must not be negative"))
		return
	}
	limit, err := getIntParam(r, "limit", DefaultNearestLimit)
	if err != nil {
		rw.DomainError(err)
		return
	}
	if limit < 1 || limit > 1000 {
		rw.DomainError(geoerr.Validation("api.nearby", "limit must be between 1 and 1000"))
		return
	}

	results, err := h.store.NearbyLandmarks(r.Context(), models.NearbyQuery{
		Point:    orb.Point{lon, lat},
		RadiusKm: radius,
		Limit:    limit,
	})
	if err != nil {
		rw.DomainError(err)
		return
	}
	if results == nil {
		results = []models.NearestResult{}
	}
	rw.Success(results)
}
