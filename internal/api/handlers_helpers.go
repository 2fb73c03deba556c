// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/models"
	"github.com/tomtom215/geoexplorer/internal/validation"
)

// DefaultMaxBodyBytes caps request bodies when the config leaves it unset.
const DefaultMaxBodyBytes = 10 << 20

// sanitizeLogValue removes control characters from strings to prevent log injection attacks.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// decodeJSON reads a size-limited JSON body into dst and validates it.
// It writes the error response itself and reports whether decoding succeeded.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return h.decodeBody(w, r, dst, true)
}

// decodeOptionalJSON is decodeJSON for endpoints where the body may be
// omitted; an empty body leaves dst untouched.
func (h *Handler) decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	return h.decodeBody(w, r, dst, false)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any, required bool) bool {
	rw := NewResponseWriter(w, r)
	limit := h.config.API.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		rw.DomainError(err)
		return false
	}
	if len(bytes.TrimSpace(body)) == 0 {
		if !required {
			return true
		}
		rw.Error(http.StatusBadRequest, ErrCodeValidation, "request body is required")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidation, "invalid JSON body: "+err.Error())
		return false
	}
	return validateRequest(rw, dst)
}

// validateRequest runs struct validation and writes a 400 on failure.
func validateRequest(rw *ResponseWriter, v any) bool {
	if verr := validation.ValidateStruct(v); verr != nil {
		rw.ValidationError(verr)
		return false
	}
	return true
}

// getIntParam parses an optional integer query parameter.
func getIntParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, geoerr.Validation("api.params", "%s must be an integer, got %q", name, s)
	}
	return v, nil
}

// getFloatParam parses an optional finite float query parameter.
func getFloatParam(r *http.Request, name string, def float64) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, geoerr.Validation("api.params", "%s must be a number, got %q", name, s)
	}
	return v, nil
}

// requireFloatParam parses a mandatory float query parameter.
func requireFloatParam(r *http.Request, name string) (float64, error) {
	if r.URL.Query().Get(name) == "" {
		return 0, geoerr.Validation("api.params", "%s is required", name)
	}
	return getFloatParam(r, name, 0)
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, error) {
	s := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, geoerr.Validation("api.params", "landmark id must be a positive integer, got %q", s)
	}
	return id, nil
}

// pageParams reads limit and offset, applying the configured page sizes.
func (h *Handler) pageParams(r *http.Request) (limit, offset int, err error) {
	def := h.config.API.DefaultPageSize
	if def <= 0 {
		def = 100
	}
	maxSize := h.config.API.MaxPageSize
	if maxSize <= 0 {
		maxSize = 1000
	}
	if limit, err = getIntParam(r, "limit", def); err != nil {
		return 0, 0, err
	}
	if offset, err = getIntParam(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit < 1 || limit > maxSize {
		return 0, 0, geoerr.Validation("api.params", "limit must be between 1 and %d", maxSize)
	}
	if offset < 0 {
		return 0, 0, geoerr.Validation("api.params", "offset must not be negative")
	}
	return limit, offset, nil
}

// loadCollection turns a request collection into features. A missing
// collection is a validation error; bad geometries are data format errors.
func loadCollection(fc *geojson.FeatureCollection) ([]models.Feature, error) {
	if fc == nil {
		return nil, geoerr.Validation("api.collection", "a GeoJSON FeatureCollection is required")
	}
	return ingest.Load(fc)
}
