// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/geoexplorer/internal/models"
)

// Health handles health check requests.
//
// GET /api/health reports store connectivity, the spatial extension, the
// number of WebSocket clients and which models are trained. The status is
// "degraded" when the store does not answer a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	trained := make([]string, 0, 3)
	for _, t := range h.models.Trained() {
		trained = append(trained, string(t))
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           Version,
		DatabaseConnected: dbConnected,
		Models:            trained,
		Uptime:            time.Since(h.startTime).Seconds(),
		Timestamp:         time.Now().UTC(),
	}
	if h.store != nil {
		health.Driver = h.store.Driver()
		health.SpatialExtension = h.store.IsSpatialAvailable()
	}
	if h.wsHub != nil {
		health.WebSocketClients = h.wsHub.GetClientCount()
	}

	NewResponseWriter(w, r).Success(health)
}

// HealthLive handles liveness probe requests.
// Returns 200 OK if the process is alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles readiness probe requests.
// Returns 200 OK only if the store answers a ping, 503 otherwise.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	data := map[string]interface{}{
		"database_connected": dbConnected,
		"ready_to_serve":     dbConnected,
		"uptime":             time.Since(h.startTime).Seconds(),
	}
	rw := NewResponseWriter(w, r)
	if !dbConnected {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "landmark store is not reachable", data)
		return
	}
	rw.Success(data)
}

// Statistics returns the landmark summary: totals, type distribution,
// spatial extent and recent activity. Served from the statistics cache.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	stats, err := h.statistics(r.Context())
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(stats)
}

// PerformanceStats returns per-endpoint latency percentiles for the recent
// request window.
func (h *Handler) PerformanceStats(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.perfMon.GetStats())
}
