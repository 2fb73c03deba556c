// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package models

import (
	"time"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status            string    `json:"status"` // "healthy" or "degraded"
	Version           string    `json:"version"`
	Driver            string    `json:"database_driver"`
	DatabaseConnected bool      `json:"database_connected"`
	SpatialExtension  bool      `json:"spatial_extension"`
	WebSocketClients  int       `json:"websocket_clients"`
	Models            []string  `json:"models_trained"`
	Uptime            float64   `json:"uptime_seconds"`
	Timestamp         time.Time `json:"timestamp"`
}
