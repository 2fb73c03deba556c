// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package services adapts geoexplorer components to suture.Service.
//
// HTTPServerService turns ListenAndServe into a context-aware Serve with a
// bounded graceful shutdown. HubService runs the WebSocket hub loop.
// CleanupService sweeps old rendered files out of the output directory.
// The event forwarder in internal/events is already a suture.Service and
// is added to the tree directly.
package services
