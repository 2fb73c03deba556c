// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package middleware provides HTTP middleware shared by the API router:
// request id propagation into the logging context, Prometheus request
// metrics labelled by chi route pattern, and a sliding-window latency
// monitor reported by the health endpoint.
package middleware
