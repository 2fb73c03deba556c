// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

/*
Package api provides the HTTP REST API layer for Geoexplorer.

Key Components:

  - Router: chi route configuration and middleware stack
  - Handler: request handlers for every endpoint
  - Response formatting: the APIResponse envelope with request metadata
  - Error handling: geoerr kinds mapped onto HTTP status codes
  - Rate limiting: per-IP limits via go-chi/httprate
  - CORS: go-chi/cors, with origins taken from configuration

API Categories:

1. Health (/api/health, /api/health/live, /api/health/ready)

2. Landmarks (/api/landmarks):
  - list with type and bounding box filters, paginated
  - fetch, create, update, delete by id
  - nearby search by radius

3. Analysis (/api/analysis):
  - clustering, density grid, accessibility scoring, nearest neighbours
  - history of saved results

4. Machine learning (/api/ml):
  - background training (202 Accepted, outcome delivered as an event)
  - prediction, evaluation, model info

5. Data (/api/data):
  - import from GeoJSON, Shapefile, CSV, Excel, WKT, GeoPackage and Overpass
  - clean, quality validation, geometric transforms
  - export of stored landmarks

6. Visualization (/api/visualize, /api/files):
  - HTML map and dashboard artifacts, PNG charts

7. Realtime:
  - POST /api/realtime/process summarizes a collection
  - GET /ws streams every published event

Response Format:

	{
	  "success": true,
	  "data": {...},
	  "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}
	}

Errors carry {"code", "message", "details", "request_id"} under "error".
Persistence failures are logged in full and reported with a generic message.

Thread Safety:

Handlers are safe for concurrent use. Shared state lives in the store, the
cache and the ml.Service, each of which synchronizes internally.
*/
package api
