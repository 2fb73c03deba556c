// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

/*
Package models defines the data structures shared by the stores, the
analysis code and the HTTP API.

Model Categories:

1. Persisted records:
  - Landmark: a stored landmark row with GeoJSON geometry and a free-form property bag
  - AnalysisRecord: one saved spatial analysis run
  - LandmarkInput / LandmarkPatch: create and partial update payloads

2. In-memory features:
  - Feature: a loaded feature with derived centroid, bound, area and perimeter
  - NearestResult, ClusterResult, DensityResult, AccessibilityResult: analysis outputs
  - CollectionSummary: counts, bounds and geometry types of a collection

3. Queries:
  - LandmarkFilter: type, bounding box and paging for list queries
  - NearbyQuery: point, radius and limit for nearest queries

4. API payloads:
  - SpatialAnalysisResult, TrainingAccepted, ImportResult, Artifact, RealtimeSummary
  - HealthStatus, Statistics

Geometries use github.com/paulmach/orb. Landmark geometry is kept as a
*geojson.Geometry so it marshals as a GeoJSON geometry object without a
conversion step. Derived measures on Feature are planar approximations
(degrees scaled by 111 km) and are only used for ranking and summaries.

Thread Safety:

Model types carry no synchronization. Values returned by the stores are
owned by the caller.
*/
package models
