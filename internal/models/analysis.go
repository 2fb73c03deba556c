// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package models

// NearestResult is one row of a nearest-landmark query.
type NearestResult struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Type        string         `json:"type"`
	DistanceKm  float64        `json:"distance_km"` // Great-circle distance to the query point
	CentroidLat float64        `json:"centroid_lat"`
	CentroidLon float64        `json:"centroid_lon"`
	Properties  map[string]any `json:"properties,omitempty"`
}

// NoiseLabel marks a feature that density clustering left unassigned.
const NoiseLabel = -1

// ClusterStat describes one cluster. Noise is never reported as a cluster.
type ClusterStat struct {
	Label       int      `json:"label"`
	Count       int      `json:"count"`
	CentroidLat float64  `json:"centroid_lat"` // Mean of member centroid latitudes
	CentroidLon float64  `json:"centroid_lon"` // Mean of member centroid longitudes
	Members     []string `json:"landmarks"`
}

// ClusterResult is the output of a clustering run.
type ClusterResult struct {
	Method     string        `json:"method"`
	Labels     []int         `json:"labels"` // Aligned with input order
	Clusters   []ClusterStat `json:"cluster_stats"`
	NClusters  int           `json:"n_clusters"` // Distinct labels, noise included
	NoiseCount int           `json:"noise_count"`
}

// DensityCell is one occupied grid cell.
type DensityCell struct {
	CellID    int     `json:"cell_id"`
	MinLon    float64 `json:"min_lon"`
	MinLat    float64 `json:"min_lat"`
	MaxLon    float64 `json:"max_lon"`
	MaxLat    float64 `json:"max_lat"`
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Count     int     `json:"landmark_count"`
	Density   float64 `json:"density"` // Count per square degree
}

// DensityResult is the output of a density grid analysis.
type DensityResult struct {
	GridSize      float64       `json:"grid_size"`
	Cells         []DensityCell `json:"density_data"`
	MaxDensity    float64       `json:"max_density"`
	TotalCells    int           `json:"total_cells"`
	OccupiedCells int           `json:"occupied_cells"`
}

// AccessibilityEntry holds the distance profile of one feature.
type AccessibilityEntry struct {
	ID                 string  `json:"landmark_id"`
	Name               string  `json:"name"`
	AvgDistanceKm      float64 `json:"avg_distance_km"`
	MinDistanceKm      float64 `json:"min_distance_km"`
	MaxDistanceKm      float64 `json:"max_distance_km"`
	AvgTravelTimeHours float64 `json:"avg_travel_time_hours"`
	MinTravelTimeHours float64 `json:"min_travel_time_hours"`
	MaxTravelTimeHours float64 `json:"max_travel_time_hours"`
	Score              float64 `json:"accessibility_score"` // 1 / (avg distance + 1)
}

// AccessibilityResult is the output of an accessibility analysis.
type AccessibilityResult struct {
	TransportSpeedKmh float64              `json:"transport_speed_kmh"`
	Entries           []AccessibilityEntry `json:"accessibility_data"`
	MostAccessible    *AccessibilityEntry  `json:"most_accessible,omitempty"`
	LeastAccessible   *AccessibilityEntry  `json:"least_accessible,omitempty"`
}

// CollectionSummary is the lightweight report used by the realtime endpoint.
type CollectionSummary struct {
	FeatureCount  int            `json:"feature_count"`
	Bounds        *Extent        `json:"bounds,omitempty"`
	GeometryTypes map[string]int `json:"geometry_types"`
	TotalAreaKm2  float64        `json:"total_area_km2"`
	TotalLengthKm float64        `json:"total_length_km"`
}
