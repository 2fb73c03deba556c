// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package render turns landmark collections into viewable artifacts.
//
// Interactive maps and the dashboard are html/template pages embedded in
// the binary. Maps load Leaflet with the markercluster and heat plugins
// from a CDN; markers are coloured by landmark type and each style
// (default, dark, satellite, terrain) picks a different tile layer.
// Charts are PNG images drawn with go-chart.
//
// Artifacts written to disk land in the configured output directory under
// fixed names, so the HTTP layer can serve them by file name:
//
//	italy_landmarks_map_<style>.html
//	italy_landmarks_dashboard.html
package render
