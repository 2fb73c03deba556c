// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package validation provides struct validation using go-playground/validator v10.
//
// A singleton validator reports fields by their JSON names and adds two
// custom tags on top of the built-ins:
//
//   - geometry: a *geojson.Geometry holding a non-empty geometry whose
//     coordinates are finite and inside WGS84 range
//   - bbox: a "min_lon,min_lat,max_lon,max_lat" string with min <= max
//
// # Usage
//
//	type NearbyRequest struct {
//	    Lat      float64 `json:"lat" validate:"latitude"`
//	    Lon      float64 `json:"lon" validate:"longitude"`
//	    RadiusKm float64 `json:"radius_km" validate:"gte=0"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    return verr.AsError("api.nearby") // geoerr VALIDATION_ERROR -> 400
//	}
//
// ToAPIError keeps the structured field details for the response envelope:
//
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "name is required",
//	    "details": {"field": "name", "tag": "required", "value": ""}
//	}
package validation
