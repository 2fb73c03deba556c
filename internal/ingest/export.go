// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
)

// ContentType returns the MIME type and file extension of an export format.
func ContentType(format Format) (string, string) {
	switch format {
	case FormatGeoJSON:
		return "application/geo+json", ".geojson"
	case FormatKML:
		return "application/vnd.google-earth.kml+xml", ".kml"
	case FormatCSV:
		return "text/csv; charset=utf-8", ".csv"
	case FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"
	case FormatShapefile:
		return "application/zip", ".zip"
	}
	return "application/octet-stream", ""
}

// Export writes fc to w. Shapefiles are written to a temp directory and
// streamed as one zip holding every family file.
func Export(w io.Writer, fc *geojson.FeatureCollection, format Format) error {
	switch format {
	case FormatGeoJSON:
		return WriteGeoJSON(w, fc)
	case FormatKML:
		return WriteKML(w, "Italian Landmarks", fc)
	case FormatCSV:
		return WriteCSV(w, fc)
	case FormatExcel:
		return WriteExcel(w, fc)
	case FormatShapefile:
		return exportShapefileZip(w, fc)
	}
	return geoerr.Validation("ingest.export", "unsupported export format %q", format)
}

// ExportShapefile writes fc into dir as <base>_<family>.shp files.
func ExportShapefile(dir, base string, fc *geojson.FeatureCollection) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("ingest.export: %w", err)
	}
	return WriteShapefile(dir, base, fc)
}

func exportShapefileZip(w io.Writer, fc *geojson.FeatureCollection) error {
	dir, err := os.MkdirTemp("", "geoexplorer-shp-*")
	if err != nil {
		return fmt.Errorf("ingest.export: %w", err)
	}
	defer os.RemoveAll(dir)

	if _, err := WriteShapefile(dir, "landmarks", fc); err != nil {
		return err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("ingest.export: %w", err)
	}

	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := addZipFile(zw, filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return zw.Close()
}

func addZipFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path) //nolint:gosec // temp dir we created
	if err != nil {
		return fmt.Errorf("ingest.export: %w", err)
	}
	defer f.Close()

	dst, err := zw.Create(filepath.Base(path))
	if err != nil {
		return fmt.Errorf("ingest.export: %w", err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("ingest.export: %w", err)
	}
	return nil
}
