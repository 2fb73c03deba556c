// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/xuri/excelize/v2"

	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
)

var (
	latCandidates = []string{"latitude", "lat", "y"}
	lonCandidates = []string{"longitude", "lon", "lng", "long", "x"}
	wktCandidates = []string{"wkt", "geometry"}
)

// ReadCSV reads one feature per row. Geometry comes from the latitude and
// longitude columns, or from a WKT column when there are none.
func ReadCSV(r io.Reader, src Source) (*geojson.FeatureCollection, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, geoerr.DataFormat("ingest.csv", "%v", err)
	}
	return rowsToCollection("ingest.csv", rows, src)
}

// ReadExcel reads the first sheet (or src.Sheet) of a workbook the same
// way ReadCSV reads a file.
func ReadExcel(r io.Reader, src Source) (*geojson.FeatureCollection, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, geoerr.DataFormat("ingest.excel", "open workbook: %v", err)
	}
	defer f.Close()
	return readWorkbook(f, src)
}

// ReadExcelFile opens a workbook from disk.
func ReadExcelFile(path string, src Source) (*geojson.FeatureCollection, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, geoerr.DataFormat("ingest.excel", "open workbook: %v", err)
	}
	defer f.Close()
	return readWorkbook(f, src)
}

func readWorkbook(f *excelize.File, src Source) (*geojson.FeatureCollection, error) {
	sheet := src.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, geoerr.DataFormat("ingest.excel", "workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, geoerr.DataFormat("ingest.excel", "sheet %q: %v", sheet, err)
	}
	return rowsToCollection("ingest.excel", rows, src)
}

func rowsToCollection(op string, rows [][]string, src Source) (*geojson.FeatureCollection, error) {
	if len(rows) == 0 {
		return nil, geoerr.DataFormat(op, "no header row")
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	latIdx := columnIndex(header, src.LatColumn, latCandidates)
	lonIdx := columnIndex(header, src.LonColumn, lonCandidates)
	wktIdx := columnIndex(header, src.WKTColumn, wktCandidates)
	useWKT := src.WKTColumn != "" || latIdx < 0 || lonIdx < 0
	if useWKT && wktIdx < 0 {
		return nil, geoerr.DataFormat(op, "need latitude/longitude columns or a WKT column, got %v", header)
	}

	fc := geojson.NewFeatureCollection()
	for n, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		line := n + 2

		var g orb.Geometry
		if useWKT {
			parsed, err := geo.ParseWKT(cell(row, wktIdx))
			if err != nil {
				return nil, geoerr.DataFormat(op, "row %d: bad WKT: %v", line, err)
			}
			g = parsed
		} else {
			lat, err := strconv.ParseFloat(cell(row, latIdx), 64)
			if err != nil {
				return nil, geoerr.DataFormat(op, "row %d: bad latitude %q", line, cell(row, latIdx))
			}
			lon, err := strconv.ParseFloat(cell(row, lonIdx), 64)
			if err != nil {
				return nil, geoerr.DataFormat(op, "row %d: bad longitude %q", line, cell(row, lonIdx))
			}
			g = orb.Point{lon, lat}
		}

		f := geojson.NewFeature(g)
		for i, h := range header {
			if h == "" || i == wktIdx || (!useWKT && (i == latIdx || i == lonIdx)) {
				continue
			}
			v := cell(row, i)
			if v == "" {
				continue
			}
			f.Properties[h] = scalar(v)
		}
		fc.Append(f)
	}
	return fc, nil
}

func columnIndex(header []string, explicit string, candidates []string) int {
	if explicit != "" {
		for i, h := range header {
			if strings.EqualFold(h, explicit) {
				return i
			}
		}
		return -1
	}
	for _, c := range candidates {
		for i, h := range header {
			if strings.EqualFold(h, c) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// scalar keeps numbers numeric so they survive into JSON properties as such.
func scalar(v string) any {
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	switch strings.ToLower(v) {
	case "true":
		return true
	case "false":
		return false
	}
	return v
}

var tabularBase = []string{PropName, PropDescription, PropLandmarkType, "latitude", "longitude", "wkt"}

// tableRows flattens fc into a header and rows. Latitude and longitude are
// the feature centroid; the full geometry is kept as WKT.
func tableRows(fc *geojson.FeatureCollection) ([]string, [][]string) {
	extra := propertyKeys(fc, PropName, PropDescription, PropLandmarkType, PropType, "latitude", "longitude", "wkt")
	header := append(append([]string{}, tabularBase...), extra...)

	rows := make([][]string, 0, len(fc.Features))
	for _, f := range fc.Features {
		var lat, lon, wktText string
		if f.Geometry != nil && !geo.IsEmpty(f.Geometry) {
			c := geo.Derive(f.Geometry).Centroid
			lat = strconv.FormatFloat(c[1], 'f', -1, 64)
			lon = strconv.FormatFloat(c[0], 'f', -1, 64)
			wktText = geo.ToWKT(f.Geometry)
		}
		typ := stringProp(f.Properties, PropLandmarkType)
		if typ == "" {
			typ = stringProp(f.Properties, PropType)
		}
		row := []string{
			stringProp(f.Properties, PropName),
			stringProp(f.Properties, PropDescription),
			typ, lat, lon, wktText,
		}
		for _, k := range extra {
			row = append(row, stringProp(f.Properties, k))
		}
		rows = append(rows, row)
	}
	return header, rows
}

// WriteCSV encodes fc as CSV with a header row.
func WriteCSV(w io.Writer, fc *geojson.FeatureCollection) error {
	header, rows := tableRows(fc)
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteExcel encodes fc as a single-sheet workbook.
func WriteExcel(w io.Writer, fc *geojson.FeatureCollection) (err error) {
	const sheet = "Landmarks"
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("ingest.excel: %w", err)
	}

	header, rows := tableRows(fc)
	if err := setRow(f, sheet, 1, header); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("ingest.excel: write: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, values []string) error {
	cellName, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := f.SetSheetRow(sheet, cellName, &row); err != nil {
		return fmt.Errorf("ingest.excel: row %d: %w", n, err)
	}
	return nil
}
