// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"bytes"
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/serjvanilla/go-overpass"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/models"
)

func sampleCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	add := func(g orb.Geometry, name, typ string, extra map[string]any) {
		f := geojson.NewFeature(g)
		f.Properties[PropName] = name
		f.Properties[PropType] = typ
		f.Properties[PropDescription] = name + " description"
		for k, v := range extra {
			f.Properties[k] = v
		}
		fc.Append(f)
	}
	add(orb.Point{12.4922, 41.8902}, "Colosseum", "monument", map[string]any{"built": "70-80 AD"})
	add(orb.LineString{{12.3267, 45.4408}, {12.3350, 45.4300}, {12.3450, 45.4200}}, "Venice Grand Canal", "waterway", nil)
	add(orb.Polygon{{{12.4459, 41.9022}, {12.4580, 41.9022}, {12.4580, 41.9094}, {12.4459, 41.9094}, {12.4459, 41.9022}}},
		"Vatican City", "city-state", map[string]any{"area": "0.17 sq mi"})
	add(orb.Point{14.4848, 40.7489}, "Pompeii", "archaeological_site", nil)
	return fc
}

func centroidsByName(t *testing.T, fc *geojson.FeatureCollection) map[string]orb.Point {
	t.Helper()
	feats, err := Load(fc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := make(map[string]orb.Point, len(feats))
	for _, f := range feats {
		out[f.Name] = f.Centroid
	}
	return out
}

func TestLoad(t *testing.T) {
	feats, err := Load(sampleCollection())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(feats) != 4 {
		t.Fatalf("len = %d, want 4", len(feats))
	}

	colosseum := feats[0]
	if colosseum.Name != "Colosseum" || colosseum.Type != "monument" {
		t.Errorf("fields not lifted: %+v", colosseum)
	}
	if colosseum.Lon() != 12.4922 || colosseum.Lat() != 41.8902 {
		t.Errorf("point centroid = %v", colosseum.Centroid)
	}
	if colosseum.AreaKm2 != 0 || colosseum.PerimeterKm != 0 {
		t.Errorf("point area/perimeter = %v/%v, want 0/0", colosseum.AreaKm2, colosseum.PerimeterKm)
	}
	if colosseum.Properties["built"] != "70-80 AD" {
		t.Errorf("extra property lost: %v", colosseum.Properties)
	}
	if colosseum.ID != "0" {
		t.Errorf("ID = %q, want positional id 0", colosseum.ID)
	}

	canal := feats[1]
	if canal.AreaKm2 != 0 || canal.PerimeterKm <= 0 {
		t.Errorf("line area/perimeter = %v/%v", canal.AreaKm2, canal.PerimeterKm)
	}

	vatican := feats[2]
	wantArea := 0.0121 * 0.0072 * 111 * 111
	if math.Abs(vatican.AreaKm2-wantArea) > 1e-6 {
		t.Errorf("polygon area = %v, want %v", vatican.AreaKm2, wantArea)
	}
	wantPerim := 2 * (0.0121 + 0.0072) * 111
	if math.Abs(vatican.PerimeterKm-wantPerim) > 1e-6 {
		t.Errorf("polygon perimeter = %v, want %v", vatican.PerimeterKm, wantPerim)
	}
}

func TestLoadRejectsBadGeometry(t *testing.T) {
	tests := []struct {
		name string
		geom orb.Geometry
	}{
		{"null geometry", nil},
		{"empty linestring", orb.LineString{}},
		{"latitude out of range", orb.Point{12, 95}},
		{"open ring", orb.Polygon{{{0, 0}, {1, 0}, {1, 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := sampleCollection()
			fc.Append(geojson.NewFeature(tt.geom))
			_, err := Load(fc)
			if !errors.Is(err, geoerr.ErrDataFormat) {
				t.Fatalf("Load() error = %v, want data format error", err)
			}
			if !strings.Contains(err.Error(), "feature 4") {
				t.Errorf("error should name the feature index: %v", err)
			}
		})
	}

	if _, err := Load(nil); !errors.Is(err, geoerr.ErrDataFormat) {
		t.Errorf("Load(nil) error = %v", err)
	}
}

func TestLoadEmpty(t *testing.T) {
	feats, err := Load(geojson.NewFeatureCollection())
	if err != nil || len(feats) != 0 {
		t.Fatalf("Load(empty) = %v, %v", feats, err)
	}
}

func TestFromLandmarks(t *testing.T) {
	rows := []models.Landmark{
		{ID: 7, Name: "Colosseum", LandmarkType: "monument", Geometry: geojson.NewGeometry(orb.Point{12.4922, 41.8902}),
			Properties: map[string]any{"capacity": "50,000 spectators"}},
	}
	feats, err := FromLandmarks(rows)
	if err != nil {
		t.Fatalf("FromLandmarks: %v", err)
	}
	if feats[0].ID != "7" || feats[0].Type != "monument" || feats[0].Properties["capacity"] != "50,000 spectators" {
		t.Errorf("feature = %+v", feats[0])
	}
}

func TestDecodeGeoJSON(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    int
		wantErr bool
	}{
		{"collection", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[12.49,41.89]},"properties":{"name":"A"}}]}`, 1, false},
		{"single feature", `{"type":"Feature","geometry":{"type":"Point","coordinates":[12.49,41.89]},"properties":{}}`, 1, false},
		{"bare geometry", `{"type":"LineString","coordinates":[[1,1],[2,2]]}`, 1, false},
		{"not json", `nope`, 0, true},
		{"no type", `{"features":[]}`, 0, true},
		{"unknown type", `{"type":"Topology"}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := DecodeGeoJSON([]byte(tt.doc))
			if tt.wantErr {
				if !errors.Is(err, geoerr.ErrDataFormat) {
					t.Fatalf("error = %v, want data format error", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeGeoJSON: %v", err)
			}
			if len(fc.Features) != tt.want {
				t.Errorf("features = %d, want %d", len(fc.Features), tt.want)
			}
		})
	}
}

func TestReadCSV(t *testing.T) {
	t.Run("lat lon columns", func(t *testing.T) {
		doc := "name,lat,lon,visitors\nColosseum,41.8902,12.4922,7600000\nPompeii,40.7489,14.4848,\n"
		fc, err := ReadCSV(strings.NewReader(doc), Source{Format: FormatCSV})
		if err != nil {
			t.Fatalf("ReadCSV: %v", err)
		}
		if len(fc.Features) != 2 {
			t.Fatalf("features = %d", len(fc.Features))
		}
		p := fc.Features[0].Geometry.(orb.Point)
		if p.Lon() != 12.4922 || p.Lat() != 41.8902 {
			t.Errorf("point = %v", p)
		}
		if fc.Features[0].Properties["visitors"] != float64(7600000) {
			t.Errorf("numeric property = %#v", fc.Features[0].Properties["visitors"])
		}
		if _, ok := fc.Features[1].Properties["visitors"]; ok {
			t.Error("empty cell should not become a property")
		}
	})

	t.Run("custom columns", func(t *testing.T) {
		doc := "title,Y_COORD,X_COORD\nDuomo,43.7731,11.2558\n"
		src := Source{Format: FormatCSV, LatColumn: "y_coord", LonColumn: "x_coord"}
		fc, err := ReadCSV(strings.NewReader(doc), src)
		if err != nil {
			t.Fatalf("ReadCSV: %v", err)
		}
		if p := fc.Features[0].Geometry.(orb.Point); p.Lat() != 43.7731 {
			t.Errorf("point = %v", p)
		}
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("name,city\nA,Rome\n"), Source{Format: FormatCSV})
		if !errors.Is(err, geoerr.ErrDataFormat) {
			t.Fatalf("error = %v, want data format error", err)
		}
	})

	t.Run("bad cell names the row", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("name,lat,lon\nA,41.9,12.5\nB,north,12.5\n"), Source{Format: FormatCSV})
		if !errors.Is(err, geoerr.ErrDataFormat) || !strings.Contains(err.Error(), "row 3") {
			t.Fatalf("error = %v, want data format error naming row 3", err)
		}
	})
}

func TestReadKML(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Folder>
      <Placemark>
        <name>Leaning Tower of Pisa</name>
        <ExtendedData><Data name="landmark_type"><value>monument</value></Data></ExtendedData>
        <Point><coordinates>10.3966,43.7230,0</coordinates></Point>
      </Placemark>
    </Folder>
    <Placemark>
      <name>Lake Como</name>
      <Polygon><outerBoundaryIs><LinearRing>
        <coordinates>9.2,46.0 9.3,46.0 9.3,46.1 9.2,46.1 9.2,46.0</coordinates>
      </LinearRing></outerBoundaryIs></Polygon>
    </Placemark>
  </Document>
</kml>`
	fc, err := ReadKML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadKML: %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2", len(fc.Features))
	}
	if fc.Features[0].Properties[PropLandmarkType] != "monument" {
		t.Errorf("extended data lost: %v", fc.Features[0].Properties)
	}
	if _, ok := fc.Features[1].Geometry.(orb.Polygon); !ok {
		t.Errorf("geometry = %T, want polygon", fc.Features[1].Geometry)
	}

	if _, err := ReadKML(strings.NewReader(`<gpx></gpx>`)); !errors.Is(err, geoerr.ErrDataFormat) {
		t.Errorf("non-KML error = %v", err)
	}
}

// TestExportRoundTrip checks that export followed by import keeps the
// feature count and every centroid.
func TestExportRoundTrip(t *testing.T) {
	src := sampleCollection()
	want := centroidsByName(t, src)

	formats := []Format{FormatGeoJSON, FormatKML, FormatCSV, FormatExcel}
	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Export(&buf, src, format); err != nil {
				t.Fatalf("Export: %v", err)
			}
			back, err := ReadBytes(buf.Bytes(), Source{Format: format})
			if err != nil {
				t.Fatalf("re-import: %v", err)
			}
			if len(back.Features) != len(src.Features) {
				t.Fatalf("features = %d, want %d", len(back.Features), len(src.Features))
			}
			assertCentroids(t, want, centroidsByName(t, back))
		})
	}

	t.Run("shapefile", func(t *testing.T) {
		dir := t.TempDir()
		paths, err := ExportShapefile(dir, "landmarks", src)
		if err != nil {
			t.Fatalf("ExportShapefile: %v", err)
		}
		if len(paths) != 3 {
			t.Fatalf("wrote %v, want point, line and polygon files", paths)
		}
		merged := geojson.NewFeatureCollection()
		for _, p := range paths {
			if _, err := os.Stat(strings.TrimSuffix(p, ".shp") + ".prj"); err != nil {
				t.Errorf("missing .prj for %s", filepath.Base(p))
			}
			fc, err := ReadShapefile(p)
			if err != nil {
				t.Fatalf("ReadShapefile(%s): %v", filepath.Base(p), err)
			}
			merged.Features = append(merged.Features, fc.Features...)
		}
		if len(merged.Features) != len(src.Features) {
			t.Fatalf("features = %d, want %d", len(merged.Features), len(src.Features))
		}
		got := centroidsByName(t, merged)
		assertCentroids(t, want, got)
	})
}

func assertCentroids(t *testing.T, want, got map[string]orb.Point) {
	t.Helper()
	for name, w := range want {
		g, ok := got[name]
		if !ok {
			t.Errorf("feature %q missing after round trip", name)
			continue
		}
		if math.Abs(g[0]-w[0]) > 1e-9 || math.Abs(g[1]-w[1]) > 1e-9 {
			t.Errorf("%s centroid = %v, want %v", name, g, w)
		}
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	err := Export(&bytes.Buffer{}, sampleCollection(), Format("gpx"))
	if !errors.Is(err, geoerr.ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if _, err := ParseFormat("gpx"); !errors.Is(err, geoerr.ErrValidation) {
		t.Fatalf("ParseFormat error = %v", err)
	}
}

func TestClean(t *testing.T) {
	fc := sampleCollection()
	dup := geojson.NewFeature(orb.Point{12.4922, 41.8902})
	dup.Properties[PropName] = "Colosseo"
	fc.Append(dup)
	fc.Append(geojson.NewFeature(nil))
	fc.Append(geojson.NewFeature(orb.Point{500, 41}))
	open := geojson.NewFeature(orb.Polygon{{{9.2, 46.0}, {9.3, 46.0}, {9.3, 46.1}, {9.2, 46.1}}})
	open.Properties[PropName] = "  Lago di Como  "
	fc.Append(open)

	out, rep := Clean(fc)
	if rep.Input != 8 || rep.Output != 5 {
		t.Errorf("report = %+v, want 8 in, 5 out", rep)
	}
	if rep.DroppedNull != 1 || rep.DroppedInvalid != 1 || rep.DroppedDuplicates != 1 || rep.RepairedRings != 1 {
		t.Errorf("report counts = %+v", rep)
	}
	last := out.Features[len(out.Features)-1]
	if last.Properties[PropName] != "Lago di Como" {
		t.Errorf("name not trimmed: %q", last.Properties[PropName])
	}
	if last.Properties[PropLandmarkType] != "Unknown" || last.Properties[PropDescription] != "Unknown" {
		t.Errorf("defaults not filled: %v", last.Properties)
	}
	if _, err := Load(out); err != nil {
		t.Errorf("cleaned collection should load: %v", err)
	}
	// The input must be untouched.
	if fc.Features[7].Geometry.(orb.Polygon)[0].Closed() {
		t.Error("Clean modified its input")
	}
}

func TestValidateQuality(t *testing.T) {
	t.Run("clean data", func(t *testing.T) {
		rep := Validate(sampleCollection())
		if rep.QualityScore != 100 || rep.QualityGrade != "A" {
			t.Errorf("score = %v grade = %s", rep.QualityScore, rep.QualityGrade)
		}
		if rep.OutsideItaly != 0 || rep.GeometryTypes["Point"] != 2 {
			t.Errorf("report = %+v", rep)
		}
	})

	t.Run("problems", func(t *testing.T) {
		fc := sampleCollection()
		fc.Append(geojson.NewFeature(nil))
		fc.Append(geojson.NewFeature(orb.Point{12.4922, 41.8902}))
		fc.Append(geojson.NewFeature(orb.Point{-0.1276, 51.5072}))
		rep := Validate(fc)
		if rep.NullGeometries != 1 || rep.DuplicateGeometries != 1 || rep.OutsideItaly != 1 {
			t.Errorf("report = %+v", rep)
		}
		// 40*6/7 + 20 (no empty) = 54.3
		if rep.QualityGrade != "F" {
			t.Errorf("grade = %s (score %v), want F", rep.QualityGrade, rep.QualityScore)
		}
		if rep.MissingValues[PropName] != 3 {
			t.Errorf("missing names = %d, want 3", rep.MissingValues[PropName])
		}
	})

	grades := map[float64]string{95: "A", 90: "A", 85: "B", 70: "C", 60: "D", 59.9: "F"}
	for score, want := range grades {
		if got := qualityGrade(score); got != want {
			t.Errorf("qualityGrade(%v) = %s, want %s", score, got, want)
		}
	}
}

func TestTransform(t *testing.T) {
	fc := sampleCollection()

	tests := []struct {
		op    string
		check func(t *testing.T, out *geojson.FeatureCollection)
	}{
		{OpCentroid, func(t *testing.T, out *geojson.FeatureCollection) {
			for _, f := range out.Features {
				if _, ok := f.Geometry.(orb.Point); !ok {
					t.Errorf("%v: %T, want point", f.Properties[PropName], f.Geometry)
				}
			}
		}},
		{OpEnvelope, func(t *testing.T, out *geojson.FeatureCollection) {
			if _, ok := out.Features[2].Geometry.(orb.Polygon); !ok {
				t.Errorf("envelope = %T", out.Features[2].Geometry)
			}
			if _, ok := out.Features[0].Geometry.(orb.Point); !ok {
				t.Errorf("point envelope = %T", out.Features[0].Geometry)
			}
		}},
		{OpConvexHull, func(t *testing.T, out *geojson.FeatureCollection) {
			if _, ok := out.Features[1].Geometry.(orb.Polygon); !ok {
				t.Errorf("hull of a bent line = %T, want polygon", out.Features[1].Geometry)
			}
		}},
		{OpSimplify, func(t *testing.T, out *geojson.FeatureCollection) {
			if out.Features[0].Properties[PropName] != "Colosseum" {
				t.Error("properties not carried over")
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			out, err := Transform(fc, tt.op, 0)
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if len(out.Features) != len(fc.Features) {
				t.Fatalf("features = %d", len(out.Features))
			}
			tt.check(t, out)
		})
	}

	if _, err := Transform(fc, "buffer", 0); !errors.Is(err, geoerr.ErrValidation) {
		t.Errorf("unknown op error = %v", err)
	}
}

func TestImporterPaths(t *testing.T) {
	dir := t.TempDir()
	doc := `{"type":"Feature","geometry":{"type":"Point","coordinates":[12.49,41.89]},"properties":{"name":"A"}}`
	if err := os.WriteFile(filepath.Join(dir, "one.geojson"), []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.AllowedDir = dir
	imp := NewImporter(cfg)

	fc, err := imp.Import(context.Background(), Source{Format: FormatGeoJSON, Path: "one.geojson"})
	if err != nil || len(fc.Features) != 1 {
		t.Fatalf("Import = %v, %v", fc, err)
	}

	_, err = imp.Import(context.Background(), Source{Format: FormatGeoJSON, Path: "../etc/passwd"})
	if !errors.Is(err, geoerr.ErrValidation) {
		t.Errorf("escape error = %v, want validation error", err)
	}

	_, err = imp.Import(context.Background(), Source{Format: FormatGeoJSON})
	if !errors.Is(err, geoerr.ErrValidation) {
		t.Errorf("empty source error = %v", err)
	}
}

func TestImporterFetch(t *testing.T) {
	body := "name,lat,lon\nColosseum,41.8902,12.4922\n"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/big" {
			_, _ = w.Write(bytes.Repeat([]byte("x"), 2048))
			return
		}
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.MaxDownloadBytes = 1024
	cfg.RequestsPerSecond = 1000
	imp := NewImporter(cfg)
	ctx := context.Background()

	fc, err := imp.Import(ctx, Source{Format: FormatCSV, URL: srv.URL + "/landmarks.csv"})
	if err != nil {
		t.Fatalf("Import(url): %v", err)
	}
	if len(fc.Features) != 1 {
		t.Errorf("features = %d", len(fc.Features))
	}

	if _, err := imp.Fetch(ctx, srv.URL+"/big"); !errors.Is(err, geoerr.ErrValidation) {
		t.Errorf("oversized download error = %v", err)
	}
	if _, err := imp.Fetch(ctx, srv.URL+"/missing"); err == nil {
		t.Error("404 should fail")
	}
	if _, err := imp.Fetch(ctx, "ftp://example.com/x"); !errors.Is(err, geoerr.ErrValidation) {
		t.Errorf("bad scheme error = %v", err)
	}
}

type fakeOverpass struct {
	result overpass.Result
	query  string
}

func (f *fakeOverpass) Query(q string) (overpass.Result, error) {
	f.query = q
	return f.result, nil
}

func TestImportOverpass(t *testing.T) {
	node := func(id int64, lat, lon float64, tags map[string]string) *overpass.Node {
		n := &overpass.Node{Lat: lat, Lon: lon}
		n.ID = id
		n.Tags = tags
		return n
	}
	fake := &fakeOverpass{result: overpass.Result{Nodes: map[int64]*overpass.Node{
		20: node(20, 41.8902, 12.4922, map[string]string{"name": "Colosseo", "historic": "monument"}),
		10: node(10, 41.8986, 12.4769, map[string]string{"name": "Pantheon", "tourism": "attraction"}),
		30: node(30, 41.9, 12.5, map[string]string{"tourism": "viewpoint"}),
	}}}

	imp := NewImporter(DefaultConfig())
	imp.SetOverpass(fake)

	fc, err := imp.Import(context.Background(), Source{Format: FormatOverpass, BBox: []float64{41.8, 12.4, 42.0, 12.6}})
	if err != nil {
		t.Fatalf("Import(overpass): %v", err)
	}
	if len(fc.Features) != 2 {
		t.Fatalf("features = %d, want 2 named nodes", len(fc.Features))
	}
	if fc.Features[0].Properties[PropName] != "Pantheon" || fc.Features[0].Properties[PropLandmarkType] != "attraction" {
		t.Errorf("first feature = %v", fc.Features[0].Properties)
	}
	if fc.Features[1].Properties[PropLandmarkType] != "monument" {
		t.Errorf("historic tag not used: %v", fc.Features[1].Properties)
	}
	if !strings.Contains(fake.query, "41.800000,12.400000,42.000000,12.600000") {
		t.Errorf("query bbox wrong:\n%s", fake.query)
	}

	_, err = imp.Import(context.Background(), Source{Format: FormatOverpass, BBox: []float64{42, 12, 41, 13}})
	if !errors.Is(err, geoerr.ErrValidation) {
		t.Errorf("inverted bbox error = %v", err)
	}
}

func TestSummarize(t *testing.T) {
	feats, err := Load(sampleCollection())
	if err != nil {
		t.Fatal(err)
	}
	s := Summarize(feats)
	if s.FeatureCount != 4 || s.GeometryTypes["Point"] != 2 || s.GeometryTypes["Polygon"] != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.Bounds == nil || s.Bounds.MinLat != 40.7489 || s.Bounds.MaxLat != 45.4408 {
		t.Errorf("bounds = %+v", s.Bounds)
	}
	if s.TotalLengthKm <= 0 || s.TotalAreaKm2 <= 0 {
		t.Errorf("totals = %v / %v", s.TotalLengthKm, s.TotalAreaKm2)
	}
}
