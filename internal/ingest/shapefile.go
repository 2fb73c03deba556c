// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
)

// wgs84PRJ is written next to every exported .shp.
const wgs84PRJ = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

type shapeReader interface {
	Next() bool
	Shape() (int, shp.Shape)
	Attribute(n int) string
	Fields() []shp.Field
	Err() error
	Close() error
}

// ReadShapefile reads a .shp (with its .dbf next to it) or a .zip holding
// exactly one shapefile. DBF columns become string properties; lower-case
// NAME/TYPE/DESC columns map onto the landmark fields.
func ReadShapefile(path string) (*geojson.FeatureCollection, error) {
	var (
		r   shapeReader
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		r, err = shp.OpenZip(path)
	} else {
		r, err = shp.Open(path)
	}
	if err != nil {
		return nil, geoerr.DataFormat("ingest.shapefile", "open %s: %v", filepath.Base(path), err)
	}
	defer r.Close()

	fields := r.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(f.String())
	}

	fc := geojson.NewFeatureCollection()
	for r.Next() {
		n, shape := r.Shape()
		g, err := shapeGeometry(shape)
		if err != nil {
			return nil, geoerr.DataFormat("ingest.shapefile", "record %d: %v", n, err)
		}
		f := geojson.NewFeature(g)
		for i, name := range names {
			v := strings.TrimRight(r.Attribute(i), "\x00 ")
			if v == "" {
				continue
			}
			switch name {
			case "desc":
				name = PropDescription
			case "type":
				name = PropLandmarkType
			case "props":
				var extra map[string]any
				if json.Unmarshal([]byte(v), &extra) == nil {
					for k, ev := range extra {
						f.Properties[k] = ev
					}
					continue
				}
			}
			f.Properties[name] = v
		}
		fc.Append(f)
	}
	if err := r.Err(); err != nil {
		return nil, geoerr.DataFormat("ingest.shapefile", "%v", err)
	}
	return fc, nil
}

func readShapefileZipBytes(data []byte) (*geojson.FeatureCollection, error) {
	tmp, err := os.CreateTemp("", "geoexplorer-*.zip")
	if err != nil {
		return nil, fmt.Errorf("ingest.shapefile: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("ingest.shapefile: temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("ingest.shapefile: temp file: %w", err)
	}
	return ReadShapefile(tmp.Name())
}

func shapeGeometry(s shp.Shape) (orb.Geometry, error) {
	switch v := s.(type) {
	case *shp.Point:
		return orb.Point{v.X, v.Y}, nil
	case *shp.PointZ:
		return orb.Point{v.X, v.Y}, nil
	case *shp.MultiPoint:
		return multiPoint(v.Points), nil
	case *shp.MultiPointZ:
		return multiPoint(v.Points), nil
	case *shp.PolyLine:
		return lineGeometry(splitParts(v.Parts, v.Points)), nil
	case *shp.PolyLineZ:
		return lineGeometry(splitParts(v.Parts, v.Points)), nil
	case *shp.Polygon:
		return polygonGeometry(splitParts(v.Parts, v.Points)), nil
	case *shp.PolygonZ:
		return polygonGeometry(splitParts(v.Parts, v.Points)), nil
	case *shp.Null, nil:
		return nil, fmt.Errorf("null shape")
	}
	return nil, fmt.Errorf("unsupported shape %T", s)
}

func multiPoint(pts []shp.Point) orb.MultiPoint {
	mp := make(orb.MultiPoint, len(pts))
	for i, p := range pts {
		mp[i] = orb.Point{p.X, p.Y}
	}
	return mp
}

func splitParts(parts []int32, pts []shp.Point) [][]orb.Point {
	out := make([][]orb.Point, 0, len(parts))
	for i, start := range parts {
		end := int32(len(pts))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start > end || int(end) > len(pts) {
			continue
		}
		part := make([]orb.Point, 0, end-start)
		for _, p := range pts[start:end] {
			part = append(part, orb.Point{p.X, p.Y})
		}
		out = append(out, part)
	}
	return out
}

func lineGeometry(parts [][]orb.Point) orb.Geometry {
	if len(parts) == 1 {
		return orb.LineString(parts[0])
	}
	mls := make(orb.MultiLineString, len(parts))
	for i, p := range parts {
		mls[i] = orb.LineString(p)
	}
	return mls
}

// polygonGeometry groups rings into polygons. Shapefile outer rings run
// clockwise and holes counter-clockwise; each hole is attached to the outer
// ring that precedes it.
func polygonGeometry(parts [][]orb.Point) orb.Geometry {
	var mp orb.MultiPolygon
	for _, p := range parts {
		ring := orb.Ring(p)
		outer := ring.Orientation() == orb.CW
		// GeoJSON winding is the reverse of the shapefile one.
		ring.Reverse()
		if outer || len(mp) == 0 {
			mp = append(mp, orb.Polygon{ring})
			continue
		}
		last := len(mp) - 1
		mp[last] = append(mp[last], ring)
	}
	if len(mp) == 1 {
		return mp[0]
	}
	return mp
}

// shapefile families; GeoJSON types map onto exactly one of them.
var shapeFamilies = []struct {
	suffix string
	typ    shp.ShapeType
}{
	{"point", shp.POINT},
	{"multipoint", shp.MULTIPOINT},
	{"line", shp.POLYLINE},
	{"polygon", shp.POLYGON},
}

func shapeFamily(g orb.Geometry) string {
	switch g.(type) {
	case orb.Point:
		return "point"
	case orb.MultiPoint:
		return "multipoint"
	case orb.LineString, orb.MultiLineString:
		return "line"
	case orb.Polygon, orb.MultiPolygon:
		return "polygon"
	}
	return ""
}

// WriteShapefile writes fc as one shapefile per geometry family under dir,
// named <base>_<family>.shp, and returns the .shp paths it created.
// Features of unsupported types are skipped.
func WriteShapefile(dir, base string, fc *geojson.FeatureCollection) ([]string, error) {
	groups := make(map[string][]*geojson.Feature)
	for _, f := range fc.Features {
		if fam := shapeFamily(f.Geometry); fam != "" {
			groups[fam] = append(groups[fam], f)
		}
	}

	var written []string
	for _, fam := range shapeFamilies {
		feats := groups[fam.suffix]
		if len(feats) == 0 {
			continue
		}
		path := filepath.Join(dir, base+"_"+fam.suffix+".shp")
		if err := writeShapeGroup(path, fam.typ, feats); err != nil {
			return written, err
		}
		prj := strings.TrimSuffix(path, ".shp") + ".prj"
		if err := os.WriteFile(prj, []byte(wgs84PRJ), 0o600); err != nil {
			return written, fmt.Errorf("ingest.shapefile: write prj: %w", err)
		}
		written = append(written, path)
	}
	return written, nil
}

var shapeFields = []shp.Field{
	shp.StringField("NAME", 254),
	shp.StringField("TYPE", 80),
	shp.StringField("DESC", 254),
	shp.StringField("PROPS", 254),
}

func writeShapeGroup(path string, typ shp.ShapeType, feats []*geojson.Feature) error {
	w, err := shp.Create(path, typ)
	if err != nil {
		return fmt.Errorf("ingest.shapefile: create %s: %w", filepath.Base(path), err)
	}
	defer w.Close()

	if err := w.SetFields(shapeFields); err != nil {
		return fmt.Errorf("ingest.shapefile: %w", err)
	}

	for _, f := range feats {
		row := int(w.Write(toShape(f.Geometry)))

		extra := make(map[string]any)
		for k, v := range f.Properties {
			switch k {
			case PropName, PropType, PropLandmarkType, PropDescription:
				continue
			}
			extra[k] = v
		}
		props := ""
		if len(extra) > 0 {
			if b, err := json.Marshal(extra); err == nil {
				props = string(b)
			}
		}
		typ := stringProp(f.Properties, PropLandmarkType)
		if typ == "" {
			typ = stringProp(f.Properties, PropType)
		}

		values := []string{stringProp(f.Properties, PropName), typ, stringProp(f.Properties, PropDescription), props}
		for i, v := range values {
			if err := w.WriteAttribute(row, i, truncateBytes(v, int(shapeFields[i].Size))); err != nil {
				return fmt.Errorf("ingest.shapefile: row %d: %w", row, err)
			}
		}
	}
	return nil
}

func toShape(g orb.Geometry) shp.Shape {
	switch v := g.(type) {
	case orb.Point:
		return &shp.Point{X: v[0], Y: v[1]}
	case orb.MultiPoint:
		pts := toShpPoints(v)
		return &shp.MultiPoint{Box: shp.BBoxFromPoints(pts), NumPoints: int32(len(pts)), Points: pts}
	case orb.LineString:
		return shp.NewPolyLine([][]shp.Point{toShpPoints(v)})
	case orb.MultiLineString:
		parts := make([][]shp.Point, len(v))
		for i, ls := range v {
			parts[i] = toShpPoints(ls)
		}
		return shp.NewPolyLine(parts)
	case orb.Polygon:
		poly := shp.Polygon(*shp.NewPolyLine(polygonParts(v, nil)))
		return &poly
	case orb.MultiPolygon:
		var parts [][]shp.Point
		for _, p := range v {
			parts = polygonParts(p, parts)
		}
		poly := shp.Polygon(*shp.NewPolyLine(parts))
		return &poly
	}
	return &shp.Null{}
}

// polygonParts appends the rings of p with shapefile winding: outer ring
// clockwise, holes counter-clockwise.
func polygonParts(p orb.Polygon, parts [][]shp.Point) [][]shp.Point {
	for i, r := range p {
		ring := r.Clone()
		want := orb.CCW
		if i == 0 {
			want = orb.CW
		}
		if ring.Orientation() != want {
			ring.Reverse()
		}
		parts = append(parts, toShpPoints(ring))
	}
	return parts
}

func toShpPoints[T ~[]orb.Point](pts T) []shp.Point {
	out := make([]shp.Point, len(pts))
	for i, p := range pts {
		out[i] = shp.Point{X: p[0], Y: p[1]}
	}
	return out
}

func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for !utf8.ValidString(s) && len(s) > 0 {
		s = s[:len(s)-1]
	}
	return s
}
