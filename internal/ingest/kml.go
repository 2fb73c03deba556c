// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ingest

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
)

type kmlPlacemark struct {
	Name          string       `xml:"name"`
	Description   string       `xml:"description"`
	ExtendedData  kmlExtended  `xml:"ExtendedData"`
	Point         *kmlCoords   `xml:"Point"`
	LineString    *kmlCoords   `xml:"LineString"`
	Polygon       *kmlPolygon  `xml:"Polygon"`
	MultiGeometry *kmlMultiGeo `xml:"MultiGeometry"`
}

type kmlExtended struct {
	Data []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value"`
	} `xml:"Data"`
	SimpleData []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:",chardata"`
	} `xml:"SchemaData>SimpleData"`
}

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlCoords   `xml:"outerBoundaryIs>LinearRing"`
	Inner []kmlCoords `xml:"innerBoundaryIs>LinearRing"`
}

type kmlMultiGeo struct {
	Points   []kmlCoords  `xml:"Point"`
	Lines    []kmlCoords  `xml:"LineString"`
	Polygons []kmlPolygon `xml:"Polygon"`
}

// ReadKML extracts Placemarks at any depth of Document/Folder nesting.
func ReadKML(r io.Reader) (*geojson.FeatureCollection, error) {
	dec := xml.NewDecoder(r)
	fc := geojson.NewFeatureCollection()
	sawRoot := false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, geoerr.DataFormat("ingest.kml", "invalid XML: %v", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if se.Name.Local == "kml" {
			sawRoot = true
		}
		if se.Name.Local != "Placemark" {
			continue
		}

		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, geoerr.DataFormat("ingest.kml", "placemark %d: %v", len(fc.Features), err)
		}
		g, err := pm.geometry()
		if err != nil {
			return nil, geoerr.DataFormat("ingest.kml", "placemark %d: %v", len(fc.Features), err)
		}
		f := geojson.NewFeature(g)
		for _, d := range pm.ExtendedData.Data {
			f.Properties[d.Name] = strings.TrimSpace(d.Value)
		}
		for _, d := range pm.ExtendedData.SimpleData {
			f.Properties[d.Name] = strings.TrimSpace(d.Value)
		}
		if name := strings.TrimSpace(pm.Name); name != "" {
			f.Properties[PropName] = name
		}
		if desc := strings.TrimSpace(pm.Description); desc != "" {
			f.Properties[PropDescription] = desc
		}
		fc.Append(f)
	}

	if !sawRoot {
		return nil, geoerr.DataFormat("ingest.kml", "document has no kml root element")
	}
	return fc, nil
}

func (pm *kmlPlacemark) geometry() (orb.Geometry, error) {
	switch {
	case pm.Point != nil:
		pts, err := parseKMLCoords(pm.Point.Coordinates)
		if err != nil {
			return nil, err
		}
		if len(pts) != 1 {
			return nil, fmt.Errorf("point has %d coordinates", len(pts))
		}
		return pts[0], nil
	case pm.LineString != nil:
		pts, err := parseKMLCoords(pm.LineString.Coordinates)
		if err != nil {
			return nil, err
		}
		return orb.LineString(pts), nil
	case pm.Polygon != nil:
		return pm.Polygon.polygon()
	case pm.MultiGeometry != nil:
		return pm.MultiGeometry.geometry()
	}
	return nil, nil
}

func (p *kmlPolygon) polygon() (orb.Polygon, error) {
	outer, err := parseKMLCoords(p.Outer.Coordinates)
	if err != nil {
		return nil, err
	}
	poly := orb.Polygon{orb.Ring(outer)}
	for _, in := range p.Inner {
		pts, err := parseKMLCoords(in.Coordinates)
		if err != nil {
			return nil, err
		}
		poly = append(poly, orb.Ring(pts))
	}
	return poly, nil
}

// geometry collapses a MultiGeometry of one kind into the matching Multi*
// type and falls back to a Collection for mixed content.
func (m *kmlMultiGeo) geometry() (orb.Geometry, error) {
	var (
		mp  orb.MultiPoint
		mls orb.MultiLineString
		mpo orb.MultiPolygon
	)
	for _, c := range m.Points {
		pts, err := parseKMLCoords(c.Coordinates)
		if err != nil {
			return nil, err
		}
		mp = append(mp, pts...)
	}
	for _, c := range m.Lines {
		pts, err := parseKMLCoords(c.Coordinates)
		if err != nil {
			return nil, err
		}
		mls = append(mls, orb.LineString(pts))
	}
	for i := range m.Polygons {
		poly, err := m.Polygons[i].polygon()
		if err != nil {
			return nil, err
		}
		mpo = append(mpo, poly)
	}

	switch {
	case len(mls) == 0 && len(mpo) == 0:
		return mp, nil
	case len(mp) == 0 && len(mpo) == 0:
		return mls, nil
	case len(mp) == 0 && len(mls) == 0:
		return mpo, nil
	}
	var c orb.Collection
	if len(mp) > 0 {
		c = append(c, mp)
	}
	if len(mls) > 0 {
		c = append(c, mls)
	}
	if len(mpo) > 0 {
		c = append(c, mpo)
	}
	return c, nil
}

// parseKMLCoords parses "lon,lat[,alt]" tuples separated by whitespace.
func parseKMLCoords(s string) ([]orb.Point, error) {
	fields := strings.Fields(s)
	pts := make([]orb.Point, 0, len(fields))
	for _, tuple := range fields {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("bad coordinate tuple %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad longitude %q", parts[0])
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad latitude %q", parts[1])
		}
		pts = append(pts, orb.Point{lon, lat})
	}
	return pts, nil
}

// KML output document.
type kmlDocOut struct {
	XMLName  xml.Name `xml:"kml"`
	XMLNS    string   `xml:"xmlns,attr"`
	Document struct {
		Name       string            `xml:"name"`
		Placemarks []kmlPlacemarkOut `xml:"Placemark"`
	} `xml:"Document"`
}

type kmlPlacemarkOut struct {
	Name         string `xml:"name"`
	Description  string `xml:"description,omitempty"`
	ExtendedData *struct {
		Data []kmlDataOut `xml:"Data"`
	} `xml:"ExtendedData,omitempty"`
	Geometry any
}

type kmlDataOut struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

type kmlPointOut struct {
	XMLName     xml.Name `xml:"Point"`
	Coordinates string   `xml:"coordinates"`
}

type kmlLineOut struct {
	XMLName     xml.Name `xml:"LineString"`
	Coordinates string   `xml:"coordinates"`
}

type kmlRingOut struct {
	Coordinates string `xml:"LinearRing>coordinates"`
}

type kmlPolygonOut struct {
	XMLName xml.Name     `xml:"Polygon"`
	Outer   kmlRingOut   `xml:"outerBoundaryIs"`
	Inner   []kmlRingOut `xml:"innerBoundaryIs"`
}

type kmlMultiOut struct {
	XMLName xml.Name `xml:"MultiGeometry"`
	Parts   []any
}

// WriteKML encodes fc as a KML 2.2 document. Properties other than name and
// description go to ExtendedData.
func WriteKML(w io.Writer, name string, fc *geojson.FeatureCollection) error {
	doc := kmlDocOut{XMLNS: "http://www.opengis.net/kml/2.2"}
	doc.Document.Name = name

	for _, f := range fc.Features {
		pm := kmlPlacemarkOut{
			Name:        stringProp(f.Properties, PropName),
			Description: stringProp(f.Properties, PropDescription),
			Geometry:    kmlGeometry(f.Geometry),
		}
		keys := make([]string, 0, len(f.Properties))
		for k := range f.Properties {
			if k != PropName && k != PropDescription {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			pm.ExtendedData = &struct {
				Data []kmlDataOut `xml:"Data"`
			}{}
			for _, k := range keys {
				pm.ExtendedData.Data = append(pm.ExtendedData.Data, kmlDataOut{Name: k, Value: stringProp(f.Properties, k)})
			}
		}
		doc.Document.Placemarks = append(doc.Document.Placemarks, pm)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("ingest.kml: encode: %w", err)
	}
	return enc.Close()
}

func kmlGeometry(g orb.Geometry) any {
	switch v := g.(type) {
	case orb.Point:
		return kmlPointOut{Coordinates: kmlCoordString([]orb.Point{v})}
	case orb.LineString:
		return kmlLineOut{Coordinates: kmlCoordString(v)}
	case orb.Polygon:
		out := kmlPolygonOut{}
		for i, r := range v {
			if i == 0 {
				out.Outer.Coordinates = kmlCoordString(r)
				continue
			}
			out.Inner = append(out.Inner, kmlRingOut{Coordinates: kmlCoordString(r)})
		}
		return out
	case orb.MultiPoint:
		m := kmlMultiOut{}
		for _, p := range v {
			m.Parts = append(m.Parts, kmlGeometry(p))
		}
		return m
	case orb.MultiLineString:
		m := kmlMultiOut{}
		for _, ls := range v {
			m.Parts = append(m.Parts, kmlGeometry(ls))
		}
		return m
	case orb.MultiPolygon:
		m := kmlMultiOut{}
		for _, p := range v {
			m.Parts = append(m.Parts, kmlGeometry(p))
		}
		return m
	case orb.Collection:
		m := kmlMultiOut{}
		for _, c := range v {
			if sub := kmlGeometry(c); sub != nil {
				m.Parts = append(m.Parts, sub)
			}
		}
		return m
	}
	return nil
}

func kmlCoordString(pts []orb.Point) string {
	var b strings.Builder
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(p[0], 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p[1], 'f', -1, 64))
	}
	return b.String()
}
