// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package ingest reads and writes landmark collections in the supported
// interchange formats and turns them into the analysis table.
//
// Readers and writers work on *geojson.FeatureCollection. Load converts a
// collection into []models.Feature with the derived centroid, area and
// perimeter columns; every analysis function consumes that table.
//
// Supported formats:
//
//   - geojson: FeatureCollection, single Feature or bare Geometry
//   - shapefile: a .shp path with its sidecars, or a .zip holding them
//   - kml: Placemarks with Point, LineString, Polygon or MultiGeometry
//   - csv / excel: one point per row from latitude/longitude columns
//   - overpass: tourism and historic nodes from OpenStreetMap in a bbox
//
// Remote sources are fetched through a rate limiter and a circuit breaker.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/metrics"
)

// Format names an interchange format.
type Format string

const (
	FormatGeoJSON   Format = "geojson"
	FormatShapefile Format = "shapefile"
	FormatKML       Format = "kml"
	FormatCSV       Format = "csv"
	FormatExcel     Format = "excel"
	FormatOverpass  Format = "overpass"
)

// ParseFormat normalizes a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "geojson", "json":
		return FormatGeoJSON, nil
	case "shapefile", "shp", "zip":
		return FormatShapefile, nil
	case "kml":
		return FormatKML, nil
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx", "xls":
		return FormatExcel, nil
	case "overpass", "osm":
		return FormatOverpass, nil
	}
	return "", geoerr.Validation("ingest.format", "unsupported format %q", s)
}

// Source describes where to read a collection from. Exactly one of Path,
// URL or Data is used, in that order of preference; overpass reads none
// of them and queries BBox instead.
type Source struct {
	Format Format `json:"format" validate:"required"`
	Path   string `json:"path,omitempty"`
	URL    string `json:"url,omitempty" validate:"omitempty,url"`
	Data   []byte `json:"-"`

	// Tabular options.
	LatColumn string `json:"lat_column,omitempty"`
	LonColumn string `json:"lon_column,omitempty"`
	WKTColumn string `json:"wkt_column,omitempty"`
	Sheet     string `json:"sheet,omitempty"`

	// Overpass options: south, west, north, east.
	BBox []float64 `json:"bbox,omitempty" validate:"omitempty,len=4"`
}

// Config tunes the remote fetch path.
type Config struct {
	Timeout           time.Duration
	MaxDownloadBytes  int64
	RequestsPerSecond float64
	Burst             int
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
	AllowedDir        string
	OverpassEndpoint  string
}

// DefaultConfig returns conservative fetch settings.
func DefaultConfig() Config {
	return Config{
		Timeout:           30 * time.Second,
		MaxDownloadBytes:  50 << 20,
		RequestsPerSecond: 2,
		Burst:             4,
		BreakerFailures:   5,
		BreakerTimeout:    60 * time.Second,
		AllowedDir:        "data",
		OverpassEndpoint:  "https://overpass-api.de/api/interpreter",
	}
}

// Importer reads collections from files, byte slices and remote URLs.
type Importer struct {
	cfg      Config
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	overpass OverpassQuerier
}

// NewImporter creates an importer. The HTTP client is shared by URL
// downloads and the Overpass client.
func NewImporter(cfg Config) *Importer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.MaxDownloadBytes <= 0 {
		cfg.MaxDownloadBytes = DefaultConfig().MaxDownloadBytes
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = DefaultConfig().BreakerFailures
	}

	client := &http.Client{Timeout: cfg.Timeout}
	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "remote-import",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.RecordBreakerTransition(name, from.String(), to.String(), int(to))
		},
	})

	imp := &Importer{
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,
	}
	imp.overpass = newOverpassClient(cfg.OverpassEndpoint, client)
	return imp
}

// SetOverpass swaps the Overpass backend, mainly for tests.
func (imp *Importer) SetOverpass(q OverpassQuerier) {
	imp.overpass = q
}

// Import reads src into a feature collection. It does not validate
// geometries; pass the result to Load or Validate for that.
func (imp *Importer) Import(ctx context.Context, src Source) (fc *geojson.FeatureCollection, err error) {
	defer func() {
		var n int
		if fc != nil {
			n = len(fc.Features)
		}
		metrics.RecordImport(string(src.Format), n, err)
	}()

	if src.Format == FormatOverpass {
		return imp.importOverpass(ctx, src.BBox)
	}

	switch {
	case src.Path != "":
		path, err := imp.resolvePath(src.Path)
		if err != nil {
			return nil, err
		}
		return readFile(path, src)
	case src.URL != "":
		data, err := imp.Fetch(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		return ReadBytes(data, src)
	case len(src.Data) > 0:
		return ReadBytes(src.Data, src)
	}
	return nil, geoerr.Validation("ingest.import", "source needs a path, url or data")
}

// resolvePath keeps file imports inside the configured data directory.
func (imp *Importer) resolvePath(p string) (string, error) {
	if imp.cfg.AllowedDir == "" {
		return filepath.Clean(p), nil
	}
	root, err := filepath.Abs(imp.cfg.AllowedDir)
	if err != nil {
		return "", geoerr.Validation("ingest.path", "bad data directory: %v", err)
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, p)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", geoerr.Validation("ingest.path", "path %q is outside the data directory", p)
	}
	return full, nil
}

// Fetch downloads a URL through the limiter and the breaker. Bodies larger
// than the configured maximum are rejected.
func (imp *Importer) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, geoerr.Validation("ingest.fetch", "invalid url %q", rawURL)
	}
	if err := imp.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("ingest.fetch: rate limiter: %w", err)
	}

	start := time.Now()
	data, err := imp.breaker.Execute(func() ([]byte, error) {
		return imp.download(ctx, u.String())
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("ingest.fetch: remote sources unavailable: %w", err)
		}
		return nil, err
	}

	logging.Debug().
		Str("url", u.Redacted()).
		Int("bytes", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Downloaded remote source")
	return data, nil
}

func (imp *Importer) download(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "geoexplorer/1.0")

	resp, err := imp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ingest.fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ingest.fetch: unexpected status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, imp.cfg.MaxDownloadBytes+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("ingest.fetch: read body: %w", err)
	}
	if int64(len(data)) > imp.cfg.MaxDownloadBytes {
		return nil, geoerr.Validation("ingest.fetch", "download exceeds %d bytes", imp.cfg.MaxDownloadBytes)
	}
	return data, nil
}

func readFile(path string, src Source) (*geojson.FeatureCollection, error) {
	switch src.Format {
	case FormatShapefile:
		return ReadShapefile(path)
	case FormatExcel:
		return ReadExcelFile(path, src)
	}
	f, err := os.Open(path) //nolint:gosec // path is confined by resolvePath
	if err != nil {
		return nil, geoerr.DataFormat("ingest.open", "open %s: %v", filepath.Base(path), err)
	}
	defer f.Close()
	return read(f, src)
}

// ReadBytes decodes an in-memory payload. Shapefiles must be zipped.
func ReadBytes(data []byte, src Source) (*geojson.FeatureCollection, error) {
	switch src.Format {
	case FormatShapefile:
		return readShapefileZipBytes(data)
	case FormatExcel:
		return ReadExcel(bytes.NewReader(data), src)
	}
	return read(bytes.NewReader(data), src)
}

func read(r io.Reader, src Source) (*geojson.FeatureCollection, error) {
	switch src.Format {
	case FormatGeoJSON:
		return ReadGeoJSON(r)
	case FormatKML:
		return ReadKML(r)
	case FormatCSV:
		return ReadCSV(r, src)
	case FormatExcel:
		return ReadExcel(r, src)
	}
	return nil, geoerr.Validation("ingest.read", "unsupported format %q", src.Format)
}
