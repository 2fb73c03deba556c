// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoexplorer/internal/config"
	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/render"
)

func init() {
	logging.Init(logging.Config{
		Level:  "disabled",
		Format: "console",
		Output: io.Discard,
	})
}

// testEnv is a fully wired router over a fake store.
type testEnv struct {
	store    *fakeStore
	events   *events.Recorder
	handler  *Handler
	router   http.Handler
	renderer *render.Renderer
}

type envOption func(*config.Config)

func withMaxBody(n int64) envOption {
	return func(c *config.Config) { c.API.MaxBodyBytes = n }
}

func withRateLimit(requests int) envOption {
	return func(c *config.Config) {
		c.API.RateLimitDisabled = false
		c.API.RateLimitReqs = requests
		c.API.RateLimitWindow = time.Minute
	}
}

func newTestEnv(t *testing.T, store *fakeStore, opts ...envOption) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.API.RateLimitDisabled = true
	for _, opt := range opts {
		opt(cfg)
	}

	renderer, err := render.New(config.RenderConfig{
		CenterLat:    41.8719,
		CenterLon:    12.5674,
		Zoom:         6,
		ChartWidth:   640,
		ChartHeight:  400,
		DashboardTop: 3,
	}, t.TempDir())
	if err != nil {
		t.Fatalf("render.New() error = %v", err)
	}

	rec := events.NewRecorder(64)
	h := NewHandler(HandlerDeps{
		Store:     store,
		Renderer:  renderer,
		Publisher: rec,
		Config:    cfg,
	})
	t.Cleanup(h.trainer.Wait)

	return &testEnv{
		store:    store,
		events:   rec,
		handler:  h,
		router:   NewRouter(h, ChiMiddlewareConfigFromAPI(cfg.API)).SetupChi(),
		renderer: renderer,
	}
}

// do sends a request through the router. An empty body sends none.
func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// envelope mirrors APIResponse with the payload left raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, w.Body.String())
	}
	return env
}

// expectData asserts a successful response and decodes its payload.
func expectData(t *testing.T, w *httptest.ResponseRecorder, status int, dst any) envelope {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d\nbody: %s", w.Code, status, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Fatalf("success = false, error = %+v", env.Error)
	}
	if dst != nil {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			t.Fatalf("decode data: %v\ndata: %s", err, env.Data)
		}
	}
	return env
}

// expectError asserts an error response with the given status and code.
func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) *APIError {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d\nbody: %s", w.Code, status, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", w.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q (message %q)", env.Error.Code, code, env.Error.Message)
	}
	return env.Error
}

// nextEvent waits briefly for the next published event.
func (e *testEnv) nextEvent(t *testing.T) events.Event {
	t.Helper()
	select {
	case ev := <-e.events.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return events.Event{}
}

// expectNoEvent fails if an event was published.
func (e *testEnv) expectNoEvent(t *testing.T) {
	t.Helper()
	select {
	case ev := <-e.events.Events():
		t.Fatalf("unexpected event %s", ev.Type)
	default:
	}
}

// pointCollection builds a FeatureCollection body of named points.
func pointCollection(points ...[3]any) string {
	var b strings.Builder
	b.WriteString(`{"type":"FeatureCollection","features":[`)
	for i, p := range points {
		if i > 0 {
			b.WriteByte(',')
		}
		feature := map[string]any{
			"type":       "Feature",
			"geometry":   map[string]any{"type": "Point", "coordinates": []any{p[1], p[2]}},
			"properties": map[string]any{"name": p[0], "type": "monument"},
		}
		raw, _ := json.Marshal(feature)
		b.Write(raw)
	}
	b.WriteString(`]}`)
	return b.String()
}

// romePoints are three points around Rome as name, lon, lat.
var romePoints = [][3]any{
	{"Colosseo", 12.4922, 41.8902},
	{"Pantheon", 12.4769, 41.8986},
	{"Trevi", 12.4833, 41.9009},
}
