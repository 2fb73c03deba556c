// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/middleware"
	"github.com/tomtom215/geoexplorer/internal/models"
	ws "github.com/tomtom215/geoexplorer/internal/websocket"
)

func TestHealth(t *testing.T) {
	t.Parallel()
	store := newSeededStore()
	env := newTestEnv(t, store)

	var health models.HealthStatus
	expectData(t, env.do(t, http.MethodGet, "/api/health", ""), http.StatusOK, &health)
	if health.Status != "healthy" || !health.DatabaseConnected || health.Driver != "fake" {
		t.Errorf("health = %+v", health)
	}
	if health.Models == nil || len(health.Models) != 0 {
		t.Errorf("models_trained = %v, want empty list", health.Models)
	}

	expectData(t, env.do(t, http.MethodGet, "/api/health/live", ""), http.StatusOK, nil)
	expectData(t, env.do(t, http.MethodGet, "/api/health/ready", ""), http.StatusOK, nil)

	store.setDown(true)
	expectData(t, env.do(t, http.MethodGet, "/api/health", ""), http.StatusOK, &health)
	if health.Status != "degraded" || health.DatabaseConnected {
		t.Errorf("health with store down = %+v", health)
	}
	expectError(t, env.do(t, http.MethodGet, "/api/health/ready", ""), http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
	expectData(t, env.do(t, http.MethodGet, "/api/health/live", ""), http.StatusOK, nil)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	req := httptest.NewRequest(http.MethodGet, "/api/landmarks/1", nil)
	req.Header.Set("X-Request-ID", "req-abc")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "req-abc" {
		t.Errorf("X-Request-ID = %q, want req-abc", got)
	}
	env2 := expectData(t, w, http.StatusOK, nil)
	if env2.Meta == nil || env2.Meta.RequestID != "req-abc" {
		t.Errorf("meta.request_id = %+v", env2.Meta)
	}

	w = env.do(t, http.MethodGet, "/api/landmarks/1", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("no request id generated")
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	w := env.do(t, http.MethodGet, "/api/landmarks", "")
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
	} {
		if got := w.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore(), withRateLimit(2))

	for i := 0; i < 2; i++ {
		expectData(t, env.do(t, http.MethodGet, "/api/landmarks", ""), http.StatusOK, nil)
	}
	expectError(t, env.do(t, http.MethodGet, "/api/landmarks", ""), http.StatusTooManyRequests, ErrCodeTooManyRequests)

	// Health has its own, more permissive limiter.
	expectData(t, env.do(t, http.MethodGet, "/api/health/live", ""), http.StatusOK, nil)
}

func TestPerformanceStats(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	for i := 0; i < 3; i++ {
		env.do(t, http.MethodGet, fmt.Sprintf("/api/landmarks/%d", i+1), "")
	}

	var stats []middleware.EndpointStats
	expectData(t, env.do(t, http.MethodGet, "/api/performance", ""), http.StatusOK, &stats)
	found := false
	for _, s := range stats {
		if s.Endpoint == "GET /api/landmarks/{id}" {
			found = true
			if s.RequestCount != 3 {
				t.Errorf("request_count = %d, want 3", s.RequestCount)
			}
		}
	}
	if !found {
		t.Errorf("no stats for the route pattern: %+v", stats)
	}
}

func TestRealtimeProcess(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	var summary models.RealtimeSummary
	expectData(t, env.do(t, http.MethodPost, "/api/realtime/process", pointCollection(romePoints...)), http.StatusOK, &summary)
	if summary.FeatureCount != 3 || summary.GeometryTypes["Point"] != 3 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Bounds == nil || summary.Bounds.MinLon > 12.48 {
		t.Errorf("bounds = %+v", summary.Bounds)
	}
	if ev := env.nextEvent(t); ev.Type != events.RealtimeAnalysis {
		t.Errorf("event = %s, want %s", ev.Type, events.RealtimeAnalysis)
	}

	bad := `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null,"properties":{}}]}`
	expectError(t, env.do(t, http.MethodPost, "/api/realtime/process", bad), http.StatusBadRequest, ErrCodeDataFormat)
}

func TestCreateMapAndDownload(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	var art models.Artifact
	expectData(t, env.do(t, http.MethodPost, "/api/visualize/map?style=dark", ""), http.StatusOK, &art)
	if art.Features != 8 || art.Style != "dark" {
		t.Errorf("artifact = %+v", art)
	}
	if !strings.HasPrefix(art.DownloadURL, filesRoute) {
		t.Fatalf("download_url = %q", art.DownloadURL)
	}

	w := env.do(t, http.MethodGet, art.DownloadURL, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download status = %d", w.Code)
	}
	if !strings.Contains(strings.ToLower(w.Body.String()), "<html") {
		t.Error("downloaded map is not HTML")
	}

	var posted models.Artifact
	body := `{"features":` + pointCollection(romePoints...) + `}`
	expectData(t, env.do(t, http.MethodPost, "/api/visualize/map", body), http.StatusOK, &posted)
	if posted.Features != 3 {
		t.Errorf("posted map features = %d, want 3", posted.Features)
	}

	expectError(t, env.do(t, http.MethodPost, "/api/visualize/map?style=neon", ""), http.StatusBadRequest, ErrCodeValidation)
}

func TestDownloadFileRejectsUnsafeNames(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	expectError(t, env.do(t, http.MethodGet, "/api/files/temp_map.html", ""), http.StatusBadRequest, ErrCodeValidation)
	expectError(t, env.do(t, http.MethodGet, "/api/files/.env", ""), http.StatusBadRequest, ErrCodeValidation)
	expectError(t, env.do(t, http.MethodGet, "/api/files/missing.html", ""), http.StatusNotFound, ErrCodeNotFound)
}

func TestDashboard(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	w := env.do(t, http.MethodGet, "/api/visualize/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(strings.ToLower(w.Body.String()), "<html") {
		t.Error("dashboard is not HTML")
	}
}

func TestChart(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	pngMagic := []byte("\x89PNG\r\n\x1a\n")
	for _, chart := range []string{"types_bar", "types_pie", "locations", "area_histogram", "density_heatmap"} {
		t.Run(chart, func(t *testing.T) {
			w := env.do(t, http.MethodGet, "/api/visualize/charts/"+chart+".png", "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("Content-Type = %q", ct)
			}
			if !bytes.HasPrefix(w.Body.Bytes(), pngMagic) {
				t.Error("body is not a PNG")
			}
		})
	}
	expectError(t, env.do(t, http.MethodGet, "/api/visualize/charts/radar.png", ""), http.StatusBadRequest, ErrCodeValidation)
}

func TestVisualizeWithoutRenderer(t *testing.T) {
	t.Parallel()
	h := NewHandler(HandlerDeps{Store: newSeededStore()})
	router := NewRouter(h, &ChiMiddlewareConfig{RateLimitDisabled: true}).SetupChi()

	for _, target := range []string{"/api/visualize/dashboard", "/api/visualize/charts/types_bar.png", "/api/files/a.html"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", target, w.Code)
		}
	}
}

func TestWebSocketReceivesEvents(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()

	h := NewHandler(HandlerDeps{Store: newSeededStore(), WSHub: hub})
	server := httptest.NewServer(NewRouter(h, &ChiMiddlewareConfig{RateLimitDisabled: true}).SetupChi())
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	hub.Broadcast(events.New(events.LandmarkCreated, map[string]any{"id": 42}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ws.Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != string(events.LandmarkCreated) {
		t.Errorf("type = %q, want %q", msg.Type, events.LandmarkCreated)
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub()
	h := NewHandler(HandlerDeps{Store: newSeededStore(), WSHub: hub})
	server := httptest.NewServer(NewRouter(h, &ChiMiddlewareConfig{RateLimitDisabled: true}).SetupChi())
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		t.Fatal("dial from a foreign origin succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %+v, want 403", resp)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
}

func TestWebSocketWithoutHub(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())
	expectError(t, env.do(t, http.MethodGet, "/ws", ""), http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestStatusForError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"data format", geoerr.DataFormat("op", "bad"), http.StatusBadRequest, ErrCodeDataFormat},
		{"model input", geoerr.ModelInput("op", "bad"), http.StatusUnprocessableEntity, ErrCodeModelInput},
		{"model not found", geoerr.ModelNotFound("op", "clustering"), http.StatusNotFound, ErrCodeModelNotFound},
		{"persistence", geoerr.Persistence("op", errors.New("io")), http.StatusServiceUnavailable, ErrCodePersistence},
		{"validation", geoerr.Validation("op", "bad"), http.StatusBadRequest, ErrCodeValidation},
		{"wrapped", fmt.Errorf("outer: %w", geoerr.ModelInput("op", "bad")), http.StatusUnprocessableEntity, ErrCodeModelInput},
		{"plain", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := statusForError(tt.err)
			if status != tt.wantStatus || code != tt.wantCode {
				t.Errorf("statusForError() = %d %s, want %d %s", status, code, tt.wantStatus, tt.wantCode)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	env.do(t, http.MethodGet, "/api/landmarks", "")
	w := env.do(t, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("metrics output misses runtime collectors")
	}
}
