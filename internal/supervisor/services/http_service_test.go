// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/geoexplorer/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "disabled",
		Format: "console",
		Output: io.Discard,
	})
}

var (
	_ suture.Service = (*HTTPServerService)(nil)
	_ suture.Service = (*HubService)(nil)
	_ suture.Service = (*CleanupService)(nil)
)

// fakeServer blocks in ListenAndServe until Shutdown unless listenErr is set.
type fakeServer struct {
	listenErr   error
	shutdownErr error
	started     chan struct{}
	stopped     chan struct{}
	shutdowns   atomic.Int32
}

func newFakeServer() *fakeServer {
	return &fakeServer{started: make(chan struct{}, 1), stopped: make(chan struct{})}
}

func (f *fakeServer) ListenAndServe() error {
	f.started <- struct{}{}
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.stopped
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.shutdowns.Add(1)
	close(f.stopped)
	return f.shutdownErr
}

func TestNewHTTPServerServiceTimeout(t *testing.T) {
	for _, in := range []time.Duration{0, -time.Second} {
		if got := NewHTTPServerService(newFakeServer(), in).shutdownTimeout; got != 10*time.Second {
			t.Errorf("timeout(%v) = %v, want 10s", in, got)
		}
	}
	if got := NewHTTPServerService(newFakeServer(), 3*time.Second).shutdownTimeout; got != 3*time.Second {
		t.Errorf("timeout = %v, want 3s", got)
	}
}

func TestHTTPServerServiceServe(t *testing.T) {
	bindErr := errors.New("bind: address already in use")
	shutdownErr := errors.New("shutdown timeout")

	tests := []struct {
		name        string
		listenErr   error
		shutdownErr error
		want        error
	}{
		{"graceful shutdown", nil, nil, context.Canceled},
		{"startup failure", bindErr, nil, bindErr},
		{"shutdown failure", nil, shutdownErr, shutdownErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newFakeServer()
			server.listenErr = tt.listenErr
			server.shutdownErr = tt.shutdownErr
			svc := NewHTTPServerService(server, time.Second)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			errCh := make(chan error, 1)
			go func() { errCh <- svc.Serve(ctx) }()

			<-server.started
			if tt.listenErr == nil {
				cancel()
			}
			select {
			case err := <-errCh:
				if !errors.Is(err, tt.want) {
					t.Errorf("Serve() error = %v, want %v", err, tt.want)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("Serve() did not return")
			}
			if tt.listenErr == nil && server.shutdowns.Load() != 1 {
				t.Errorf("Shutdown called %d times", server.shutdowns.Load())
			}
		})
	}
}

func TestHTTPServerServiceRealServer(t *testing.T) {
	srv := &http.Server{
		Addr:              "127.0.0.1:0",
		Handler:           http.NotFoundHandler(),
		ReadHeaderTimeout: time.Second,
	}
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v, want deadline exceeded", err)
	}
}

type fakeHub struct {
	runs atomic.Int32
}

func (h *fakeHub) RunWithContext(ctx context.Context) error {
	h.runs.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestHubService(t *testing.T) {
	hub := &fakeHub{}
	svc := NewHubService(hub)
	if svc.String() != "websocket-hub" {
		t.Errorf("String() = %q", svc.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v", err)
	}
	if hub.runs.Load() != 1 {
		t.Errorf("hub ran %d times", hub.runs.Load())
	}
}

func TestCleanupSweep(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	files := map[string]time.Duration{
		"italy_landmarks_map_default.html":      2 * time.Hour,
		"temp_123_italy_landmarks_map_dark.html": 2 * time.Hour,
		"temp_upload_456.geojson":                3 * time.Hour,
		"temp_upload_789.csv":                    10 * time.Minute,
	}
	for name, age := range files {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(p, now.Add(-age), now.Add(-age)); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o750); err != nil {
		t.Fatal(err)
	}

	svc := NewCleanupService(dir, time.Minute, time.Hour)
	svc.now = func() time.Time { return now }
	n, err := svc.Sweep()
	if err != nil {
		t.Fatalf("Sweep() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Sweep() removed %d files, want 2", n)
	}

	left, _ := os.ReadDir(dir)
	got := map[string]bool{}
	for _, e := range left {
		got[e.Name()] = true
	}
	for _, want := range []string{"italy_landmarks_map_default.html", "temp_upload_789.csv", "nested"} {
		if !got[want] {
			t.Errorf("%s was removed", want)
		}
	}
}

func TestCleanupMissingDir(t *testing.T) {
	svc := NewCleanupService(filepath.Join(t.TempDir(), "absent"), 0, 0)
	if svc.interval != 10*time.Minute || svc.maxAge != time.Hour {
		t.Errorf("defaults = %v, %v", svc.interval, svc.maxAge)
	}
	if n, err := svc.Sweep(); n != 0 || err != nil {
		t.Errorf("Sweep() = %d, %v", n, err)
	}
}

func TestCleanupServeStopsOnCancel(t *testing.T) {
	svc := NewCleanupService(t.TempDir(), 10*time.Millisecond, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() error = %v", err)
	}
}
