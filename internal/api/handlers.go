// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/geoexplorer/internal/cache"
	"github.com/tomtom215/geoexplorer/internal/config"
	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/middleware"
	"github.com/tomtom215/geoexplorer/internal/ml"
	"github.com/tomtom215/geoexplorer/internal/models"
	"github.com/tomtom215/geoexplorer/internal/render"
	ws "github.com/tomtom215/geoexplorer/internal/websocket"
)

// Version is reported by the health endpoint. Overridden at build time.
var Version = "dev"

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct, constructor, shared utilities (this file)
//   - handlers_helpers.go: request decoding and parameter parsing
//   - handlers_health.go: health, statistics and performance endpoints
//   - handlers_landmarks.go: landmark CRUD and nearby queries
//   - handlers_analysis.go: spatial analysis and history
//   - handlers_ml.go: training, prediction and model info
//   - handlers_data.go: import, clean, validate, transform, export
//   - handlers_visualize.go: map, dashboard, charts and artifact downloads
//   - handlers_realtime.go: realtime summaries and the WebSocket endpoint
type Handler struct {
	store     LandmarkStore
	cache     cache.Cacher
	models    *ml.Service
	trainer   *ml.Trainer
	importer  *ingest.Importer
	renderer  *render.Renderer
	publisher events.Publisher
	wsHub     *ws.Hub
	perfMon   *middleware.PerformanceMonitor
	config    *config.Config
	startTime time.Time
}

// HandlerDeps lists the collaborators of a Handler. Cache, Publisher,
// Importer and Trainer get defaults when nil; a nil WSHub disables the
// WebSocket endpoint.
type HandlerDeps struct {
	Store     LandmarkStore
	Cache     cache.Cacher
	Models    *ml.Service
	Trainer   *ml.Trainer
	Importer  *ingest.Importer
	Renderer  *render.Renderer
	Publisher events.Publisher
	WSHub     *ws.Hub
	PerfMon   *middleware.PerformanceMonitor
	Config    *config.Config
}

// NewHandler creates a new API handler.
//
// Example:
//
//	handler := api.NewHandler(api.HandlerDeps{Store: db, Models: svc, Renderer: r, Config: cfg})
//	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromAPI(cfg.API))
//	http.ListenAndServe(cfg.Server.Addr(), router.SetupChi())
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		store:     deps.Store,
		cache:     deps.Cache,
		models:    deps.Models,
		trainer:   deps.Trainer,
		importer:  deps.Importer,
		renderer:  deps.Renderer,
		publisher: deps.Publisher,
		wsHub:     deps.WSHub,
		perfMon:   deps.PerfMon,
		config:    deps.Config,
		startTime: time.Now(),
	}
	if h.config == nil {
		h.config = &config.Config{}
	}
	if h.cache == nil {
		h.cache = cache.NewLRU(cache.DefaultSize, cache.DefaultTTL)
	}
	if h.publisher == nil {
		h.publisher = events.Discard
	}
	if h.models == nil {
		h.models = ml.NewService(ml.DefaultConfig(), nil)
	}
	if h.trainer == nil {
		h.trainer = ml.NewTrainer(h.models, h.publisher)
	}
	if h.importer == nil {
		h.importer = ingest.NewImporter(ingest.DefaultConfig())
	}
	if h.perfMon == nil {
		h.perfMon = middleware.NewPerformanceMonitor(1000, middleware.DefaultSlowThreshold)
	}
	return h
}

// PerformanceMonitor returns the monitor the router records into.
func (h *Handler) PerformanceMonitor() *middleware.PerformanceMonitor {
	return h.perfMon
}

// statsCacheKey is the only entry in the statistics cache.
const statsCacheKey = "statistics"

// statistics returns the cached summary, loading it from the store on a miss.
func (h *Handler) statistics(ctx context.Context) (*models.Statistics, error) {
	return cache.Fetch(ctx, h.cache, statsCacheKey, h.store.Statistics)
}

// landmarksChanged invalidates cached statistics and notifies subscribers.
func (h *Handler) landmarksChanged(ctx context.Context, typ events.Type, data any) {
	cache.Invalidate(ctx, h.cache)
	h.publisher.Publish(ctx, typ, data)
}

// allLandmarks pages through the store. Exports and renders read every row.
func (h *Handler) allLandmarks(ctx context.Context, landmarkType string) ([]models.Landmark, error) {
	const page = 1000
	var out []models.Landmark
	for offset := 0; ; offset += page {
		rows, err := h.store.ListLandmarks(ctx, models.LandmarkFilter{
			LandmarkType: landmarkType,
			Limit:        page,
			Offset:       offset,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
		if len(rows) < page {
			return out, nil
		}
	}
}

// getUpgrader creates a WebSocket upgrader with origin checking and timeouts.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts same-host requests, requests without an
// Origin header (non-browser clients) and the configured CORS origins.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	for _, allowed := range h.config.API.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}
