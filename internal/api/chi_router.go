// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/geoexplorer/internal/middleware"
)

// compressText gzips the large text payloads (exports, dashboard HTML).
// PNG charts and zipped shapefiles are already compressed.
var compressText = chimiddleware.Compress(5,
	"application/geo+json",
	"application/vnd.google-earth.kml+xml",
	"text/csv",
	"text/html",
)

// Router wires handlers to routes.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router. A nil config uses DefaultChiMiddlewareConfig.
func NewRouter(handler *Handler, cfg *ChiMiddlewareConfig) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(cfg),
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	mw := router.chiMiddleware
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(mw.CORS()) // global so OPTIONS preflight is answered everywhere
	r.Use(h.PerformanceMonitor().Middleware)

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/api/health", func(r chi.Router) {
		r.Use(mw.RateLimitCustom(RateLimitHealth))
		r.Use(APISecurityHeaders())
		r.Get("/", h.Health)
		r.Get("/live", h.HealthLive)
		r.Get("/ready", h.HealthReady)
	})

	// ========================
	// API Endpoints
	// ========================
	r.Route("/api", func(r chi.Router) {
		r.Use(mw.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(middleware.PrometheusMetrics)

		r.Route("/landmarks", func(r chi.Router) {
			r.Get("/", h.ListLandmarks)
			r.Get("/nearby", h.NearbyLandmarks)
			r.Get("/{id}", h.GetLandmark)

			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimitCustom(RateLimitWrite))
				r.Post("/", h.CreateLandmark)
				r.Put("/{id}", h.UpdateLandmark)
				r.Delete("/{id}", h.DeleteLandmark)
			})
		})

		r.Route("/analysis", func(r chi.Router) {
			r.With(mw.RateLimitCustom(RateLimitAnalysis)).Post("/spatial", h.SpatialAnalysis)
			r.Get("/history", h.AnalysisHistory)
		})

		r.Route("/ml", func(r chi.Router) {
			r.Get("/models", h.ModelInfo)
			r.Group(func(r chi.Router) {
				r.Use(mw.RateLimitCustom(RateLimitAnalysis))
				r.Post("/train", h.TrainModel)
				r.Post("/predict", h.Predict)
				r.Post("/evaluate", h.EvaluateModel)
			})
		})

		r.Route("/data", func(r chi.Router) {
			r.Use(mw.RateLimitCustom(RateLimitImport))
			r.Post("/import", h.ImportData)
			r.Post("/clean", h.CleanData)
			r.Post("/validate", h.ValidateData)
			r.Post("/transform", h.TransformData)
			r.With(compressText).Get("/export", h.ExportData)
		})

		r.Route("/visualize", func(r chi.Router) {
			r.Use(mw.RateLimitCustom(RateLimitAnalysis))
			r.Post("/map", h.CreateMap)
			r.With(compressText).Get("/dashboard", h.Dashboard)
			r.Get("/charts/{chart}.png", h.Chart)
		})

		r.Get("/files/{filename}", h.DownloadFile)
		r.Get("/statistics", h.Statistics)
		r.Get("/performance", h.PerformanceStats)
		r.Post("/realtime/process", h.RealtimeProcess)
	})

	// ========================
	// Notifications
	// ========================
	r.With(mw.RateLimitCustom(RateLimitWebSocket)).Get("/ws", h.WebSocket)

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
