// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/tomtom215/geoexplorer/internal/api"
	"github.com/tomtom215/geoexplorer/internal/cache"
	"github.com/tomtom215/geoexplorer/internal/config"
	"github.com/tomtom215/geoexplorer/internal/database"
	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/metrics"
	"github.com/tomtom215/geoexplorer/internal/middleware"
	"github.com/tomtom215/geoexplorer/internal/ml"
	"github.com/tomtom215/geoexplorer/internal/postgis"
	"github.com/tomtom215/geoexplorer/internal/render"
	"github.com/tomtom215/geoexplorer/internal/supervisor"
	"github.com/tomtom215/geoexplorer/internal/supervisor/services"
	ws "github.com/tomtom215/geoexplorer/internal/websocket"
)

var (
	_ api.LandmarkStore = (*database.DB)(nil)
	_ api.LandmarkStore = (*postgis.Store)(nil)
)

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Caller:     cfg.Logging.Caller,
		Timestamp:  true,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	defer func() {
		if err := logging.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing log file")
		}
	}()

	logging.Info().Str("version", api.Version).Msg("Starting Geoexplorer with supervisor tree")
	metrics.AppInfo.WithLabelValues(api.Version, runtime.Version()).Set(1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to initialize landmark store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing landmark store")
		}
	}()
	logging.Info().
		Str("driver", store.Driver()).
		Bool("spatial", store.IsSpatialAvailable()).
		Msg("Landmark store initialized")

	statsCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize statistics cache")
	}

	modelStore, err := ml.OpenBadgerStore(cfg.ML.ModelDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open model store")
	}
	modelSvc := ml.NewService(ml.Config{
		Trees:        cfg.ML.Trees,
		Seed:         cfg.ML.Seed,
		TestFraction: cfg.ML.TestFraction,
		Folds:        cfg.ML.Folds,
		BoostStages:  cfg.ML.BoostStages,
		LearningRate: cfg.ML.LearningRate,
		BoostDepth:   cfg.ML.BoostDepth,
		Clusters:     cfg.ML.Clusters,
	}, modelStore)
	defer func() {
		if err := modelSvc.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing model store")
		}
	}()
	if cfg.ML.LoadOnStartup {
		n, err := modelSvc.LoadAll(ctx)
		if err != nil {
			logging.Warn().Err(err).Msg("Failed to restore saved models")
		} else {
			logging.Info().Int("models", n).Str("dir", cfg.ML.ModelDir).Msg("Saved models restored")
		}
	}

	bus := events.NewBus(cfg.Server.EventBuffer)
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	wsHub := ws.NewHub()

	renderer, err := render.New(cfg.Render, cfg.Server.OutputDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize renderer")
	}

	importer := ingest.NewImporter(ingest.Config{
		Timeout:           cfg.Ingest.Timeout,
		MaxDownloadBytes:  cfg.Ingest.MaxDownloadBytes,
		RequestsPerSecond: cfg.Ingest.RequestsPerSecond,
		Burst:             cfg.Ingest.Burst,
		BreakerFailures:   cfg.Ingest.BreakerFailures,
		BreakerTimeout:    cfg.Ingest.BreakerTimeout,
		AllowedDir:        cfg.Ingest.AllowedDir,
		OverpassEndpoint:  cfg.Ingest.OverpassEndpoint,
	})

	trainer := ml.NewTrainer(modelSvc, bus)
	// Runs before the closers above so no job writes to a closed model store.
	defer trainer.Wait()

	handler := api.NewHandler(api.HandlerDeps{
		Store:     store,
		Cache:     statsCache,
		Models:    modelSvc,
		Trainer:   trainer,
		Importer:  importer,
		Renderer:  renderer,
		Publisher: bus,
		WSHub:     wsHub,
		PerfMon:   middleware.NewPerformanceMonitor(1000, middleware.DefaultSlowThreshold),
		Config:    cfg,
	})
	router := api.NewRouter(handler, api.ChiMiddlewareConfigFromAPI(cfg.API))

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupChi(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// === ADD SERVICES TO SUPERVISOR TREE ===

	tree.AddDataService(services.NewCleanupService(cfg.Server.OutputDir, cfg.Server.TempCleanupInterval, cfg.Server.TempMaxAge))

	tree.AddMessagingService(services.NewHubService(wsHub))
	tree.AddMessagingService(events.NewForwarder(bus, wsHub))
	logging.Info().Msg("WebSocket hub and event forwarder added to supervisor tree")

	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === START SUPERVISOR TREE ===

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}

// openStore connects the landmark store selected by cfg.Driver.
func openStore(ctx context.Context, cfg *config.DatabaseConfig) (api.LandmarkStore, error) {
	if cfg.Driver == config.DriverPostGIS {
		return postgis.New(ctx, cfg)
	}
	return database.New(cfg)
}
