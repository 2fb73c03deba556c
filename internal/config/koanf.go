// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/geoexplorer/config.yaml",
	"/etc/geoexplorer/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// DotEnvPathEnvVar overrides the .env file location.
const DotEnvPathEnvVar = "DOTENV_PATH"

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                8000,
			Host:                "0.0.0.0",
			Timeout:             30 * time.Second,
			Environment:         "development",
			OutputDir:           "output",
			TempCleanupInterval: time.Hour,
			TempMaxAge:          time.Hour,
			EventBuffer:         256,
		},
		Database: DatabaseConfig{
			Driver:                 DriverDuckDB,
			Path:                   "data/geoexplorer.duckdb",
			MaxMemory:              "1GB",
			Threads:                0, // 0 = runtime.NumCPU()
			PreserveInsertionOrder: true,
			SpatialOptional:        true,
			MaxOpenConns:           10,
			QueryTimeout:           30 * time.Second,
			SeedSampleData:         true,
		},
		Cache: CacheConfig{
			Size: 128,
			TTL:  5 * time.Minute,
		},
		ML: MLConfig{
			ModelDir:      "data/models",
			LoadOnStartup: true,
			Trees:         100,
			Seed:          42,
			TestFraction:  0.2,
			Folds:         5,
			BoostStages:   100,
			LearningRate:  0.1,
			BoostDepth:    3,
			Clusters:      3,
		},
		Ingest: IngestConfig{
			AllowedDir:        "data",
			Timeout:           30 * time.Second,
			MaxDownloadBytes:  50 << 20,
			RequestsPerSecond: 2,
			Burst:             4,
			BreakerFailures:   5,
			BreakerTimeout:    60 * time.Second,
			OverpassEndpoint:  "https://overpass-api.de/api/interpreter",
		},
		API: APIConfig{
			DefaultPageSize: 100,
			MaxPageSize:     1000,
			MaxBodyBytes:    10 << 20,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  50,
			MaxBackups: 5,
		},
		Render: RenderConfig{
			TileURL:      "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution:  "&copy; OpenStreetMap contributors",
			CenterLat:    41.8719,
			CenterLon:    12.5674,
			Zoom:         6,
			ChartWidth:   800,
			ChartHeight:  500,
			DashboardTop: 10,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults
//  2. .env file (optional)
//  3. Config File (optional)
//  4. Environment Variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// DUCKDB_PATH -> database.path, HTTP_PORT -> server.port, ...
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadDotEnv copies a .env file into the process environment. Variables
// that are already set keep their value. A missing file is not an error.
func loadDotEnv() error {
	path := os.Getenv(DotEnvPathEnvVar)
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	// Server
	"http_port":             "server.port",
	"http_host":             "server.host",
	"http_timeout":          "server.timeout",
	"environment":           "server.environment",
	"output_dir":            "server.output_dir",
	"temp_cleanup_interval": "server.temp_cleanup_interval",
	"temp_max_age":          "server.temp_max_age",
	"event_buffer":          "server.event_buffer",

	// Database
	"database_driver":          "database.driver",
	"duckdb_path":              "database.path",
	"duckdb_max_memory":        "database.max_memory",
	"duckdb_threads":           "database.threads",
	"duckdb_spatial_optional":  "database.spatial_optional",
	"database_url":             "database.postgres_url",
	"database_max_open_conns":  "database.max_open_conns",
	"database_query_timeout":   "database.query_timeout",
	"seed_sample_data":         "database.seed_sample_data",
	"preserve_insertion_order": "database.preserve_insertion_order",

	// Cache
	"cache_size":     "cache.size",
	"cache_ttl":      "cache.ttl",
	"redis_addr":     "cache.redis_addr",
	"redis_password": "cache.redis_password",
	"redis_db":       "cache.redis_db",

	// ML
	"model_dir":          "ml.model_dir",
	"ml_load_on_startup": "ml.load_on_startup",
	"ml_trees":           "ml.trees",
	"ml_seed":            "ml.seed",
	"ml_test_fraction":   "ml.test_fraction",
	"ml_folds":           "ml.folds",
	"ml_boost_stages":    "ml.boost_stages",
	"ml_learning_rate":   "ml.learning_rate",
	"ml_boost_depth":     "ml.boost_depth",
	"ml_clusters":        "ml.clusters",

	// Ingest
	"import_allowed_dir":        "ingest.allowed_dir",
	"import_timeout":            "ingest.timeout",
	"import_max_download_bytes": "ingest.max_download_bytes",
	"import_requests_per_sec":   "ingest.requests_per_second",
	"import_burst":              "ingest.burst",
	"import_breaker_failures":   "ingest.breaker_failures",
	"import_breaker_timeout":    "ingest.breaker_timeout",
	"overpass_endpoint":         "ingest.overpass_endpoint",

	// API
	"api_default_page_size": "api.default_page_size",
	"api_max_page_size":     "api.max_page_size",
	"api_max_body_bytes":    "api.max_body_bytes",
	"cors_origins":          "api.cors_origins",
	"rate_limit_requests":   "api.rate_limit_reqs",
	"rate_limit_window":     "api.rate_limit_window",
	"disable_rate_limit":    "api.rate_limit_disabled",

	// Logging
	"log_level":       "logging.level",
	"log_format":      "logging.format",
	"log_caller":      "logging.caller",
	"log_file":        "logging.file",
	"log_max_size_mb": "logging.max_size_mb",
	"log_max_backups": "logging.max_backups",

	// Render
	"map_tile_url":    "render.tile_url",
	"map_attribution": "render.attribution",
	"map_center_lat":  "render.center_lat",
	"map_center_lon":  "render.center_lon",
	"map_zoom":        "render.zoom",
	"chart_width":     "render.chart_width",
	"chart_height":    "render.chart_height",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - REDIS_ADDR -> cache.redis_addr
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
