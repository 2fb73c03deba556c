// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
//
// Loading order (later layers win):
//  1. Defaults from defaultConfig()
//  2. .env file in the working directory (never overrides the real environment)
//  3. YAML config file (CONFIG_PATH, config.yaml, config.yml, /etc/geoexplorer/config.yaml)
//  4. Environment variables listed in envMappings
//
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Cache    CacheConfig    `koanf:"cache"`
	ML       MLConfig       `koanf:"ml"`
	Ingest   IngestConfig   `koanf:"ingest"`
	API      APIConfig      `koanf:"api"`
	Logging  LoggingConfig  `koanf:"logging"`
	Render   RenderConfig   `koanf:"render"`
}

// ServerConfig holds HTTP server and process settings.
//
// Environment Variables:
//   - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
//   - ENVIRONMENT: development or production
//   - OUTPUT_DIR: where rendered maps and temporary artifacts are written
//   - TEMP_CLEANUP_INTERVAL, TEMP_MAX_AGE: hourly sweep of stale temp_* files
//   - EVENT_BUFFER: capacity of the in-process event bus
type ServerConfig struct {
	Port                int           `koanf:"port"`
	Host                string        `koanf:"host"`
	Timeout             time.Duration `koanf:"timeout"`
	Environment         string        `koanf:"environment"`
	OutputDir           string        `koanf:"output_dir"`
	TempCleanupInterval time.Duration `koanf:"temp_cleanup_interval"`
	TempMaxAge          time.Duration `koanf:"temp_max_age"`
	EventBuffer         int64         `koanf:"event_buffer"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Database drivers.
const (
	DriverDuckDB  = "duckdb"
	DriverPostGIS = "postgis"
)

// DatabaseConfig selects and tunes the landmark store.
//
// Environment Variables:
//   - DATABASE_DRIVER: duckdb (default) or postgis
//   - DUCKDB_PATH: database file, ":memory:" for an in-process store
//   - DUCKDB_MAX_MEMORY, DUCKDB_THREADS
//   - DUCKDB_SPATIAL_OPTIONAL: run without the spatial extension when it cannot load
//   - DATABASE_URL: PostGIS connection string (postgres://...)
//   - SEED_SAMPLE_DATA: insert the sample landmarks into an empty table
type DatabaseConfig struct {
	Driver                 string        `koanf:"driver"`
	Path                   string        `koanf:"path"`
	MaxMemory              string        `koanf:"max_memory"`
	Threads                int           `koanf:"threads"`
	PreserveInsertionOrder bool          `koanf:"preserve_insertion_order"`
	SpatialOptional        bool          `koanf:"spatial_optional"`
	PostgresURL            string        `koanf:"postgres_url"`
	MaxOpenConns           int           `koanf:"max_open_conns"`
	QueryTimeout           time.Duration `koanf:"query_timeout"`
	SeedSampleData         bool          `koanf:"seed_sample_data"`
}

// CacheConfig tunes the statistics cache. When RedisAddr is set the cache is
// shared through redis, otherwise an in-process LRU is used.
type CacheConfig struct {
	Size          int           `koanf:"size"`
	TTL           time.Duration `koanf:"ttl"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
}

// MLConfig holds model training settings.
type MLConfig struct {
	ModelDir      string  `koanf:"model_dir"` // Empty keeps models in memory only
	LoadOnStartup bool    `koanf:"load_on_startup"`
	Trees         int     `koanf:"trees"`
	Seed          int64   `koanf:"seed"`
	TestFraction  float64 `koanf:"test_fraction"`
	Folds         int     `koanf:"folds"`
	BoostStages   int     `koanf:"boost_stages"`
	LearningRate  float64 `koanf:"learning_rate"`
	BoostDepth    int     `koanf:"boost_depth"`
	Clusters      int     `koanf:"clusters"`
}

// IngestConfig tunes imports from files and remote URLs.
type IngestConfig struct {
	AllowedDir        string        `koanf:"allowed_dir"`
	Timeout           time.Duration `koanf:"timeout"`
	MaxDownloadBytes  int64         `koanf:"max_download_bytes"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	BreakerFailures   uint32        `koanf:"breaker_failures"`
	BreakerTimeout    time.Duration `koanf:"breaker_timeout"`
	OverpassEndpoint  string        `koanf:"overpass_endpoint"`
}

// APIConfig holds request limits, pagination and CORS settings.
type APIConfig struct {
	DefaultPageSize   int           `koanf:"default_page_size"`
	MaxPageSize       int           `koanf:"max_page_size"`
	MaxBodyBytes      int64         `koanf:"max_body_bytes"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"`
	Caller     bool   `koanf:"caller"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
}

// RenderConfig holds map and chart rendering settings.
type RenderConfig struct {
	TileURL      string  `koanf:"tile_url"`
	Attribution  string  `koanf:"attribution"`
	CenterLat    float64 `koanf:"center_lat"`
	CenterLon    float64 `koanf:"center_lon"`
	Zoom         int     `koanf:"zoom"`
	ChartWidth   int     `koanf:"chart_width"`
	ChartHeight  int     `koanf:"chart_height"`
	DashboardTop int     `koanf:"dashboard_top"` // Landmarks listed on the dashboard
}

// Load reads configuration from all layers and validates it.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
