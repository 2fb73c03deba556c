// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package config

import (
	"fmt"
	"strings"
)

// Validate checks that configuration values are present and in range.
// Error messages name the environment variable that sets the field.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateDatabase,
		c.validateCache,
		c.validateML,
		c.validateIngest,
		c.validateAPI,
		c.validateLogging,
		c.validateRender,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("ENVIRONMENT must be development or production, got %q", c.Server.Environment)
	}
	if c.Server.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.Server.TempCleanupInterval <= 0 {
		return fmt.Errorf("TEMP_CLEANUP_INTERVAL must be positive")
	}
	if c.Server.EventBuffer <= 0 {
		return fmt.Errorf("EVENT_BUFFER must be positive")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	switch c.Database.Driver {
	case DriverDuckDB:
		if c.Database.Path == "" {
			return fmt.Errorf("DUCKDB_PATH is required when DATABASE_DRIVER=duckdb")
		}
	case DriverPostGIS:
		if c.Database.PostgresURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DATABASE_DRIVER=postgis")
		}
		if err := validatePostgresURL(c.Database.PostgresURL); err != nil {
			return fmt.Errorf("DATABASE_URL is invalid: %w", err)
		}
	default:
		return fmt.Errorf("DATABASE_DRIVER must be duckdb or postgis, got %q", c.Database.Driver)
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative")
	}
	if c.Database.QueryTimeout <= 0 {
		return fmt.Errorf("DATABASE_QUERY_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Size < 1 {
		return fmt.Errorf("CACHE_SIZE must be at least 1")
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	if c.Cache.RedisDB < 0 {
		return fmt.Errorf("REDIS_DB must be non-negative")
	}
	return nil
}

func (c *Config) validateML() error {
	m := c.ML
	switch {
	case m.Trees < 1:
		return fmt.Errorf("ML_TREES must be at least 1")
	case m.TestFraction <= 0 || m.TestFraction >= 1:
		return fmt.Errorf("ML_TEST_FRACTION must be between 0 and 1 exclusive, got %v", m.TestFraction)
	case m.Folds < 2:
		return fmt.Errorf("ML_FOLDS must be at least 2")
	case m.BoostStages < 1:
		return fmt.Errorf("ML_BOOST_STAGES must be at least 1")
	case m.LearningRate <= 0 || m.LearningRate > 1:
		return fmt.Errorf("ML_LEARNING_RATE must be in (0, 1]")
	case m.BoostDepth < 1:
		return fmt.Errorf("ML_BOOST_DEPTH must be at least 1")
	case m.Clusters < 1:
		return fmt.Errorf("ML_CLUSTERS must be at least 1")
	}
	return nil
}

func (c *Config) validateIngest() error {
	if c.Ingest.MaxDownloadBytes <= 0 {
		return fmt.Errorf("IMPORT_MAX_DOWNLOAD_BYTES must be positive")
	}
	if c.Ingest.RequestsPerSecond <= 0 {
		return fmt.Errorf("IMPORT_REQUESTS_PER_SEC must be positive")
	}
	if c.Ingest.BreakerFailures == 0 {
		return fmt.Errorf("IMPORT_BREAKER_FAILURES must be at least 1")
	}
	if c.Ingest.OverpassEndpoint != "" {
		if err := validateHTTPURL(c.Ingest.OverpassEndpoint, "OVERPASS_ENDPOINT", true); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.DefaultPageSize < 1 {
		return fmt.Errorf("API_DEFAULT_PAGE_SIZE must be at least 1")
	}
	if c.API.MaxPageSize < c.API.DefaultPageSize {
		return fmt.Errorf("API_MAX_PAGE_SIZE (%d) must be >= API_DEFAULT_PAGE_SIZE (%d)", c.API.MaxPageSize, c.API.DefaultPageSize)
	}
	if c.API.MaxBodyBytes <= 0 {
		return fmt.Errorf("API_MAX_BODY_BYTES must be positive")
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validateCORS rejects a wildcard origin in production.
func (c *Config) validateCORS() error {
	if c.IsProduction() && c.hasWildcardCORS() {
		return fmt.Errorf("CORS_ORIGINS must list explicit origins when ENVIRONMENT=production")
	}
	return nil
}

func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.API.CORSOrigins {
		if strings.TrimSpace(origin) == "*" {
			return true
		}
	}
	return false
}

func (c *Config) validateRateLimits() error {
	if c.API.RateLimitDisabled {
		return nil
	}
	if c.API.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1")
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	return nil
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateRender() error {
	r := c.Render
	if r.CenterLat < -90 || r.CenterLat > 90 || r.CenterLon < -180 || r.CenterLon > 180 {
		return fmt.Errorf("MAP_CENTER_LAT/MAP_CENTER_LON out of range")
	}
	if r.Zoom < 0 || r.Zoom > 19 {
		return fmt.Errorf("MAP_ZOOM must be between 0 and 19")
	}
	if r.ChartWidth < 100 || r.ChartHeight < 100 {
		return fmt.Errorf("CHART_WIDTH and CHART_HEIGHT must be at least 100")
	}
	return nil
}
