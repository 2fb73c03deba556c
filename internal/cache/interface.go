// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/geoexplorer/internal/config"
	"github.com/tomtom215/geoexplorer/internal/logging"
)

// Cacher stores encoded values by key.
//
// A backend that cannot be reached reports a miss from Get and drops Set,
// so a cache outage only costs a recomputation.
type Cacher interface {
	// Get returns the value stored under key, if present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key with the cache's TTL.
	Set(ctx context.Context, key string, value []byte)

	// Clear removes every entry owned by this cache.
	Clear(ctx context.Context)

	// Name labels metrics and logs.
	Name() string
}

// Default sizing used when the configuration leaves a field at zero.
const (
	DefaultSize = 128
	DefaultTTL  = 5 * time.Minute
)

// New returns the redis cache when cfg.RedisAddr is set and the in-process
// LRU otherwise. A redis server that does not answer a ping is an error.
func New(ctx context.Context, cfg config.CacheConfig) (Cacher, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.RedisAddr == "" {
		size := cfg.Size
		if size <= 0 {
			size = DefaultSize
		}
		return NewLRU(size, cfg.TTL), nil
	}

	r := NewRedis(RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.TTL,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.Ping(pingCtx); err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("redis cache at %s unreachable: %w", cfg.RedisAddr, err)
	}
	logging.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("Statistics cache backed by redis")
	return r, nil
}

// Verify interface implementations at compile time
var (
	_ Cacher = (*LRU)(nil)
	_ Cacher = (*Redis)(nil)
)
