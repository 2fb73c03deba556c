// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package cache

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/metrics"
)

// Fetch returns the value cached under key, or calls load, caches its
// result and returns it. Load errors are returned and never cached.
func Fetch[T any](ctx context.Context, c Cacher, key string, load func(context.Context) (*T, error)) (*T, error) {
	if data, ok := c.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			metrics.RecordCacheLookup(c.Name(), true)
			return &v, nil
		}
		logging.Ctx(ctx).Warn().Str("key", key).Msg("Discarding undecodable cache entry")
	}
	metrics.RecordCacheLookup(c.Name(), false)

	v, err := load(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	c.Set(ctx, key, data)
	return v, nil
}

// Invalidate clears c after a write.
func Invalidate(ctx context.Context, c Cacher) {
	c.Clear(ctx)
	metrics.RecordCacheInvalidation(c.Name())
}

// GenerateKey creates a cache key from the method name and parameters
func GenerateKey(method string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", method, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}
