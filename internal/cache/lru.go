// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package cache

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU is an in-process cache bounded by entry count and TTL.
type LRU struct {
	entries *expirable.LRU[string, []byte]
	stats   counters
}

// Stats is a snapshot of cache activity.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	TotalKeys int64
}

type counters struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewLRU creates an LRU holding at most size entries for ttl each.
func NewLRU(size int, ttl time.Duration) *LRU {
	c := &LRU{}
	c.entries = expirable.NewLRU[string, []byte](size, func(string, []byte) {
		c.stats.evictions.Add(1)
	}, ttl)
	return c
}

// Name implements Cacher.
func (c *LRU) Name() string { return "lru" }

// Get implements Cacher.
func (c *LRU) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := c.entries.Get(key)
	if ok {
		c.stats.hits.Add(1)
	} else {
		c.stats.misses.Add(1)
	}
	return v, ok
}

// Set implements Cacher.
func (c *LRU) Set(_ context.Context, key string, value []byte) {
	c.entries.Add(key, value)
}

// Clear implements Cacher.
func (c *LRU) Clear(context.Context) {
	c.entries.Purge()
}

// GetStats returns hit, miss and eviction counts.
func (c *LRU) GetStats() Stats {
	return Stats{
		Hits:      c.stats.hits.Load(),
		Misses:    c.stats.misses.Load(),
		Evictions: c.stats.evictions.Load(),
		TotalKeys: int64(c.entries.Len()),
	}
}

// HitRate returns the cache hit rate as a percentage
func (c *LRU) HitRate() float64 {
	s := c.GetStats()
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}
	return float64(s.Hits) / float64(total) * 100.0
}
