// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

/*
Package cache caches computed summaries such as the landmark statistics.

Two backends implement Cacher:

  - LRU: in-process, bounded by entry count with a per-entry TTL
    (hashicorp/golang-lru/v2 expirable)
  - Redis: shared between replicas, keys namespaced by a prefix
    (redis/go-redis/v9), selected when cache.redis_addr is set

Values are stored JSON encoded so both backends behave the same. Fetch wraps
the read-through pattern and records hit/miss metrics; Invalidate is called
by every landmark write:

	stats, err := cache.Fetch(ctx, c, "statistics", store.Statistics)
	...
	cache.Invalidate(ctx, c)
*/
package cache
