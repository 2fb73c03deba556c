// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

/*
Package main is the entry point for the Geoexplorer server.

Geoexplorer stores Italian landmarks with point geometries, answers
proximity and spatial analysis queries over them, trains small machine
learning models on their features, and renders interactive maps, charts
and an HTML dashboard.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("geoexplorer")
	├── DataSupervisor ("data-layer")
	│   └── Temp artifact cleanup
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub
	│   └── Event forwarder (watermill bus to hub)
	└── APISupervisor ("api-layer")
	    └── HTTP Server

Component initialization order:

 1. Configuration: Koanf v2 with .env, config file and environment variables
 2. Logging: zerolog with JSON or console output, optional rotated file
 3. Landmark store: DuckDB (spatial extension) or PostGIS
 4. Statistics cache: in-process LRU or redis
 5. Model service: BadgerDB model store, optional reload of saved models
 6. Event bus, WebSocket hub, renderer and importer
 7. HTTP Server: Chi router with middleware stack

# Configuration

	# Server
	HTTP_PORT=8000
	OUTPUT_DIR=./output          # rendered maps and dashboards
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Store
	DATABASE_DRIVER=duckdb       # duckdb or postgis
	DUCKDB_PATH=./data/geoexplorer.duckdb
	DATABASE_URL=postgres://...  # when DATABASE_DRIVER=postgis
	SEED_SAMPLE_DATA=true

	# Models
	MODEL_DIR=./models           # empty keeps models in memory

	# Cache
	REDIS_ADDR=localhost:6379    # empty uses the in-process LRU

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains in-flight
requests for up to 10 seconds, background training jobs finish, and the
store, model store and event bus are closed in that order.
*/
package main
