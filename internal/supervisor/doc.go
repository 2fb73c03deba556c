// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

/*
Package supervisor runs the long-lived parts of geoexplorer under suture v4.

	geoexplorer
	├── data-layer
	│   └── output-cleanup       removes stale map and dashboard files
	├── messaging-layer
	│   ├── websocket-hub        client registry and fan-out
	│   └── event-forwarder      watermill topic -> hub
	└── api-layer
	    └── http-server

A failing service is restarted with suture's backoff; the other layers
keep running. Supervisor events are logged through sutureslog, which takes
a *slog.Logger, so callers pass logging.NewSlogLogger().

The service adapters live in the services subpackage and depend only on
small interfaces, not on the concrete hub or server types.
*/
package supervisor
