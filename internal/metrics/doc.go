// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry at package init via
promauto and served by promhttp at /metrics:

	curl http://localhost:8000/metrics

# Available Metrics

HTTP Metrics:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status
  - api_request_duration_seconds: Request latency (histogram)
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rejected by httprate (counter)

Store Metrics:
  - store_query_duration_seconds, store_query_errors_total
    Labels: operation, table (error_type on errors)
  - store_reconnects_total: Labels: driver, result

Analysis and Model Metrics:
  - spatial_analysis_runs_total, spatial_analysis_duration_seconds,
    spatial_analysis_features. Labels: analysis_type
  - ml_training_runs_total, ml_training_duration_seconds,
    ml_predictions_total. Labels: model_type, outcome, error_type

Other:
  - data_import_runs_total, data_imported_features_total (format)
  - cache_hits_total, cache_misses_total, cache_invalidations_total (cache)
  - websocket_connections, websocket_messages_sent_total,
    websocket_messages_received_total, websocket_clients_dropped_total
  - circuit_breaker_state, circuit_breaker_state_transitions_total

Error labels use the geoerr category (for example VALIDATION_ERROR) or
"other", never the error text.

# Thread Safety

All recording functions are safe for concurrent use.
*/
package metrics
