// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

var (
	// Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_query_duration_seconds",
			Help:    "Duration of landmark store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_query_errors_total",
			Help: "Total number of landmark store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBReconnects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_reconnects_total",
			Help: "Reconnect attempts after a lost store connection",
		},
		[]string{"driver", "result"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently being served",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"endpoint"},
	)

	// Analysis Metrics
	AnalysisRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spatial_analysis_runs_total",
			Help: "Spatial analysis runs by type and outcome",
		},
		[]string{"analysis_type", "outcome"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spatial_analysis_duration_seconds",
			Help:    "Spatial analysis duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"analysis_type"},
	)

	AnalysisFeatures = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spatial_analysis_features",
			Help:    "Number of features per analysis run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
		[]string{"analysis_type"},
	)

	// Model Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_training_runs_total",
			Help: "Model training runs by model type and outcome",
		},
		[]string{"model_type", "outcome", "error_type"},
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ml_training_duration_seconds",
			Help:    "Model training duration in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		},
		[]string{"model_type"},
	)

	Predictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ml_predictions_total",
			Help: "Predictions served by model type and outcome",
		},
		[]string{"model_type", "outcome", "error_type"},
	)

	// Import Metrics
	ImportRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "data_import_runs_total",
			Help: "Data imports by source format and outcome",
		},
		[]string{"format", "outcome"},
	)

	ImportedFeatures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "data_imported_features_total",
			Help: "Features read by imports",
		},
		[]string{"format"},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	CacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_invalidations_total",
			Help: "Total number of cache invalidations",
		},
		[]string{"cache"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Messages queued to WebSocket clients by type",
		},
		[]string{"type"},
	)

	WSMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Messages received from WebSocket clients by type",
		},
		[]string{"type"},
	)

	WSClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_clients_dropped_total",
			Help: "Clients disconnected because their send buffer was full",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)
)

// errorType labels an error by its category so label cardinality stays
// bounded.
func errorType(err error) string {
	if err == nil {
		return ""
	}
	if kind := geoerr.KindOf(err); kind != "" {
		return string(kind)
	}
	return "other"
}

func outcome(err error) string {
	if err != nil {
		return outcomeFailure
	}
	return outcomeSuccess
}

// RecordDBQuery records a store query.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table, errorType(err)).Inc()
	}
}

// RecordReconnect records a reconnect attempt.
func RecordReconnect(driver string, err error) {
	DBReconnects.WithLabelValues(driver, outcome(err)).Inc()
}

// RecordAPIRequest records an API request.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordAnalysis records one spatial analysis run.
func RecordAnalysis(analysisType string, features int, duration time.Duration, err error) {
	AnalysisRuns.WithLabelValues(analysisType, outcome(err)).Inc()
	AnalysisDuration.WithLabelValues(analysisType).Observe(duration.Seconds())
	AnalysisFeatures.WithLabelValues(analysisType).Observe(float64(features))
}

// RecordTraining records one training run.
func RecordTraining(modelType string, duration time.Duration, err error) {
	TrainingRuns.WithLabelValues(modelType, outcome(err), errorType(err)).Inc()
	TrainingDuration.WithLabelValues(modelType).Observe(duration.Seconds())
}

// RecordPrediction records one prediction request.
func RecordPrediction(modelType string, err error) {
	Predictions.WithLabelValues(modelType, outcome(err), errorType(err)).Inc()
}

// RecordImport records one import and the number of features it produced.
func RecordImport(format string, features int, err error) {
	ImportRuns.WithLabelValues(format, outcome(err)).Inc()
	if err == nil {
		ImportedFeatures.WithLabelValues(format).Add(float64(features))
	}
}

// RecordCacheLookup records a cache hit or miss.
func RecordCacheLookup(cache string, hit bool) {
	if hit {
		CacheHits.WithLabelValues(cache).Inc()
	} else {
		CacheMisses.WithLabelValues(cache).Inc()
	}
}

// RecordCacheInvalidation records a cache flush.
func RecordCacheInvalidation(cache string) {
	CacheInvalidations.WithLabelValues(cache).Inc()
}

// RecordBreakerTransition records a circuit breaker state change.
// States use the gobreaker order: 0 closed, 1 half-open, 2 open.
func RecordBreakerTransition(name, from, to string, toState int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(toState))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}
