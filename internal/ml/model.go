// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ml

import (
	"strings"
	"time"

	"github.com/tomtom215/geoexplorer/internal/analysis"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
)

// ModelType names a prediction task. At most one model per type is live.
type ModelType string

const (
	Accessibility  ModelType = "accessibility"
	Classification ModelType = "classification"
	Clustering     ModelType = "clustering"
)

// ModelTypes lists every supported task in a fixed order.
var ModelTypes = []ModelType{Accessibility, Classification, Clustering}

// ParseModelType accepts a case-insensitive task name.
func ParseModelType(s string) (ModelType, error) {
	t := ModelType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ModelTypes {
		if t == known {
			return t, nil
		}
	}
	return "", geoerr.Validation("ml", "unsupported model type %q (want accessibility, classification or clustering)", s)
}

// Confidence sources reported with every prediction.
const (
	ConfidenceVoteFraction = "vote_fraction"
	ConfidencePlaceholder  = "placeholder"
)

// PlaceholderConfidence is reported for regression and clustering
// predictions. It is a constant, not an uncertainty estimate.
const PlaceholderConfidence = 0.8

// Model is a fitted task with the scaling and encoding needed to apply it.
// Exactly one of Forest or KMeans is set.
type Model struct {
	Type      ModelType               `json:"model_type"`
	Version   string                  `json:"model_version"`
	TrainedAt time.Time               `json:"trained_at"`
	Scaler    analysis.StandardScaler `json:"scaler"`
	Encoder   *LabelEncoder           `json:"encoder,omitempty"`
	Forest    *Forest                 `json:"forest,omitempty"`
	KMeans    *analysis.KMeansModel   `json:"kmeans,omitempty"`
	Report    *TrainingReport         `json:"report"`
}

// Prediction is the result of applying a model to one vector.
type Prediction struct {
	ModelType        ModelType `json:"model_type"`
	Prediction       any       `json:"prediction"` // float64, class name or cluster label
	Confidence       float64   `json:"confidence"`
	ConfidenceSource string    `json:"confidence_source"`
	ModelVersion     string    `json:"model_version"`
	Timestamp        time.Time `json:"timestamp"`
}

// RegressionScores evaluates one regressor on the held-out rows.
type RegressionScores struct {
	MSE    float64  `json:"mse"`
	R2     float64  `json:"r2"`
	CVMean *float64 `json:"cv_mean,omitempty"` // Nil when the training split is too small to fold
	CVStd  *float64 `json:"cv_std,omitempty"`
}

// ClusteringScores describes one clustering candidate.
type ClusteringScores struct {
	NClusters  int     `json:"n_clusters"`
	Silhouette float64 `json:"silhouette_score"` // -1 when undefined
	Labels     []int   `json:"labels"`
}

// TrainingReport summarizes a training run.
type TrainingReport struct {
	ModelType       ModelType                   `json:"model_type"`
	ModelVersion    string                      `json:"model_version"`
	TrainingSamples int                         `json:"training_samples"`
	TestSamples     int                         `json:"test_samples"`
	Regression      map[string]RegressionScores `json:"results,omitempty"`
	Clustering      map[string]ClusteringScores `json:"clustering_results,omitempty"`
	Accuracy        *float64                    `json:"accuracy,omitempty"`
	Classes         []string                    `json:"classes,omitempty"`
	BestModel       string                      `json:"best_model"`
	TrainedAt       time.Time                   `json:"trained_at"`
	DurationMs      int64                       `json:"duration_ms"`
}

// Evaluation scores a live model against a new collection.
type Evaluation struct {
	ModelType    ModelType `json:"model_type"`
	MSE          *float64  `json:"mse,omitempty"`
	R2           *float64  `json:"r2,omitempty"`
	Accuracy     *float64  `json:"accuracy,omitempty"`
	Predictions  []any     `json:"predictions"`
	NPredictions int       `json:"n_predictions"`
}

// ModelInfo is the public status of one task.
type ModelInfo struct {
	ModelType        ModelType       `json:"model_type"`
	Trained          bool            `json:"trained"`
	ScalerAvailable  bool            `json:"scaler_available"`
	EncoderAvailable bool            `json:"encoder_available"`
	ModelVersion     string          `json:"model_version,omitempty"`
	TrainedAt        *time.Time      `json:"trained_at,omitempty"`
	Report           *TrainingReport `json:"report,omitempty"`
}

func (m *Model) info() ModelInfo {
	at := m.TrainedAt
	return ModelInfo{
		ModelType:        m.Type,
		Trained:          true,
		ScalerAvailable:  len(m.Scaler.Mean) > 0,
		EncoderAvailable: m.Encoder != nil,
		ModelVersion:     m.Version,
		TrainedAt:        &at,
		Report:           m.Report,
	}
}

// apply runs the model on an already scaled vector.
func (m *Model) apply(x []float64) (value any, confidence float64, source string) {
	switch {
	case m.KMeans != nil:
		return m.KMeans.Predict(x), PlaceholderConfidence, ConfidencePlaceholder
	case m.Forest != nil && m.Forest.Classes > 0:
		class, frac := m.Forest.Vote(x)
		label := any(class)
		if m.Encoder != nil {
			label = m.Encoder.Inverse(class)
		}
		return label, frac, ConfidenceVoteFraction
	case m.Forest != nil:
		return m.Forest.Predict(x), PlaceholderConfidence, ConfidencePlaceholder
	}
	return nil, 0, ConfidencePlaceholder
}
