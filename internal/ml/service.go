// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package ml trains and serves the per-task landmark models.
//
// A Service holds at most one live model per ModelType behind an atomic
// pointer. Train builds a complete replacement (scaler, encoder, ensemble
// and report) before swapping it in, so concurrent Predict calls see either
// the old model or the new one and a failed run leaves the old one live.
//
// Models are random forests and gradient boosted CART trees for the
// accessibility and classification tasks and k-means for clustering, all
// trained with fixed seeds so identical inputs give identical models.
package ml

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"

	"github.com/tomtom215/geoexplorer/internal/analysis"
	"github.com/tomtom215/geoexplorer/internal/geo"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/metrics"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// Config tunes training.
type Config struct {
	Trees        int     // Random forest size
	Seed         int64   // Base seed for splits, bagging and k-means
	TestFraction float64 // Held-out share for evaluation
	Folds        int     // Cross-validation folds on the training split
	BoostStages  int
	LearningRate float64
	BoostDepth   int
	Clusters     int // k for the clustering task
}

// DefaultConfig returns the standard training settings.
func DefaultConfig() Config {
	return Config{
		Trees:        100,
		Seed:         42,
		TestFraction: 0.2,
		Folds:        5,
		BoostStages:  100,
		LearningRate: 0.1,
		BoostDepth:   3,
		Clusters:     3,
	}
}

// Service owns the live models.
type Service struct {
	cfg    Config
	store  Store
	models map[ModelType]*atomic.Pointer[Model]
}

// NewService creates a service. store may be nil to keep models in memory only.
func NewService(cfg Config, store Store) *Service {
	s := &Service{cfg: cfg, store: store, models: make(map[ModelType]*atomic.Pointer[Model], len(ModelTypes))}
	for _, t := range ModelTypes {
		s.models[t] = &atomic.Pointer[Model]{}
	}
	return s
}

func (s *Service) slot(op string, typ ModelType) (*atomic.Pointer[Model], error) {
	p, ok := s.models[typ]
	if !ok {
		return nil, geoerr.Validation(op, "unsupported model type %q", typ)
	}
	return p, nil
}

// Train fits a new model of typ on features and makes it live. On error the
// previous model, if any, stays in place.
func (s *Service) Train(ctx context.Context, features []models.Feature, typ ModelType) (report *TrainingReport, err error) {
	slot, err := s.slot("ml.train", typ)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { metrics.RecordTraining(string(typ), time.Since(start), err) }()

	if err := checkRows(features); err != nil {
		return nil, err
	}

	var m *Model
	switch typ {
	case Accessibility:
		m, err = s.fitAccessibility(ctx, features)
	case Classification:
		m, err = s.fitClassification(ctx, features)
	case Clustering:
		m, err = s.fitClustering(ctx, features)
	}
	if err != nil {
		return nil, err
	}

	m.Type = typ
	m.Version = uuid.NewString()
	m.TrainedAt = time.Now().UTC()
	m.Report.ModelType = typ
	m.Report.ModelVersion = m.Version
	m.Report.TrainedAt = m.TrainedAt
	m.Report.DurationMs = time.Since(start).Milliseconds()

	if s.store != nil {
		if err := s.store.Save(ctx, m); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("model_type", string(typ)).Msg("failed to persist trained model")
		}
	}
	slot.Store(m)

	logging.Ctx(ctx).Info().
		Str("model_type", string(typ)).
		Str("model_version", m.Version).
		Int("training_samples", m.Report.TrainingSamples).
		Int64("duration_ms", m.Report.DurationMs).
		Msg("model trained")
	return m.Report, nil
}

func (s *Service) fitAccessibility(ctx context.Context, features []models.Feature) (*Model, error) {
	x := Vectors(features)
	y := AccessibilityTargets(features)
	train, test := TrainTestSplit(len(x), s.cfg.TestFraction, s.cfg.Seed)

	var scaler analysis.StandardScaler
	xTrain := scaler.FitTransform(selectRows(x, train))
	xTest := scaler.Transform(selectRows(x, test))
	yTrain, yTest := selectValues(y, train), selectValues(y, test)

	fitRF := func(ctx context.Context, x [][]float64, y []float64) (func([][]float64) []float64, error) {
		f, err := fitForest(ctx, x, y, forestConfig{trees: s.cfg.Trees, seed: s.cfg.Seed})
		if err != nil {
			return nil, err
		}
		return f.PredictAll, nil
	}
	fitGB := func(ctx context.Context, x [][]float64, y []float64) (func([][]float64) []float64, error) {
		b, err := fitBoosting(ctx, x, y, boostConfig{stages: s.cfg.BoostStages, learningRate: s.cfg.LearningRate, maxDepth: s.cfg.BoostDepth})
		if err != nil {
			return nil, err
		}
		return b.PredictAll, nil
	}

	report := &TrainingReport{
		TrainingSamples: len(x),
		TestSamples:     len(test),
		Regression:      make(map[string]RegressionScores, 2),
		BestModel:       "random_forest",
	}
	forest, err := fitForest(ctx, xTrain, yTrain, forestConfig{trees: s.cfg.Trees, seed: s.cfg.Seed})
	if err != nil {
		return nil, err
	}
	report.Regression["random_forest"], err = s.regressionScores(ctx, forest.PredictAll, fitRF, xTrain, yTrain, xTest, yTest)
	if err != nil {
		return nil, err
	}

	gb, err := fitGB(ctx, xTrain, yTrain)
	if err != nil {
		return nil, err
	}
	report.Regression["gradient_boosting"], err = s.regressionScores(ctx, gb, fitGB, xTrain, yTrain, xTest, yTest)
	if err != nil {
		return nil, err
	}

	return &Model{Scaler: scaler, Forest: forest, Report: report}, nil
}

type regressorFit func(ctx context.Context, x [][]float64, y []float64) (func([][]float64) []float64, error)

// regressionScores scores a fitted regressor on the held-out rows and runs
// k-fold cross validation on the training rows.
func (s *Service) regressionScores(ctx context.Context, predict func([][]float64) []float64, fit regressorFit,
	xTrain [][]float64, yTrain []float64, xTest [][]float64, yTest []float64) (RegressionScores, error) {
	pred := predict(xTest)
	scores := RegressionScores{MSE: MSE(yTest, pred), R2: R2(yTest, pred)}

	folds := KFold(len(xTrain), s.cfg.Folds)
	if len(folds) < 2 {
		return scores, nil
	}
	cv := make([]float64, 0, len(folds))
	for _, fold := range folds {
		rest := complement(len(xTrain), fold)
		p, err := fit(ctx, selectRows(xTrain, rest), selectValues(yTrain, rest))
		if err != nil {
			return scores, err
		}
		cv = append(cv, R2(selectValues(yTrain, fold), p(selectRows(xTrain, fold))))
	}
	mean, std := stat.PopMeanStdDev(cv, nil)
	scores.CVMean, scores.CVStd = &mean, &std
	return scores, nil
}

func (s *Service) fitClassification(ctx context.Context, features []models.Feature) (*Model, error) {
	labels, err := classLabels(features)
	if err != nil {
		return nil, err
	}
	enc := &LabelEncoder{}
	enc.Fit(labels)
	codes, err := enc.Transform(labels)
	if err != nil {
		return nil, geoerr.Wrap(geoerr.KindModelInput, "ml.train", err)
	}
	y := make([]float64, len(codes))
	for i, c := range codes {
		y[i] = float64(c)
	}

	x := Vectors(features)
	train, test := TrainTestSplit(len(x), s.cfg.TestFraction, s.cfg.Seed)
	var scaler analysis.StandardScaler
	xTrain := scaler.FitTransform(selectRows(x, train))
	xTest := scaler.Transform(selectRows(x, test))

	forest, err := fitForest(ctx, xTrain, selectValues(y, train), forestConfig{
		trees:   s.cfg.Trees,
		seed:    s.cfg.Seed,
		classes: len(enc.Classes),
	})
	if err != nil {
		return nil, err
	}

	truth := make([]int, len(test))
	for i, j := range test {
		truth[i] = codes[j]
	}
	acc := Accuracy(truth, forest.VoteAll(xTest))
	report := &TrainingReport{
		TrainingSamples: len(x),
		TestSamples:     len(test),
		Accuracy:        &acc,
		Classes:         append([]string(nil), enc.Classes...),
		BestModel:       "random_forest",
	}
	return &Model{Scaler: scaler, Encoder: enc, Forest: forest, Report: report}, nil
}

func (s *Service) fitClustering(ctx context.Context, features []models.Feature) (*Model, error) {
	var scaler analysis.StandardScaler
	x := scaler.FitTransform(Vectors(features))

	k := min(s.cfg.Clusters, distinctRows(x))
	if k < 1 {
		return nil, geoerr.ModelInput("ml.train", "no distinct feature vectors to cluster")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	km := analysis.KMeans(x, k, s.cfg.Seed)
	db := analysis.DBSCAN(x, analysis.DefaultEps, analysis.DefaultMinSamples)

	report := &TrainingReport{
		TrainingSamples: len(x),
		Clustering: map[string]ClusteringScores{
			"kmeans": clusteringScores(x, km.Labels),
			"dbscan": clusteringScores(x, db),
		},
		BestModel: "kmeans",
	}
	return &Model{Scaler: scaler, KMeans: km, Report: report}, nil
}

func clusteringScores(x [][]float64, labels []int) ClusteringScores {
	distinct := make(map[int]struct{})
	for _, l := range labels {
		distinct[l] = struct{}{}
	}
	sil, ok := analysis.Silhouette(x, labels)
	if !ok {
		sil = -1
	}
	return ClusteringScores{NClusters: len(distinct), Silhouette: sil, Labels: labels}
}

func distinctRows(x [][]float64) int {
	seen := make(map[[geo.FeatureVectorLen]float64]struct{}, len(x))
	for _, r := range x {
		var key [geo.FeatureVectorLen]float64
		copy(key[:], r)
		seen[key] = struct{}{}
	}
	return len(seen)
}

// Predict applies the live model of typ to a raw feature vector.
func (s *Service) Predict(ctx context.Context, typ ModelType, vector []float64) (pred *Prediction, err error) {
	defer func() { metrics.RecordPrediction(string(typ), err) }()

	slot, err := s.slot("ml.predict", typ)
	if err != nil {
		return nil, err
	}
	m := slot.Load()
	if m == nil {
		return nil, geoerr.ModelNotFound("ml.predict", string(typ))
	}
	if len(vector) != geo.FeatureVectorLen {
		return nil, geoerr.ModelInput("ml.predict", "feature vector must have %d values, got %d", geo.FeatureVectorLen, len(vector))
	}
	for i, v := range vector {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, geoerr.ModelInput("ml.predict", "feature %d (%s) is not finite", i, geo.FeatureVectorNames[i])
		}
	}

	value, confidence, source := m.apply(m.Scaler.TransformRow(vector))
	return &Prediction{
		ModelType:        typ,
		Prediction:       value,
		Confidence:       confidence,
		ConfidenceSource: source,
		ModelVersion:     m.Version,
		Timestamp:        time.Now().UTC(),
	}, nil
}

// Evaluate scores the live model of typ on a new collection. Regression
// models report MSE and R2 against freshly computed targets; classifiers
// report accuracy when every type tag is one they know.
func (s *Service) Evaluate(ctx context.Context, features []models.Feature, typ ModelType) (*Evaluation, error) {
	slot, err := s.slot("ml.evaluate", typ)
	if err != nil {
		return nil, err
	}
	m := slot.Load()
	if m == nil {
		return nil, geoerr.ModelNotFound("ml.evaluate", string(typ))
	}
	if len(features) == 0 {
		return nil, geoerr.ModelInput("ml.evaluate", "no features to evaluate")
	}

	x := m.Scaler.Transform(Vectors(features))
	ev := &Evaluation{ModelType: typ, Predictions: make([]any, len(x)), NPredictions: len(x)}
	values := make([]float64, len(x))
	classes := make([]int, len(x))
	for i, r := range x {
		v, _, _ := m.apply(r)
		ev.Predictions[i] = v
		switch {
		case m.KMeans != nil:
		case m.Forest.Classes > 0:
			classes[i], _ = m.Forest.Vote(r)
		default:
			values[i] = v.(float64)
		}
	}

	switch {
	case typ == Accessibility && m.Forest != nil && m.Forest.Classes == 0:
		truth := AccessibilityTargets(features)
		mse, r2 := MSE(truth, values), R2(truth, values)
		ev.MSE, ev.R2 = &mse, &r2
	case m.Encoder != nil:
		labels := make([]string, len(features))
		for i := range features {
			labels[i] = features[i].Type
		}
		if truth, err := m.Encoder.Transform(labels); err == nil {
			acc := Accuracy(truth, classes)
			ev.Accuracy = &acc
		}
	}
	return ev, nil
}

// Info reports the status of every task in ModelTypes order.
func (s *Service) Info() []ModelInfo {
	out := make([]ModelInfo, 0, len(ModelTypes))
	for _, t := range ModelTypes {
		if m := s.models[t].Load(); m != nil {
			out = append(out, m.info())
			continue
		}
		out = append(out, ModelInfo{ModelType: t})
	}
	return out
}

// Trained lists the tasks that have a live model.
func (s *Service) Trained() []ModelType {
	var out []ModelType
	for _, t := range ModelTypes {
		if s.models[t].Load() != nil {
			out = append(out, t)
		}
	}
	return out
}

// LoadAll restores every persisted model and returns how many went live.
// Unknown or incomplete records are skipped.
func (s *Service) LoadAll(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	stored, err := s.store.LoadAll(ctx)
	if err != nil {
		return 0, geoerr.Persistence("ml.load", err)
	}
	var n int
	for _, m := range stored {
		slot, ok := s.models[m.Type]
		if !ok || (m.Forest == nil && m.KMeans == nil) || m.Report == nil {
			logging.Warn().Str("model_type", string(m.Type)).Msg("skipping unusable stored model")
			continue
		}
		slot.Store(m)
		n++
	}
	return n, nil
}

// Close releases the store.
func (s *Service) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}

// IsNotFound reports whether err means no model was available.
func IsNotFound(err error) bool {
	return errors.Is(err, geoerr.ErrModelNotFound)
}
