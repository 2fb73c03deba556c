// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"net/http"

	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/ml"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// TrainStatusInProgress is reported by an accepted training request.
const TrainStatusInProgress = "training_in_progress"

// TrainModel handles POST /api/ml/train.
//
// The collection is loaded and size-checked synchronously; fitting happens
// in the background and the outcome arrives as a training_completed or
// training_failed event carrying the returned job_id.
func (h *Handler) TrainModel(w http.ResponseWriter, r *http.Request) {
	var req TrainRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)

	typ, err := ml.ParseModelType(req.ModelType)
	if err != nil {
		rw.DomainError(err)
		return
	}
	features, err := h.requestFeatures(r.Context(), req.TrainingData, "")
	if err != nil {
		rw.DomainError(err)
		return
	}
	if len(features) < ml.MinTrainingRows {
		rw.DomainError(geoerr.ModelInput("api.train", "training needs at least %d features, got %d", ml.MinTrainingRows, len(features)))
		return
	}

	jobID := h.trainer.Submit(features, typ)
	logging.Ctx(r.Context()).Info().
		Str("job_id", jobID).
		Str("model_type", string(typ)).
		Int("features", len(features)).
		Msg("Training job submitted")

	rw.Accepted(models.TrainingAccepted{
		Status:       TrainStatusInProgress,
		JobID:        jobID,
		ModelType:    string(typ),
		FeatureCount: len(features),
	})
}

// predictResponse lists one prediction per input feature, or a single one
// for a raw vector.
type predictResponse struct {
	ModelType   ml.ModelType     `json:"model_type"`
	Predictions []*ml.Prediction `json:"predictions"`
	Count       int              `json:"n_predictions"`
}

// Predict handles POST /api/ml/predict. The body carries either a feature
// collection or a raw feature vector.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	var req PredictRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)
	ctx := r.Context()

	typ, err := ml.ParseModelType(req.ModelType)
	if err != nil {
		rw.DomainError(err)
		return
	}

	var vectors [][]float64
	switch {
	case req.Vector != nil:
		vectors = [][]float64{req.Vector}
	case req.Features != nil:
		features, err := loadCollection(req.Features)
		if err != nil {
			rw.DomainError(err)
			return
		}
		vectors = ml.Vectors(features)
	default:
		rw.DomainError(geoerr.Validation("api.predict", "either features or vector is required"))
		return
	}
	if len(vectors) == 0 {
		rw.DomainError(geoerr.ModelInput("api.predict", "no features to predict"))
		return
	}

	out := predictResponse{ModelType: typ, Predictions: make([]*ml.Prediction, 0, len(vectors))}
	for _, v := range vectors {
		p, err := h.models.Predict(ctx, typ, v)
		if err != nil {
			rw.DomainError(err)
			return
		}
		out.Predictions = append(out.Predictions, p)
	}
	out.Count = len(out.Predictions)
	rw.Success(out)
}

// EvaluateModel handles POST /api/ml/evaluate: it scores the live model on a
// new collection.
func (h *Handler) EvaluateModel(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	rw := NewResponseWriter(w, r)

	typ, err := ml.ParseModelType(req.ModelType)
	if err != nil {
		rw.DomainError(err)
		return
	}
	features, err := loadCollection(req.Features)
	if err != nil {
		rw.DomainError(err)
		return
	}
	eval, err := h.models.Evaluate(r.Context(), features, typ)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(eval)
}

// ModelInfo handles GET /api/ml/models.
func (h *Handler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.models.Info())
}
