// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"net/http"
	"testing"

	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/ml"
	"github.com/tomtom215/geoexplorer/internal/models"
)

const zeroVector = `[0,0,0,0,0,0,0,0,0]`

func TestPredictErrors(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"untrained model", `{"model_type":"clustering","vector":` + zeroVector + `}`, http.StatusNotFound, ErrCodeModelNotFound},
		{"unknown model", `{"model_type":"regression","vector":` + zeroVector + `}`, http.StatusBadRequest, ErrCodeValidation},
		{"missing model type", `{"vector":` + zeroVector + `}`, http.StatusBadRequest, ErrCodeValidation},
		{"no input", `{"model_type":"clustering"}`, http.StatusBadRequest, ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, env.do(t, http.MethodPost, "/api/ml/predict", tt.body), tt.status, tt.code)
		})
	}
}

func TestTrainRejectsSmallCollections(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	body := `{"model_type":"clustering","training_data":` + pointCollection(romePoints...) + `}`
	expectError(t, env.do(t, http.MethodPost, "/api/ml/train", body), http.StatusUnprocessableEntity, ErrCodeModelInput)
	env.expectNoEvent(t)
}

func TestTrainThenPredict(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	var accepted models.TrainingAccepted
	expectData(t, env.do(t, http.MethodPost, "/api/ml/train", `{"model_type":"clustering"}`), http.StatusAccepted, &accepted)
	if accepted.Status != TrainStatusInProgress || accepted.JobID == "" {
		t.Fatalf("accepted = %+v", accepted)
	}
	if accepted.FeatureCount != 8 {
		t.Errorf("feature_count = %d, want the 8 stored landmarks", accepted.FeatureCount)
	}

	env.handler.trainer.Wait()
	ev := env.nextEvent(t)
	if ev.Type != events.TrainingCompleted {
		t.Fatalf("event = %s (%+v), want %s", ev.Type, ev.Data, events.TrainingCompleted)
	}
	if te, ok := ev.Data.(ml.TrainingEvent); !ok || te.JobID != accepted.JobID {
		t.Errorf("event data = %+v, want job %s", ev.Data, accepted.JobID)
	}

	var infos []ml.ModelInfo
	expectData(t, env.do(t, http.MethodGet, "/api/ml/models", ""), http.StatusOK, &infos)
	trained := false
	for _, info := range infos {
		if info.ModelType == ml.Clustering {
			trained = info.Trained
		}
	}
	if !trained {
		t.Errorf("clustering not reported as trained: %+v", infos)
	}

	var pred predictResponse
	body := `{"model_type":"clustering","features":` + pointCollection(romePoints...) + `}`
	expectData(t, env.do(t, http.MethodPost, "/api/ml/predict", body), http.StatusOK, &pred)
	if pred.Count != 3 || len(pred.Predictions) != 3 {
		t.Errorf("predictions = %d, want one per feature", pred.Count)
	}

	expectError(t, env.do(t, http.MethodPost, "/api/ml/predict", `{"model_type":"clustering","vector":[1,2]}`),
		http.StatusUnprocessableEntity, ErrCodeModelInput)
}

func TestEvaluateRequiresFeatures(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, newSeededStore())

	expectError(t, env.do(t, http.MethodPost, "/api/ml/evaluate", `{"model_type":"clustering"}`), http.StatusBadRequest, ErrCodeValidation)
	expectError(t, env.do(t, http.MethodPost, "/api/ml/evaluate", `{"model_type":"clustering","features":`+pointCollection(romePoints...)+`}`),
		http.StatusNotFound, ErrCodeModelNotFound)
}
