// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package ml

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/geoerr"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/models"
)

// TrainingEvent is the payload of training_completed and training_failed.
type TrainingEvent struct {
	JobID     string          `json:"job_id"`
	ModelType ModelType       `json:"model_type"`
	Report    *TrainingReport `json:"report,omitempty"`
	Error     string          `json:"error,omitempty"`
	ErrorCode string          `json:"error_code,omitempty"`
}

// Trainer runs training jobs in the background. Jobs cannot be canceled;
// the outcome is only visible through the published events and the logs.
type Trainer struct {
	svc *Service
	pub events.Publisher
	wg  sync.WaitGroup
}

// NewTrainer creates a trainer that reports to pub.
func NewTrainer(svc *Service, pub events.Publisher) *Trainer {
	if pub == nil {
		pub = events.Discard
	}
	return &Trainer{svc: svc, pub: pub}
}

// Submit starts a training job and returns its id immediately.
func (t *Trainer) Submit(features []models.Feature, typ ModelType) string {
	jobID := uuid.NewString()
	ctx := logging.ContextWithCorrelationID(context.Background(), jobID)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		report, err := t.run(ctx, features, typ)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("model_type", string(typ)).Msg("background training failed")
			t.pub.Publish(ctx, events.TrainingFailed, TrainingEvent{
				JobID:     jobID,
				ModelType: typ,
				Error:     err.Error(),
				ErrorCode: string(geoerr.KindOf(err)),
			})
			return
		}
		t.pub.Publish(ctx, events.TrainingCompleted, TrainingEvent{JobID: jobID, ModelType: typ, Report: report})
	}()
	return jobID
}

func (t *Trainer) run(ctx context.Context, features []models.Feature, typ ModelType) (report *TrainingReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("training panicked: %v", r)
		}
	}()
	return t.svc.Train(ctx, features, typ)
}

// Wait blocks until every submitted job has finished.
func (t *Trainer) Wait() {
	t.wg.Wait()
}
