// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

// Package events carries domain notifications from request handlers and the
// background trainer to the WebSocket hub.
//
// Producers call Publisher.Publish; the Bus encodes the event onto an
// in-process watermill topic and returns immediately. The Forwarder, run as a
// supervised service, drains the topic and hands each event to a
// Broadcaster. Delivery is best effort: events published while nothing is
// subscribed are dropped.
package events

import (
	"context"
	"time"
)

// Type names a notification. The string is the "type" field of the
// WebSocket envelope.
type Type string

const (
	LandmarkCreated   Type = "landmark_created"
	LandmarkUpdated   Type = "landmark_updated"
	LandmarkDeleted   Type = "landmark_deleted"
	AnalysisCompleted Type = "analysis_completed"
	TrainingCompleted Type = "training_completed"
	TrainingFailed    Type = "training_failed"
	RealtimeAnalysis  Type = "realtime_analysis"
	DataImported      Type = "data_imported"
)

// Event is the envelope delivered to WebSocket clients.
type Event struct {
	Type      Type      `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New stamps an event with the current UTC time.
func New(typ Type, data any) Event {
	return Event{Type: typ, Data: data, Timestamp: time.Now().UTC()}
}

// Publisher accepts events without blocking the caller.
type Publisher interface {
	Publish(ctx context.Context, typ Type, data any)
}

// Broadcaster receives forwarded events.
type Broadcaster interface {
	Broadcast(ev Event)
}

// Discard is a Publisher that drops everything.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Type, any) {}

// Recorder collects published events in memory.
type Recorder struct {
	ch chan Event
}

// NewRecorder buffers up to size events; further publishes are dropped.
func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan Event, size)}
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, typ Type, data any) {
	select {
	case r.ch <- New(typ, data):
	default:
	}
}

// Broadcast implements Broadcaster.
func (r *Recorder) Broadcast(ev Event) {
	select {
	case r.ch <- ev:
	default:
	}
}

// Events exposes the recorded events in publish order.
func (r *Recorder) Events() <-chan Event {
	return r.ch
}
