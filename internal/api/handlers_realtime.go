// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/geoexplorer/internal/events"
	"github.com/tomtom215/geoexplorer/internal/ingest"
	"github.com/tomtom215/geoexplorer/internal/logging"
	"github.com/tomtom215/geoexplorer/internal/models"
	ws "github.com/tomtom215/geoexplorer/internal/websocket"
)

// RealtimeProcess handles POST /api/realtime/process.
//
// The posted collection is summarized without touching the store and the
// summary is broadcast to WebSocket clients as a realtime_analysis event.
func (h *Handler) RealtimeProcess(w http.ResponseWriter, r *http.Request) {
	fc, ok := h.decodeCollection(w, r)
	if !ok {
		return
	}
	rw := NewResponseWriter(w, r)

	features, err := ingest.Load(fc)
	if err != nil {
		rw.DomainError(err)
		return
	}
	summary := models.RealtimeSummary{
		CollectionSummary: ingest.Summarize(features),
		Timestamp:         time.Now().UTC(),
	}

	h.publisher.Publish(r.Context(), events.RealtimeAnalysis, summary)
	rw.Success(summary)
}

// WebSocket handles GET /ws.
//
// The connection is registered with the hub and receives every published
// event until it disconnects.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		NewResponseWriter(w, r).ServiceUnavailable("websocket hub is not running")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logging.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	select {
	case h.wsHub.Register <- client:
	case <-r.Context().Done():
		_ = conn.Close()
		return
	}
	client.Start()
}
