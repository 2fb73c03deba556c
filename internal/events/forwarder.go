// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package events

import (
	"context"
	"fmt"

	"github.com/tomtom215/geoexplorer/internal/logging"
)

// Forwarder relays every event on a Bus to a Broadcaster. It implements
// suture.Service.
type Forwarder struct {
	bus  *Bus
	sink Broadcaster
	name string
}

// NewForwarder creates a forwarder from bus to sink.
func NewForwarder(bus *Bus, sink Broadcaster) *Forwarder {
	return &Forwarder{bus: bus, sink: sink, name: "event-forwarder"}
}

// Serve subscribes to the bus and forwards until ctx is canceled. A closed
// subscription returns an error so the supervisor restarts the forwarder.
func (f *Forwarder) Serve(ctx context.Context) error {
	messages, err := f.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", f.bus.topic, err)
	}
	logging.Info().Str("component", f.name).Str("topic", f.bus.topic).Msg("event forwarder started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Str("component", f.name).Msg("event forwarder stopped")
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("subscription to %s closed", f.bus.topic)
			}
			ev, err := Decode(msg)
			if err != nil {
				logging.Warn().Err(err).Str("component", f.name).Msg("dropping undecodable event")
				msg.Ack()
				continue
			}
			f.sink.Broadcast(ev)
			msg.Ack()
		}
	}
}

// String implements fmt.Stringer for suture logs.
func (f *Forwarder) String() string {
	return f.name
}
