// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tomtom215/geoexplorer/internal/logging"
)

// Topic is the watermill topic every event is published on.
const Topic = "geoexplorer.events"

// metadataType carries the event type so consumers can route without
// decoding the payload.
const metadataType = "event_type"

// Bus is an in-process pub/sub for events backed by a watermill GoChannel.
type Bus struct {
	pubsub *gochannel.GoChannel
	topic  string
}

// NewBus creates a bus whose subscribers buffer up to buffer messages.
func NewBus(buffer int64) *Bus {
	if buffer <= 0 {
		buffer = 256
	}
	logger := watermill.NewSlogLogger(logging.NewSlogLogger())
	return &Bus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: buffer}, logger),
		topic:  Topic,
	}
}

// Publish encodes the event and hands it to the pub/sub. Failures are
// logged; the caller never waits on subscribers.
func (b *Bus) Publish(ctx context.Context, typ Type, data any) {
	if err := b.PublishEvent(New(typ, data)); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("event_type", string(typ)).Msg("failed to publish event")
	}
}

// PublishEvent publishes a prepared event.
func (b *Bus) PublishEvent(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", ev.Type, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataType, string(ev.Type))
	if err := b.pubsub.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	return nil
}

// Subscribe returns the raw message stream. It closes when ctx is canceled
// or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, b.topic)
}

// Close stops the pub/sub and closes all subscriptions.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// Decode parses a message produced by PublishEvent.
func Decode(msg *message.Message) (Event, error) {
	var ev Event
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event %s: %w", msg.UUID, err)
	}
	if ev.Type == "" {
		ev.Type = Type(msg.Metadata.Get(metadataType))
	}
	return ev, nil
}
