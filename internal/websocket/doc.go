// Geoexplorer - Italian Landmark Geospatial Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/geoexplorer

/*
Package websocket pushes live landmark, analysis and training events to
browser clients.

It uses gorilla/websocket with a hub-client architecture:

	events.Bus -> events.Forwarder -> Hub -> Client (one per connection)

Each client has two goroutines:
  - readPump: reads control messages, answers them, keeps the read deadline fresh
  - writePump: writes queued messages and periodic pings

Message envelope (both directions):

	{"type": "landmark_created", "data": {...}, "timestamp": "2026-03-01T12:00:00Z"}

Control messages:

	{"type":"ping"}                          -> {"type":"pong","timestamp":...}
	{"type":"subscribe","channel":"x"}      -> {"type":"subscribed","channel":"x",...}

Subscriptions are acknowledged only. Every connected client receives every
broadcast.

Delivery is best effort. Broadcast and BroadcastJSON never block the caller;
when the hub queue is full the message is dropped. A client whose own send
buffer is full is disconnected while the rest still receive the message.
Clients are visited in connection order.

Lifecycle:

RunWithContext owns the client set and runs under the supervisor tree. On
cancellation it closes every client and returns ctx.Err().
*/
package websocket
