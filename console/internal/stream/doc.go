// Package stream implements the live metric stream client.
//
// A Client holds at most one subscription to a server-push channel, keyed by
// a resource such as "dashboard" or "equipment/3". Incoming JSON payloads
// feed one rolling Window per metric (temperature, vibration, pressure),
// each capped at DefaultWindowCapacity samples with FIFO eviction.
//
// Connection state moves DISCONNECTED → CONNECTING → CONNECTED, or to
// ERRORED when the provider reports a failure. The client never reconnects
// on its own; Reconnect is an explicit caller action. A malformed message
// records a parse error and is dropped without touching the state.
//
// Providers deliver callbacks from their own goroutines. Each subscription
// is tagged with a generation number, and callbacks from a superseded
// subscription are ignored, so a resource switch never mixes samples.
//
// Two providers are included:
//
//	SSEProvider        GET <base>/<key>/stream, text/event-stream
//	WebSocketProvider  ws(s)://<base>/<key>/stream, one JSON payload per frame
package stream
