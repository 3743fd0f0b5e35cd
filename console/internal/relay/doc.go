// Package relay implements the WebSocket hub that rebroadcasts the console
// snapshot to local clients.
//
// New(console, interval) creates a Hub. Hub.Run(ctx) starts the broadcast
// ticker and blocks until ctx is cancelled, then closes all connections.
// Hub.ServeHTTP upgrades a connection, sends the current snapshot at once,
// then streams one on every tick.
//
// Message format sent to clients:
//
//	{
//	  "event": "snapshot",
//	  "data":  { /* same schema as GET /api/v1/snapshot */ }
//	}
//
// A peer whose queue is full is dropped. The upgrader accepts all
// origins; the console listens on a local port.
package relay
