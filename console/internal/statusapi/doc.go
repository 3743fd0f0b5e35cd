// Package statusapi implements the console's local HTTP REST surface.
//
// New(ctx, console, auth) returns a gorilla/mux router serving:
//
//	GET  /api/v1/health               connection state, overall health, hints
//	GET  /api/v1/stream               key, state and last error
//	POST /api/v1/stream/connect?key=  switch to another resource
//	POST /api/v1/stream/reconnect     reconnect to the current resource
//	POST /api/v1/stream/disconnect    close the subscription
//	GET  /api/v1/windows              every rolling window
//	GET  /api/v1/windows/{metric}     one window; 404 for unknown metrics
//	GET  /api/v1/board                live board fields
//	GET  /api/v1/alerts               firing and recently resolved alerts
//	GET  /api/v1/snapshot             everything above in one document
//
// All endpoints respond with Content-Type: application/json and return 405
// for unsupported methods. When auth mode is apikey, /api/v1 requires the
// configured header. The caller mounts /ws/stream and /metrics on the same
// router, outside the API-key check.
package statusapi
