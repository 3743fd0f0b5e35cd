// Package apiclient is the typed client for the MES backend REST API.
//
// New(cfg) builds one http.Client for the configured auth mode
// (mtls|apikey|bearer|basic|none) and TLS options. Every request carries a
// fresh X-Request-ID and waits on a token-bucket limiter when
// api.rate_limit is set. Streams use StreamHTTPClient, which shares the
// transport but has no request timeout.
//
// Non-2xx responses are returned as *APIError. errors.Is(err, errs.ErrAPI)
// matches every APIError and errors.Is(err, errs.ErrNotFound) matches a 404.
//
// Endpoints are grouped by resource: workorders.go (work orders, products,
// processes, routing), equipment.go (equipment, defects, work results),
// dashboard.go (dashboard and statistics), lots.go and inspections.go.
package apiclient
