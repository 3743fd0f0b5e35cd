// Package ingest routes stream events to the rest of the console. Every
// event is counted by telemetry; decoded payloads are merged into the board
// and evaluated against the alert rules.
package ingest
