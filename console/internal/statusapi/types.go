package statusapi

import (
	"encoding/json"

	"github.com/mesboard/mesboard/console/internal/alerts"
	"github.com/mesboard/mesboard/console/internal/stream"
)

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	// State is "healthy", "degraded" or "unhealthy".
	State       string            `json:"state"`
	Stream      stream.Status     `json:"stream"`
	BoardFields int               `json:"board_fields"`
	PollErrors  map[string]string `json:"poll_errors,omitempty"`
	AlertCount  int               `json:"alert_count"`
	FiringCount int               `json:"firing_count"`
	Diagnostics []DiagnosticHint  `json:"diagnostics"`
}

// WindowResponse is one metric window.
type WindowResponse struct {
	Metric  string          `json:"metric"`
	Samples []stream.Sample `json:"samples"`
}

// BoardField is one entry of GET /api/v1/board.
type BoardField struct {
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
	Source    string          `json:"source"`
	UpdatedAt string          `json:"updated_at"` // RFC3339
}

// SnapshotResponse is the payload for GET /api/v1/snapshot and the relay
// broadcast.
type SnapshotResponse struct {
	Stream      stream.Status    `json:"stream"`
	Windows     []WindowResponse `json:"windows"`
	Board       []BoardField     `json:"board"`
	Alerts      []alerts.Alert   `json:"alerts"`
	GeneratedAt string           `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
