package ingest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/board"
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/console/internal/stream"
)

// equipmentStatusesField carries per-machine readings inside a dashboard
// payload.
const equipmentStatusesField = "equipmentStatuses"

// Evaluator checks alert rules against a resource's fields.
type Evaluator interface {
	Evaluate(resource string, fields map[string]json.RawMessage)
}

// Observer counts stream events.
type Observer interface {
	ObserveStream(ev stream.Event)
}

// Router fans stream payloads out to the board, alerts and telemetry.
// Nil collaborators are skipped.
type Router struct {
	board    *board.Board
	alerts   Evaluator
	observer Observer
}

// New returns a Router. Any argument may be nil.
func New(b *board.Board, alerts Evaluator, obs Observer) *Router {
	return &Router{board: b, alerts: alerts, observer: obs}
}

// Listener returns the stream.Listener that feeds this router.
func (r *Router) Listener() stream.Listener {
	return func(ev stream.Event) {
		if r.observer != nil {
			r.observer.ObserveStream(ev)
		}
		if ev.Kind != stream.EventPayload {
			return
		}
		if err := r.Accept(ev.Key, ev.Fields, ev.At); err != nil {
			log.Warn().Str("key", ev.Key).Err(err).Msg("ingest: payload rejected")
		}
	}
}

// Accept routes one payload received on key.
//
// The dashboard key merges fields at the top level of the board; any other
// key stores the whole object as the field named by the key.
func (r *Router) Accept(key string, fields map[string]json.RawMessage, at time.Time) error {
	key = stream.NormalizeKey(key)
	if key == "" {
		return errs.Validation("ingest: accept", "resource key is required")
	}
	if at.IsZero() {
		at = time.Now()
	}

	if r.board != nil {
		if err := r.store(key, fields, at); err != nil {
			return err
		}
	}

	if r.alerts != nil {
		r.alerts.Evaluate(key, fields)
		for res, f := range equipmentFields(fields) {
			r.alerts.Evaluate(res, f)
		}
	}
	return nil
}

func (r *Router) store(key string, fields map[string]json.RawMessage, at time.Time) error {
	if key == stream.DashboardResource {
		r.board.Merge("", fields, at, board.SourceStream)
		return nil
	}
	if _, err := r.board.PutValue(key, fields, at, board.SourceStream); err != nil {
		return fmt.Errorf("ingest: store %s: %w", key, err)
	}
	return nil
}

// equipmentFields splits a dashboard payload's equipment status list into
// per-machine field sets keyed by equipment resource.
func equipmentFields(fields map[string]json.RawMessage) map[string]map[string]json.RawMessage {
	raw, ok := fields[equipmentStatusesField]
	if !ok {
		return nil
	}
	var list []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil
	}
	out := make(map[string]map[string]json.RawMessage, len(list))
	for _, item := range list {
		var id int64
		if err := json.Unmarshal(item["equipmentId"], &id); err != nil || id == 0 {
			continue
		}
		out[stream.ResourceForEquipment(id)] = item
	}
	return out
}
