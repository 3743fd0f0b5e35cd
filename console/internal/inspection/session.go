package inspection

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/pkg/types"
)

// SaveMode selects how Session.Save persists measurements.
type SaveMode string

const (
	// SaveItems sends one idempotent update per item.
	SaveItems SaveMode = "item"
	// SaveRecreate posts a whole new inspection carrying the edited items.
	SaveRecreate SaveMode = "recreate"
)

// Store is the backend surface a Session needs.
type Store interface {
	UpdateInspectionItem(ctx context.Context, inspectionID int64, item Item) (*Item, error)
	CreateInspection(ctx context.Context, req Request) (*Inspection, error)
	CompleteInspection(ctx context.Context, id int64, result types.Result) (*Inspection, error)
}

// Session binds an Evaluator to a fetched inspection.
type Session struct {
	Inspection *Inspection
	Eval       *Evaluator

	store Store
	mode  SaveMode
}

// NewSession starts editing in. An empty mode means SaveItems.
func NewSession(in *Inspection, st Store, mode SaveMode) *Session {
	if mode == "" {
		mode = SaveItems
	}
	return &Session{
		Inspection: in,
		Eval:       NewEvaluator(in.Items),
		store:      st,
		mode:       mode,
	}
}

// Apply overlays draft entries onto the session's items. Entries are matched
// by position and must reference the same standard; mismatches are skipped
// and counted. The drafted value is judged first and the drafted PASS or FAIL
// is then applied on top, so a manual override survives the round trip.
func (s *Session) Apply(draft []Item) (skipped int) {
	for i, d := range draft {
		cur, err := s.Eval.Item(i)
		if err != nil || cur.StandardID != d.StandardID {
			skipped++
			continue
		}
		if err := s.Eval.SetMeasuredValue(i, d.MeasuredValue); err != nil {
			skipped++
			continue
		}
		if d.Result == types.ResultPass || d.Result == types.ResultFail {
			_ = s.Eval.SetResult(i, d.Result)
		}
		_ = s.Eval.SetRemarks(i, d.Remarks)
	}
	return skipped
}

// Save persists the current items.
func (s *Session) Save(ctx context.Context) error {
	// Measurements may only change while the inspection can still complete.
	if err := Transition(s.Inspection.Status, types.InspectionCompleted); err != nil {
		return fmt.Errorf("inspection: save %d: %w", s.Inspection.ID, err)
	}
	items := s.Eval.Items()

	switch s.mode {
	case SaveRecreate:
		created, err := s.store.CreateInspection(ctx, RequestFor(s.Inspection, items))
		if err != nil {
			return fmt.Errorf("inspection: recreate %d: %w", s.Inspection.ID, err)
		}
		log.Info().
			Int64("old_id", s.Inspection.ID).
			Int64("new_id", created.ID).
			Msg("inspection: saved by recreation")
		s.Inspection = created
		s.Eval = NewEvaluator(created.Items)
		return nil

	case SaveItems:
		for i, it := range items {
			updated, err := s.store.UpdateInspectionItem(ctx, s.Inspection.ID, it)
			if err != nil {
				return fmt.Errorf("inspection: save item %d of %d: %w", i, s.Inspection.ID, err)
			}
			if updated != nil {
				items[i] = *updated
			}
		}
		s.Inspection.Items = items
		s.Eval = NewEvaluator(items)
		log.Info().
			Int64("id", s.Inspection.ID).
			Int("items", len(items)).
			Msg("inspection: items saved")
		return nil

	default:
		return errs.Validation("inspection.Save", "unknown save mode %q", s.mode)
	}
}

// Complete finalises the inspection. An empty result means the evaluator's
// overall result.
func (s *Session) Complete(ctx context.Context, result types.Result) (*Inspection, error) {
	if err := CompletionGuard(s.Inspection.Status); err != nil {
		return nil, err
	}
	if result == "" {
		r, ok := s.Eval.OverallResult()
		if !ok {
			return nil, errs.Validation("inspection.Complete", "inspection %d has no items", s.Inspection.ID)
		}
		result = r
	}
	if !result.Final() {
		return nil, errs.Validation("inspection.Complete", "result %q cannot complete an inspection", result)
	}

	done, err := s.store.CompleteInspection(ctx, s.Inspection.ID, result)
	if err != nil {
		return nil, fmt.Errorf("inspection: complete %d: %w", s.Inspection.ID, err)
	}
	s.Inspection = done
	return done, nil
}
