package inspection

import (
	"strings"

	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/pkg/types"
)

// Evaluator owns the items of one in-progress inspection and recomputes
// their results as values change. It is not safe for concurrent use.
type Evaluator struct {
	items []Item
}

// NewEvaluator copies items. Items without a result start as PENDING.
func NewEvaluator(items []Item) *Evaluator {
	cp := make([]Item, len(items))
	copy(cp, items)
	for i := range cp {
		if cp[i].Result == "" {
			cp[i].Result = types.ResultPending
		}
	}
	return &Evaluator{items: cp}
}

// Len returns the number of items.
func (e *Evaluator) Len() int { return len(e.items) }

// Items returns a copy of the current items.
func (e *Evaluator) Items() []Item {
	out := make([]Item, len(e.items))
	copy(out, e.items)
	return out
}

// Item returns a copy of item i.
func (e *Evaluator) Item(i int) (Item, error) {
	if err := e.checkIndex("inspection.Item", i); err != nil {
		return Item{}, err
	}
	return e.items[i], nil
}

// SetMeasuredValue stores value for item i.
//
// An empty value clears the measurement and keeps the current result. A
// non-empty value must be a finite number. When both bounds are numeric the
// result becomes PASS or FAIL; otherwise it is kept, so a manual override on
// a qualitative item survives data entry.
func (e *Evaluator) SetMeasuredValue(i int, value string) error {
	const op = "inspection.SetMeasuredValue"
	if err := e.checkIndex(op, i); err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	it := &e.items[i]
	if value == "" {
		it.MeasuredValue = ""
		return nil
	}
	if _, ok := parseFinite(value); !ok {
		return errs.Validation(op, "measured value %q is not a finite number", value)
	}
	it.MeasuredValue = value
	if r, ok := Judge(value, it.LowerLimit, it.UpperLimit); ok {
		it.Result = r
	}
	return nil
}

// SetResult overrides the result of item i. Only PASS and FAIL are accepted.
func (e *Evaluator) SetResult(i int, r types.Result) error {
	const op = "inspection.SetResult"
	if err := e.checkIndex(op, i); err != nil {
		return err
	}
	switch r {
	case types.ResultPass, types.ResultFail:
		e.items[i].Result = r
		return nil
	case types.ResultPending, types.ResultConditionalPass:
		return errs.Validation(op, "result %s cannot be set on an item", r)
	default:
		return errs.Validation(op, "unknown result %q", r)
	}
}

// SetRemarks replaces the free-text remarks of item i.
func (e *Evaluator) SetRemarks(i int, remarks string) error {
	if err := e.checkIndex("inspection.SetRemarks", i); err != nil {
		return err
	}
	e.items[i].Remarks = remarks
	return nil
}

// OverallResult aggregates the current items. ok is false when there are none.
func (e *Evaluator) OverallResult() (types.Result, bool) {
	return Overall(e.items)
}

// Counts returns how many items are passed, failed and still pending.
func (e *Evaluator) Counts() (passed, failed, pending int) {
	for _, it := range e.items {
		switch it.Result {
		case types.ResultPass:
			passed++
		case types.ResultFail:
			failed++
		case types.ResultPending, types.ResultConditionalPass:
			pending++
		default:
			pending++
		}
	}
	return passed, failed, pending
}

func (e *Evaluator) checkIndex(op string, i int) error {
	if i < 0 || i >= len(e.items) {
		return errs.Validation(op, "item index %d out of range [0,%d)", i, len(e.items))
	}
	return nil
}
