// Package inspection holds the measurement evaluator for quality inspections.
//
// model.go defines Standard, Item and Inspection with the backend's JSON
// field names. An Item copies its bounds from the Standard when it is
// created, so later edits to a Standard never change a recorded result.
//
// judge.go holds the pure functions: Judge applies the inclusive range check
// and Overall aggregates item results. Bounds that do not parse as finite
// numbers (qualitative standards) make Judge report "cannot evaluate"
// instead of failing.
//
// evaluator.go wraps a slice of items for one in-progress inspection and is
// the only thing that mutates them:
//
//	SetMeasuredValue(i, raw)  store raw, re-judge when both bounds are numeric
//	SetResult(i, PASS|FAIL)   operator override, always applied
//	OverallResult()           FAIL > all PASS > CONDITIONAL_PASS; none if empty
//
// status.go guards the inspection lifecycle. CompletionGuard only admits
// PENDING; Transition validates the wider state machine.
//
// session.go binds an Evaluator to a fetched Inspection and a Store
// (implemented by apiclient) for saving items and completing the inspection.
package inspection
