package inspection

import (
	"math"
	"strconv"
	"strings"

	"github.com/mesboard/mesboard/pkg/types"
)

// parseFinite parses s as a float and rejects NaN and ±Inf, including
// overflowing literals such as "1e999".
func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Judge applies the inclusive range check lower ≤ value ≤ upper.
// ok is false when any of the three does not parse as a finite number; the
// caller must then leave the existing result alone.
func Judge(value, lower, upper string) (result types.Result, ok bool) {
	v, ok := parseFinite(value)
	if !ok {
		return "", false
	}
	lo, ok := parseFinite(lower)
	if !ok {
		return "", false
	}
	hi, ok := parseFinite(upper)
	if !ok {
		return "", false
	}
	if v >= lo && v <= hi {
		return types.ResultPass, true
	}
	return types.ResultFail, true
}

// Overall aggregates item results. ok is false for an empty slice.
// Any FAIL wins; all PASS gives PASS; anything else is CONDITIONAL_PASS.
func Overall(items []Item) (result types.Result, ok bool) {
	if len(items) == 0 {
		return "", false
	}
	allPass := true
	for _, it := range items {
		switch it.Result {
		case types.ResultFail:
			return types.ResultFail, true
		case types.ResultPass:
		case types.ResultPending, types.ResultConditionalPass:
			allPass = false
		default:
			allPass = false
		}
	}
	if allPass {
		return types.ResultPass, true
	}
	return types.ResultConditionalPass, true
}
