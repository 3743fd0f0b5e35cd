package alerts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Condition is a parsed "field op value" expression.
type Condition struct {
	Field string
	Op    string

	// Number is set when the right-hand side is numeric.
	Number   float64
	IsNumber bool

	// Text is the raw right-hand side.
	Text string
}

var numericOps = map[string]bool{">": true, ">=": true, "<": true, "<=": true, "==": true, "!=": true}

// ParseCondition parses expressions such as:
//
//	temperature > 80
//	vibration >= 2.5
//	pressure < 1
//	status == ALARM
//	status != RUN
func ParseCondition(s string) (Condition, error) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return Condition{}, fmt.Errorf("condition %q: want \"field op value\"", s)
	}
	c := Condition{Field: parts[0], Op: parts[1], Text: parts[2]}
	if !numericOps[c.Op] {
		return Condition{}, fmt.Errorf("condition %q: unknown operator %q", s, c.Op)
	}
	if v, err := strconv.ParseFloat(c.Text, 64); err == nil {
		c.Number, c.IsNumber = v, true
	} else if c.Op != "==" && c.Op != "!=" {
		return Condition{}, fmt.Errorf("condition %q: %s needs a numeric value", s, c.Op)
	}
	return c, nil
}

func (c Condition) String() string { return c.Field + " " + c.Op + " " + c.Text }

// Eval tests the condition against fields. present is false when the field
// is missing or has an incompatible type; the rule is then left as is.
// value is the numeric field value, or 0 for text comparisons.
func (c Condition) Eval(fields map[string]json.RawMessage) (fires bool, value float64, present bool) {
	raw, ok := fields[c.Field]
	if !ok {
		return false, 0, false
	}

	if c.IsNumber {
		var v float64
		if err := json.Unmarshal(raw, &v); err != nil {
			return false, 0, false
		}
		return compareFloat(v, c.Op, c.Number), v, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return false, 0, false
	}
	eq := strings.EqualFold(s, c.Text)
	if c.Op == "!=" {
		return !eq, 0, true
	}
	return eq, 0, true
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	case "!=":
		return v != threshold
	default:
		return false
	}
}
