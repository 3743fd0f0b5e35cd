package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// localLayout is the backend's zone-less timestamp layout.
const localLayout = "2006-01-02T15:04:05"

// LocalDateTime is a wall-clock timestamp without a zone. Values parsed from
// the backend are interpreted in time.Local.
type LocalDateTime struct {
	time.Time
}

// NewLocalDateTime wraps t.
func NewLocalDateTime(t time.Time) LocalDateTime { return LocalDateTime{Time: t} }

func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(localLayout))
}

func (t *LocalDateTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("local date time: %w", err)
	}
	if s == "" {
		return nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = v
		return nil
	}
	// Fractional seconds are accepted by the layout even though it omits them.
	v, err := time.ParseInLocation(localLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("local date time %q: %w", s, err)
	}
	t.Time = v
	return nil
}

func (t LocalDateTime) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(localLayout)
}
