package statusapi

import (
	"fmt"
	"sort"
	"time"

	"github.com/mesboard/mesboard/console/internal/alerts"
	"github.com/mesboard/mesboard/console/internal/stream"
	"github.com/mesboard/mesboard/pkg/types"
)

// staleAfter is how long a connected stream may go without a message before
// a hint is raised.
const staleAfter = time.Minute

// DiagnosticHint is one operator-facing observation about console health.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier.
	Key string `json:"key"`
	// Level is "info", "warning" or "critical".
	Level  string `json:"level"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

var levelRank = map[string]int{"critical": 0, "warning": 1, "info": 2}

// computeDiagnostics derives hints from the stream status, poll errors and
// alerts. Hints are ordered critical first.
func computeDiagnostics(st stream.Status, pollErrs map[string]string, active []alerts.Alert, now time.Time) []DiagnosticHint {
	hints := []DiagnosticHint{}

	switch st.State {
	case types.ConnErrored:
		hints = append(hints, DiagnosticHint{
			Key:   "stream_errored",
			Level: "critical",
			Title: "Live stream failed",
			Detail: fmt.Sprintf("The push channel %q failed with: %s. Live values are frozen until "+
				"the stream is reconnected (POST /api/v1/stream/reconnect or SIGHUP).", st.Key, st.LastError),
		})
	case types.ConnDisconnected:
		hints = append(hints, DiagnosticHint{
			Key:    "stream_disconnected",
			Level:  "warning",
			Title:  "Live stream off",
			Detail: "No push channel is open. Only polled values are refreshed.",
		})
	case types.ConnConnecting:
		hints = append(hints, DiagnosticHint{
			Key:    "stream_connecting",
			Level:  "info",
			Title:  "Connecting",
			Detail: fmt.Sprintf("Waiting for the backend to open %q.", st.Key),
		})
	case types.ConnConnected:
		if st.LastMessageAt != nil && now.Sub(*st.LastMessageAt) > staleAfter {
			hints = append(hints, DiagnosticHint{
				Key:   "stream_quiet",
				Level: "warning",
				Title: "No recent updates",
				Detail: fmt.Sprintf("The stream is open but the last message arrived %s ago.",
					now.Sub(*st.LastMessageAt).Truncate(time.Second)),
			})
		}
	}

	fields := make([]string, 0, len(pollErrs))
	for f := range pollErrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		hints = append(hints, DiagnosticHint{
			Key:    "poll_failed:" + f,
			Level:  "warning",
			Title:  "Refresh failing",
			Detail: fmt.Sprintf("Polling %s failed: %s. The last good value is kept.", f, pollErrs[f]),
		})
	}

	for _, a := range active {
		if a.State != alerts.StateFiring {
			continue
		}
		level := "warning"
		if a.Severity == "critical" {
			level = "critical"
		}
		hints = append(hints, DiagnosticHint{
			Key:    "alert:" + a.RuleName + ":" + a.Resource,
			Level:  level,
			Title:  a.RuleName,
			Detail: a.Message,
		})
	}

	sort.SliceStable(hints, func(i, j int) bool { return levelRank[hints[i].Level] < levelRank[hints[j].Level] })
	return hints
}

// healthState summarises hints into one word.
func healthState(hints []DiagnosticHint) string {
	state := "healthy"
	for _, h := range hints {
		switch h.Level {
		case "critical":
			return "unhealthy"
		case "warning":
			state = "degraded"
		}
	}
	return state
}
