package ingest

import (
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesboard/mesboard/console/internal/board"
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/console/internal/stream"
	"github.com/mesboard/mesboard/pkg/types"
)

type evalCall struct {
	resource string
	fields   map[string]json.RawMessage
}

type fakeAlerts struct{ calls []evalCall }

func (f *fakeAlerts) Evaluate(resource string, fields map[string]json.RawMessage) {
	f.calls = append(f.calls, evalCall{resource, fields})
}

func (f *fakeAlerts) resources() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.resource)
	}
	sort.Strings(out)
	return out
}

type fakeObserver struct{ kinds []stream.EventKind }

func (f *fakeObserver) ObserveStream(ev stream.Event) { f.kinds = append(f.kinds, ev.Kind) }

func decode(t *testing.T, s string) map[string]json.RawMessage {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestAccept_DashboardMergesTopLevel(t *testing.T) {
	b := board.New(time.Minute)
	al := &fakeAlerts{}
	r := New(b, al, nil)

	payload := decode(t, `{
		"todayProduction": {"totalQty": 100},
		"equipmentStatuses": [
			{"equipmentId": 1, "status": "RUN", "temperature": 60},
			{"equipmentId": 2, "status": "ALARM", "temperature": 95},
			{"status": "IDLE"}
		]
	}`)
	require.NoError(t, r.Accept("dashboard", payload, time.Now()))

	f, ok := b.Get("todayProduction")
	require.True(t, ok)
	assert.Equal(t, board.SourceStream, f.Source)
	assert.JSONEq(t, `{"totalQty":100}`, string(f.Value))

	assert.Equal(t, []string{"dashboard", "equipment/1", "equipment/2"}, al.resources())
	for _, c := range al.calls {
		if c.resource == "equipment/2" {
			assert.Equal(t, `"ALARM"`, string(c.fields["status"]))
		}
	}
}

func TestAccept_EquipmentStoredUnderKey(t *testing.T) {
	b := board.New(time.Minute)
	r := New(b, nil, nil)

	payload := decode(t, `{"id": 7, "status": "RUN", "temperature": 71.5}`)
	require.NoError(t, r.Accept("/equipment/7/", payload, time.Now()))

	f, ok := b.Get("equipment/7")
	require.True(t, ok)
	assert.JSONEq(t, `{"id":7,"status":"RUN","temperature":71.5}`, string(f.Value))
	_, ok = b.Get("temperature")
	assert.False(t, ok)
}

func TestAccept_EmptyKey(t *testing.T) {
	al := &fakeAlerts{}
	r := New(board.New(time.Minute), al, nil)
	err := r.Accept("  ", decode(t, `{"temperature": 1}`), time.Now())
	assert.True(t, errors.Is(err, errs.ErrValidation))
	assert.Empty(t, al.calls)
}

func TestAccept_PollDoesNotOverwriteNewerStream(t *testing.T) {
	b := board.New(time.Minute)
	r := New(b, nil, nil)
	now := time.Now()

	require.NoError(t, r.Accept("dashboard", decode(t, `{"stats": {"totalGoodQty": 2}}`), now))
	b.Put("stats", json.RawMessage(`{"totalGoodQty":1}`), now.Add(-time.Second), board.SourcePoll)

	f, _ := b.Get("stats")
	assert.Equal(t, board.SourceStream, f.Source)
}

func TestListener(t *testing.T) {
	b := board.New(time.Minute)
	al := &fakeAlerts{}
	obs := &fakeObserver{}
	l := New(b, al, obs).Listener()

	l(stream.Event{Kind: stream.EventState, State: types.ConnConnected})
	l(stream.Event{Kind: stream.EventParseError, Err: errors.New("bad")})
	l(stream.Event{Kind: stream.EventPayload, Key: "dashboard", Fields: decode(t, `{"pressure": 1.2}`), At: time.Now()})

	assert.Equal(t, []stream.EventKind{stream.EventState, stream.EventParseError, stream.EventPayload}, obs.kinds)
	assert.Len(t, al.calls, 1)
	_, ok := b.Get("pressure")
	assert.True(t, ok)
}
