package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesboard/mesboard/console/internal/alerts"
	"github.com/mesboard/mesboard/console/internal/board"
	"github.com/mesboard/mesboard/console/internal/config"
	"github.com/mesboard/mesboard/console/internal/stream"
	"github.com/mesboard/mesboard/pkg/types"
)

// --- fakes ------------------------------------------------------------------

type nopSub struct{}

func (nopSub) Close() error { return nil }

type fakeProvider struct {
	mu       sync.Mutex
	keys     []string
	handlers []stream.Handler
	err      error
}

func (p *fakeProvider) Subscribe(_ context.Context, key string, h stream.Handler) (stream.Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.keys = append(p.keys, key)
	p.handlers = append(p.handlers, h)
	return nopSub{}, nil
}

func (p *fakeProvider) last() stream.Handler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handlers[len(p.handlers)-1]
}

type fixture struct {
	provider *fakeProvider
	console  *Console
	srv      *httptest.Server
}

func newFixture(t *testing.T, auth config.ListenAuthConfig) *fixture {
	t.Helper()
	p := &fakeProvider{}
	eng, err := alerts.New(config.AlertsConfig{Rules: []config.AlertRule{
		{Name: "overheat", Condition: "temperature > 80", Severity: "critical"},
	}}, nil)
	require.NoError(t, err)

	c := &Console{
		Stream: stream.New(p),
		Board:  board.New(time.Minute),
		Alerts: eng,
	}
	srv := httptest.NewServer(New(context.Background(), c, auth))
	t.Cleanup(srv.Close)
	return &fixture{provider: p, console: c, srv: srv}
}

func (f *fixture) do(t *testing.T, method, path string, hdr http.Header) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, f.srv.URL+path, nil)
	require.NoError(t, err)
	for k, v := range hdr {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	m, _ := body.(map[string]any)
	return resp, m
}

func (f *fixture) getList(t *testing.T, path string) []any {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out []any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// --- tests ------------------------------------------------------------------

func TestHealth_DisconnectedIsDegraded(t *testing.T) {
	f := newFixture(t, config.ListenAuthConfig{})
	resp, body := f.do(t, http.MethodGet, "/api/v1/health", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "degraded", body["state"])
	st := body["stream"].(map[string]any)
	assert.Equal(t, "DISCONNECTED", st["state"])
}

func TestHealth_ConnectedIsHealthy(t *testing.T) {
	f := newFixture(t, config.ListenAuthConfig{})
	require.NoError(t, f.console.Stream.Connect(context.Background(), "dashboard"))
	f.provider.last().OnOpen()

	_, body := f.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, "healthy", body["state"])
	assert.Empty(t, body["diagnostics"])
}

func TestHealth_FiringCriticalAlertIsUnhealthy(t *testing.T) {
	f := newFixture(t, config.ListenAuthConfig{})
	require.NoError(t, f.console.Stream.Connect(context.Background(), "dashboard"))
	f.provider.last().OnOpen()
	f.console.Alerts.Evaluate("equipment/1", map[string]json.RawMessage{"temperature": json.RawMessage("91")})

	_, body := f.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, "unhealthy", body["state"])
	assert.Equal(t, 1.0, body["firing_count"])
	hints := body["diagnostics"].([]any)
	require.Len(t, hints, 1)
	assert.Equal(t, "alert:overheat:equipment/1", hints[0].(map[string]any)["key"])
}

func TestStreamEndpoints(t *testing.T) {
	f := newFixture(t, config.ListenAuthConfig{})

	resp, body := f.do(t, http.MethodPost, "/api/v1/stream/reconnect", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "reconnect with no key")
	assert.Contains(t, body["error"], "no resource")

	resp, _ = f.do(t, http.MethodPost, "/api/v1/stream/connect?key=equipment/4", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"equipment/4"}, f.provider.keys)

	f.provider.last().OnOpen()
	_, body = f.do(t, http.MethodGet, "/api/v1/stream", nil)
	assert.Equal(t, "equipment/4", body["key"])
	assert.Equal(t, "CONNECTED", body["state"])

	resp, _ = f.do(t, http.MethodPost, "/api/v1/stream/reconnect", nil)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, []string{"equipment/4", "equipment/4"}, f.provider.keys)

	_, body = f.do(t, http.MethodPost, "/api/v1/stream/disconnect", nil)
	assert.Equal(t, "DISCONNECTED", body["state"])

	resp, _ = f.do(t, http.MethodPost, "/api/v1/stream/connect", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "connect without key")
}

func TestStreamConnect_SubscribeFailure(t *testing.T) {
	f := newFixture(t, config.ListenAuthConfig{})
	f.provider.err = errors.New("connection refused")

	resp, body := f.do(t, http.MethodPost, "/api/v1/stream/connect?key=dashboard", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Contains(t, body["error"], "connection refused")
	assert.Equal(t, types.ConnErrored, f.console.Stream.State())
}

func TestWindows(t *testing.T) {
	f := newFixture(t, config.ListenAuthConfig{})
	require.NoError(t, f.console.Stream.Connect(context.Background(), "dashboard"))
	f.provider.last().OnOpen()
	f.provider.last().OnMessage([]byte(`{"temperature": 70.5, "pressure": 1.1}`))

	all := f.getList(t, "/api/v1/windows")
	assert.Len(t, all, len(types.MetricNames))

	_, body := f.do(t, http.MethodGet, "/api/v1/windows/temperature", nil)
	samples := body["samples"].([]any)
	require.Len(t, samples, 1)
	assert.Equal(t, 70.5, samples[0].(map[string]any)["value"])

	_, body = f.do(t, http.MethodGet, "/api/v1/windows/vibration", nil)
	assert.Empty(t, body["samples"])

	resp, _ := f.do(t, http.MethodGet, "/api/v1/windows/humidity", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBoardAndAlerts(t *testing.T) {
	f := newFixture(t, config.ListenAuthConfig{})
	f.console.Board.Put("stats", json.RawMessage(`{"totalGoodQty":3}`), time.Now(), board.SourcePoll)

	fields := f.getList(t, "/api/v1/board")
	require.Len(t, fields, 1)
	field := fields[0].(map[string]any)
	assert.Equal(t, "stats", field["name"])
	assert.Equal(t, "poll", field["source"])

	assert.Empty(t, f.getList(t, "/api/v1/alerts"))
	f.console.Alerts.Evaluate("dashboard", map[string]json.RawMessage{"temperature": json.RawMessage("99")})
	assert.Len(t, f.getList(t, "/api/v1/alerts"), 1)
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t, config.ListenAuthConfig{})
	_, body := f.do(t, http.MethodGet, "/api/v1/snapshot", nil)
	assert.NotEmpty(t, body["generated_at"])
	assert.NotNil(t, body["windows"])
	assert.NotNil(t, body["board"])
	assert.NotNil(t, body["alerts"])
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, config.ListenAuthConfig{})
	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/health"},
		{http.MethodDelete, "/api/v1/board"},
		{http.MethodGet, "/api/v1/stream/reconnect"},
	} {
		resp, body := f.do(t, tc.method, tc.path, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, tc.method+" "+tc.path)
		assert.Equal(t, "method not allowed", body["error"])
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Setenv("CONSOLE_KEY", "s3cret")
	f := newFixture(t, config.ListenAuthConfig{Mode: "apikey", KeyEnv: "CONSOLE_KEY"})

	resp, body := f.do(t, http.MethodGet, "/api/v1/health", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "invalid api key", body["error"])

	resp, _ = f.do(t, http.MethodGet, "/api/v1/health", http.Header{"X-Api-Key": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = f.do(t, http.MethodGet, "/api/v1/health", http.Header{"X-Api-Key": {"s3cret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIKeyMiddleware_PassThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	for _, tc := range []struct{ mode, key string }{{"none", "secret"}, {"apikey", ""}} {
		rec := httptest.NewRecorder()
		APIKeyMiddleware(tc.mode, "X-API-Key", tc.key)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusTeapot, rec.Code, tc.mode)
	}
}

func TestRouter_RecoversFromPanics(t *testing.T) {
	r := New(context.Background(), &Console{Stream: stream.New(&fakeProvider{})}, config.ListenAuthConfig{})
	r.HandleFunc("/boom", func(http.ResponseWriter, *http.Request) { panic("boom") })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestComputeDiagnostics_Ordering(t *testing.T) {
	now := time.Now()
	last := now.Add(-5 * time.Minute)
	hints := computeDiagnostics(
		stream.Status{Key: "dashboard", State: types.ConnConnected, LastMessageAt: &last},
		map[string]string{"stats": "HTTP 500"},
		[]alerts.Alert{{RuleName: "alarm", Resource: "equipment/2", Severity: "critical", State: alerts.StateFiring}},
		now,
	)
	require.Len(t, hints, 3)
	assert.Equal(t, "critical", hints[0].Level)
	assert.Equal(t, "stream_quiet", hints[1].Key)
	assert.Equal(t, "poll_failed:stats", hints[2].Key)
	assert.Equal(t, "unhealthy", healthState(hints))
}
