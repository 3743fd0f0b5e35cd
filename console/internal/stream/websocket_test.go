package stream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesboard/mesboard/pkg/types"
)

// wsServer pushes payloads to each client, then holds or drops the socket.
func wsServer(t *testing.T, payloads []string, hold bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(wsHandler(t, payloads, hold))
	t.Cleanup(srv.Close)
	return srv
}

func wsHandler(t *testing.T, payloads []string, hold bool) http.Handler {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard/stream", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Key"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, p := range payloads {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(p)); err != nil {
				return
			}
		}
		if hold {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}
	})
}

func apiKeyHeader() http.Header {
	h := http.Header{}
	h.Set("X-API-Key", "secret")
	return h
}

func TestWebSocketProvider_Messages(t *testing.T) {
	srv := wsServer(t, []string{`{"temperature":40}`, `{"temperature":41}`}, true)
	c := New(NewWebSocketProvider(srv.URL+"/api", apiKeyHeader(), nil))

	require.NoError(t, c.Connect(context.Background(), "dashboard"))
	require.Eventually(t, func() bool {
		return len(c.Window(types.MetricTemperature)) == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, types.ConnConnected, c.State())

	c.Disconnect()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, types.ConnDisconnected, c.State())
	assert.NoError(t, c.LastError())
}

func TestWebSocketProvider_ServerCloseIsError(t *testing.T) {
	srv := wsServer(t, []string{`{"vibration":2}`}, false)
	c := New(NewWebSocketProvider(srv.URL+"/api", apiKeyHeader(), nil))

	require.NoError(t, c.Connect(context.Background(), "dashboard"))
	require.Eventually(t, func() bool {
		return c.State() == types.ConnErrored
	}, 2*time.Second, 10*time.Millisecond)
	assert.Error(t, c.LastError())
}

func TestWebSocketProvider_DialFailure(t *testing.T) {
	c := New(NewWebSocketProvider("http://127.0.0.1:1/api", nil, nil))
	err := c.Connect(context.Background(), "dashboard")
	assert.Error(t, err)
	assert.Equal(t, types.ConnErrored, c.State())
}

func TestWebSocketProvider_UsesTLSConfig(t *testing.T) {
	srv := httptest.NewTLSServer(wsHandler(t, []string{`{"temperature":40}`}, true))
	t.Cleanup(srv.Close)
	trusted := srv.Client().Transport.(*http.Transport).TLSClientConfig

	c := New(NewWebSocketProvider(srv.URL+"/api", apiKeyHeader(), trusted))
	require.NoError(t, c.Connect(context.Background(), "dashboard"))
	require.Eventually(t, func() bool {
		return len(c.Window(types.MetricTemperature)) == 1
	}, 2*time.Second, 10*time.Millisecond)
	c.Disconnect()

	untrusted := New(NewWebSocketProvider(srv.URL+"/api", apiKeyHeader(), nil))
	assert.Error(t, untrusted.Connect(context.Background(), "dashboard"))
}

func TestToWebSocketURL(t *testing.T) {
	assert.Equal(t, "ws://host/api", toWebSocketURL("http://host/api"))
	assert.Equal(t, "wss://host/api", toWebSocketURL("https://host/api"))
	assert.Equal(t, "ws://host", toWebSocketURL("ws://host"))
}
