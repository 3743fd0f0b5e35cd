package stream

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

const wsCloseTimeout = time.Second

// WebSocketProvider subscribes to channels that push one JSON payload per
// WebSocket text frame.
type WebSocketProvider struct {
	baseURL string
	header  http.Header
	dialer  *websocket.Dialer
}

// NewWebSocketProvider returns a provider for channels under baseURL. An
// http(s) base is rewritten to ws(s). header is sent on every handshake and
// tlsCfg, when non-nil, secures wss handshakes.
func NewWebSocketProvider(baseURL string, header http.Header, tlsCfg *tls.Config) *WebSocketProvider {
	return &WebSocketProvider{
		baseURL: toWebSocketURL(baseURL),
		header:  header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
			TLSClientConfig:  tlsCfg,
		},
	}
}

// Subscribe dials synchronously; OnOpen follows from the read goroutine.
func (p *WebSocketProvider) Subscribe(ctx context.Context, key string, h Handler) (Subscription, error) {
	conn, resp, err := p.dialer.DialContext(ctx, ResourceURL(p.baseURL, key), p.header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket dial: status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	sub := &wsSubscription{conn: conn}
	go sub.readLoop(h)
	return sub, nil
}

type wsSubscription struct {
	conn   *websocket.Conn
	closed atomic.Bool
	once   sync.Once
}

func (s *wsSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(wsCloseTimeout))
		err = s.conn.Close()
	})
	return err
}

func (s *wsSubscription) readLoop(h Handler) {
	h.OnOpen()
	for {
		typ, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				h.OnError(fmt.Errorf("websocket read: %w", err))
			}
			return
		}
		if s.closed.Load() {
			return
		}
		if typ == websocket.TextMessage || typ == websocket.BinaryMessage {
			h.OnMessage(msg)
		}
	}
}

func toWebSocketURL(u string) string {
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	default:
		return u
	}
}
