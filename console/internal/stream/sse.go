package stream

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// maxEventSize bounds a single SSE line.
const maxEventSize = 1 << 20

// SSEEvent is one dispatched server-sent event.
type SSEEvent struct {
	Name string
	ID   string
	Data []byte
}

// SSEProvider subscribes to text/event-stream channels over HTTP.
type SSEProvider struct {
	baseURL string
	client  *http.Client
}

// NewSSEProvider returns a provider for channels under baseURL. client must
// not carry a request timeout, or the stream is cut when it fires.
func NewSSEProvider(baseURL string, client *http.Client) *SSEProvider {
	if client == nil {
		client = &http.Client{}
	}
	return &SSEProvider{baseURL: baseURL, client: client}
}

// Subscribe starts the request in the background and returns immediately.
func (p *SSEProvider) Subscribe(ctx context.Context, key string, h Handler) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ResourceURL(p.baseURL, key), nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	sub := &sseSubscription{ctx: ctx, cancel: cancel}
	go sub.run(p.client, req, h)
	return sub, nil
}

type sseSubscription struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

func (s *sseSubscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

func (s *sseSubscription) run(client *http.Client, req *http.Request, h Handler) {
	defer s.cancel()

	resp, err := client.Do(req)
	if err != nil {
		s.fail(h, fmt.Errorf("sse connect: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.fail(h, fmt.Errorf("sse connect: unexpected status %d", resp.StatusCode))
		return
	}

	h.OnOpen()
	err = ReadEvents(resp.Body, func(ev SSEEvent) {
		if s.ctx.Err() == nil {
			h.OnMessage(ev.Data)
		}
	})
	if err == nil {
		err = io.EOF
	}
	s.fail(h, fmt.Errorf("sse stream ended: %w", err))
}

// fail reports err unless the subscription was closed by its owner.
func (s *sseSubscription) fail(h Handler, err error) {
	if s.ctx.Err() != nil {
		return
	}
	h.OnError(err)
}

// ReadEvents parses an event stream from r and calls fn for every event that
// carries data. Multi-line data fields are joined with "\n". Comment lines
// and events without data are skipped; a trailing event without its blank
// terminator is discarded. It returns the reader's error, or nil at EOF.
func ReadEvents(r io.Reader, fn func(SSEEvent)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxEventSize)

	var (
		name, id string
		data     bytes.Buffer
		hasData  bool
	)
	for sc.Scan() {
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			if hasData {
				fn(SSEEvent{Name: name, ID: id, Data: append([]byte(nil), data.Bytes()...)})
			}
			name, hasData = "", false
			data.Reset()
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			id = value
		}
	}
	return sc.Err()
}
