package stream

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/pkg/types"
)

// labelLayout formats sample labels as wall-clock time.
const labelLayout = "15:04:05"

// EventKind tags an Event.
type EventKind int

const (
	// EventState is sent on every connection state change.
	EventState EventKind = iota
	// EventPayload is sent for every decoded message.
	EventPayload
	// EventParseError is sent when a message cannot be decoded.
	EventParseError
)

// Event is delivered to listeners outside the client's lock.
type Event struct {
	Kind   EventKind
	Key    string
	State  types.ConnState
	Err    error
	Fields map[string]json.RawMessage
	At     time.Time
}

// Listener observes client events. It must not block for long.
type Listener func(Event)

// Status is a point-in-time view of the connection.
type Status struct {
	Key           string          `json:"key"`
	State         types.ConnState `json:"state"`
	LastError     string          `json:"last_error,omitempty"`
	Messages      uint64          `json:"messages"`
	LastMessageAt *time.Time      `json:"last_message_at,omitempty"`
}

// Option configures a Client.
type Option func(*Client)

// WithCapacity sets the per-metric window capacity.
func WithCapacity(n int) Option { return func(c *Client) { c.capacity = n } }

// WithClock replaces time.Now for labels and timestamps.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// Client manages one push subscription and its rolling windows.
//
// All exported methods are safe for concurrent use.
type Client struct {
	provider Provider
	capacity int
	now      func() time.Time

	mu        sync.Mutex
	key       string
	sub       Subscription
	gen       uint64
	state     types.ConnState
	lastErr   error
	windows   map[types.MetricName]*Window
	messages  uint64
	lastMsgAt time.Time
	listeners []Listener
}

// New returns a disconnected Client using p.
func New(p Provider, opts ...Option) *Client {
	c := &Client{
		provider: p,
		capacity: DefaultWindowCapacity,
		now:      time.Now,
		state:    types.ConnDisconnected,
	}
	for _, o := range opts {
		o(c)
	}
	c.windows = c.freshWindows()
	return c
}

// Listen registers l for all future events.
func (c *Client) Listen(l Listener) {
	c.mu.Lock()
	c.listeners = append(c.listeners, l)
	c.mu.Unlock()
}

// Connect switches the client to key. Any previous subscription is closed
// first and the windows start empty. The state is CONNECTING until the
// provider signals open. A synchronous subscribe failure leaves the client
// ERRORED and is returned.
func (c *Client) Connect(ctx context.Context, key string) error {
	key = NormalizeKey(key)
	if key == "" {
		return errs.Validation("stream.Connect", "resource key is required")
	}

	c.mu.Lock()
	old := c.sub
	c.sub = nil
	c.gen++
	gen := c.gen
	c.key = key
	c.lastErr = nil
	c.windows = c.freshWindows()
	c.messages = 0
	c.lastMsgAt = time.Time{}
	ev := c.setStateLocked(types.ConnConnecting, nil)
	ls := c.listenersLocked()
	c.mu.Unlock()

	if old != nil {
		closeSub(old)
	}
	emit(ls, ev)
	log.Info().Str("key", key).Msg("stream: connecting")

	sub, err := c.provider.Subscribe(ctx, key, &genHandler{c: c, gen: gen})

	c.mu.Lock()
	if gen != c.gen {
		// Superseded by a later Connect or Disconnect while subscribing.
		c.mu.Unlock()
		if sub != nil {
			closeSub(sub)
		}
		return nil
	}
	if err != nil {
		cerr := errs.Wrap(errs.KindConnection, "stream.Connect", err)
		c.lastErr = cerr
		ev := c.setStateLocked(types.ConnErrored, cerr)
		ls := c.listenersLocked()
		c.mu.Unlock()
		emit(ls, ev)
		log.Warn().Str("key", key).Err(err).Msg("stream: subscribe failed")
		return cerr
	}
	c.sub = sub
	c.mu.Unlock()
	return nil
}

// Disconnect closes the active subscription, if any, sets DISCONNECTED and
// clears the last error. The resource key is kept for Reconnect.
func (c *Client) Disconnect() {
	c.mu.Lock()
	old := c.sub
	c.sub = nil
	c.gen++
	c.lastErr = nil
	changed := c.state != types.ConnDisconnected
	ev := c.setStateLocked(types.ConnDisconnected, nil)
	ls := c.listenersLocked()
	key := c.key
	c.mu.Unlock()

	if old != nil {
		closeSub(old)
	}
	if changed {
		emit(ls, ev)
		log.Info().Str("key", key).Msg("stream: disconnected")
	}
}

// Reconnect is Disconnect followed by Connect to the same key.
func (c *Client) Reconnect(ctx context.Context) error {
	c.mu.Lock()
	key := c.key
	c.mu.Unlock()
	if key == "" {
		return errs.Validation("stream.Reconnect", "no resource has been connected")
	}
	c.Disconnect()
	return c.Connect(ctx, key)
}

// OnMessage handles a payload for the current subscription.
func (c *Client) OnMessage(raw []byte) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.onMessage(gen, raw)
}

// OnProviderError records err for the current subscription and sets ERRORED.
func (c *Client) OnProviderError(err error) {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	c.onError(gen, err)
}

// AppendSample adds a sample to the named metric's window.
func (c *Client) AppendSample(metric types.MetricName, value float64, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.appendLocked(metric, Sample{Label: label, Value: value, At: c.now()})
}

// State returns the current connection state.
func (c *Client) State() types.ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent parse or connection error, or nil.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Key returns the current resource key.
func (c *Client) Key() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

// Status returns a snapshot of the connection.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := Status{Key: c.key, State: c.state, Messages: c.messages}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	if !c.lastMsgAt.IsZero() {
		at := c.lastMsgAt
		st.LastMessageAt = &at
	}
	return st
}

// Window returns a copy of one metric's samples, oldest first.
func (c *Client) Window(metric types.MetricName) []Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	w, ok := c.windows[metric]
	if !ok {
		return nil
	}
	return w.Samples()
}

// Windows returns copies of every metric window.
func (c *Client) Windows() map[types.MetricName][]Sample {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[types.MetricName][]Sample, len(c.windows))
	for name, w := range c.windows {
		out[name] = w.Samples()
	}
	return out
}

// --- internal ---------------------------------------------------------------

// genHandler binds provider callbacks to the generation that created them.
type genHandler struct {
	c   *Client
	gen uint64
}

func (h *genHandler) OnOpen()              { h.c.onOpen(h.gen) }
func (h *genHandler) OnMessage(raw []byte) { h.c.onMessage(h.gen, raw) }
func (h *genHandler) OnError(err error)    { h.c.onError(h.gen, err) }

func (c *Client) onOpen(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || c.state != types.ConnConnecting {
		c.mu.Unlock()
		return
	}
	c.lastErr = nil
	ev := c.setStateLocked(types.ConnConnected, nil)
	ls := c.listenersLocked()
	key := c.key
	c.mu.Unlock()

	emit(ls, ev)
	log.Info().Str("key", key).Msg("stream: connected")
}

func (c *Client) onMessage(gen uint64, raw []byte) {
	now := c.now()

	var fields map[string]json.RawMessage
	err := json.Unmarshal(raw, &fields)
	if err == nil && fields == nil {
		err = errs.New(errs.KindParse, "", "payload is not a JSON object")
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	key := c.key
	ls := c.listenersLocked()

	if err != nil {
		perr := errs.Wrap(errs.KindParse, "stream.OnMessage", err)
		c.lastErr = perr
		c.mu.Unlock()
		emit(ls, Event{Kind: EventParseError, Key: key, Err: perr, At: now})
		log.Warn().Str("key", key).Err(err).Msg("stream: dropped malformed message")
		return
	}

	label := now.Format(labelLayout)
	for _, m := range types.MetricNames {
		rawVal, ok := fields[string(m)]
		if !ok {
			continue
		}
		var v float64
		if json.Unmarshal(rawVal, &v) != nil {
			continue
		}
		c.appendLocked(m, Sample{Label: label, Value: v, At: now})
	}
	c.messages++
	c.lastMsgAt = now
	c.mu.Unlock()

	emit(ls, Event{Kind: EventPayload, Key: key, Fields: fields, At: now})
}

func (c *Client) onError(gen uint64, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	cerr := errs.Wrap(errs.KindConnection, "stream", err)
	c.lastErr = cerr
	ev := c.setStateLocked(types.ConnErrored, cerr)
	ls := c.listenersLocked()
	key := c.key
	c.mu.Unlock()

	emit(ls, ev)
	log.Error().Str("key", key).Err(err).Msg("stream: provider error")
}

func (c *Client) appendLocked(metric types.MetricName, s Sample) {
	w, ok := c.windows[metric]
	if !ok {
		w = NewWindow(c.capacity)
		c.windows[metric] = w
	}
	w.Append(s)
}

func (c *Client) setStateLocked(s types.ConnState, err error) Event {
	c.state = s
	return Event{Kind: EventState, Key: c.key, State: s, Err: err, At: c.now()}
}

func (c *Client) listenersLocked() []Listener {
	if len(c.listeners) == 0 {
		return nil
	}
	out := make([]Listener, len(c.listeners))
	copy(out, c.listeners)
	return out
}

func (c *Client) freshWindows() map[types.MetricName]*Window {
	ws := make(map[types.MetricName]*Window, len(types.MetricNames))
	for _, m := range types.MetricNames {
		ws[m] = NewWindow(c.capacity)
	}
	return ws
}

func emit(ls []Listener, ev Event) {
	for _, l := range ls {
		l(ev)
	}
}

func closeSub(s Subscription) {
	if err := s.Close(); err != nil {
		log.Debug().Err(err).Msg("stream: close subscription")
	}
}
