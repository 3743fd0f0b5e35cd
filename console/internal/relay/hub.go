package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/statusapi"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingEvery  = pongWait * 9 / 10
	queueDepth = 16

	// Peers only send control frames.
	maxInbound = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Message is the frame pushed to peers.
type Message struct {
	Event string                     `json:"event"`
	Data  statusapi.SnapshotResponse `json:"data"`
}

// Hub pushes the console snapshot to every connected peer on each tick.
type Hub struct {
	console  *statusapi.Console
	interval time.Duration

	mu    sync.Mutex
	peers map[*peer]struct{}
}

type peer struct {
	conn   *websocket.Conn
	queue  chan []byte
	remote string
}

// New returns a Hub over c that broadcasts every interval.
func New(c *statusapi.Console, interval time.Duration) *Hub {
	return &Hub{console: c, interval: interval, peers: make(map[*peer]struct{})}
}

// Run broadcasts until ctx is done, then disconnects every peer.
func (h *Hub) Run(ctx context.Context) {
	tick := time.NewTicker(h.interval)
	defer tick.Stop()
	for {
		select {
		case <-tick.C:
			h.Broadcast()
		case <-ctx.Done():
			h.detachAll()
			return
		}
	}
}

// ServeHTTP upgrades the request and serves the peer until it leaves.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already answered with an HTTP error.
		log.Debug().Err(err).Str("remote", r.RemoteAddr).Msg("relay: upgrade refused")
		return
	}

	p := &peer{conn: conn, queue: make(chan []byte, queueDepth), remote: r.RemoteAddr}
	h.attach(p)
	defer h.detach(p)

	if frame, err := h.frame(); err == nil {
		h.mu.Lock()
		offer(p, frame)
		h.mu.Unlock()
	}

	go p.writeLoop()
	p.readLoop()
}

// Count returns the number of connected peers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Broadcast queues the current snapshot for every peer. A peer whose queue
// is full is disconnected.
func (h *Hub) Broadcast() {
	frame, err := h.frame()
	if err != nil {
		log.Error().Err(err).Msg("relay: encode snapshot")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		if !offer(p, frame) {
			log.Warn().Str("remote", p.remote).Msg("relay: peer too slow, dropped")
			h.removeLocked(p)
		}
	}
}

func (h *Hub) frame() ([]byte, error) {
	return json.Marshal(Message{Event: "snapshot", Data: statusapi.BuildSnapshot(h.console)})
}

func (h *Hub) attach(p *peer) {
	h.mu.Lock()
	h.peers[p] = struct{}{}
	n := len(h.peers)
	h.mu.Unlock()
	log.Debug().Str("remote", p.remote).Int("peers", n).Msg("relay: peer attached")
}

func (h *Hub) detach(p *peer) {
	h.mu.Lock()
	h.removeLocked(p)
	h.mu.Unlock()
}

func (h *Hub) detachAll() {
	h.mu.Lock()
	for p := range h.peers {
		h.removeLocked(p)
	}
	h.mu.Unlock()
}

// removeLocked forgets p and closes its queue, which ends its write loop.
// Safe to call for a peer that is already gone.
func (h *Hub) removeLocked(p *peer) {
	if _, ok := h.peers[p]; !ok {
		return
	}
	delete(h.peers, p)
	close(p.queue)
}

// offer queues frame without blocking. The caller holds the hub lock, so
// the queue cannot be closed concurrently.
func offer(p *peer, frame []byte) bool {
	select {
	case p.queue <- frame:
		return true
	default:
		return false
	}
}

func (p *peer) writeLoop() {
	ping := time.NewTicker(pingEvery)
	defer func() {
		ping.Stop()
		p.conn.Close()
	}()

	for {
		var err error
		select {
		case frame, open := <-p.queue:
			if !open {
				_ = p.write(websocket.CloseMessage, nil)
				return
			}
			err = p.write(websocket.TextMessage, frame)
		case <-ping.C:
			err = p.write(websocket.PingMessage, nil)
		}
		if err != nil {
			return
		}
	}
}

func (p *peer) write(kind int, data []byte) error {
	if err := p.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return p.conn.WriteMessage(kind, data)
}

// readLoop discards inbound frames and returns when the peer goes away or
// stops answering pings.
func (p *peer) readLoop() {
	extend := func(string) error { return p.conn.SetReadDeadline(time.Now().Add(pongWait)) }
	p.conn.SetReadLimit(maxInbound)
	_ = extend("")
	p.conn.SetPongHandler(extend)
	for {
		if _, _, err := p.conn.ReadMessage(); err != nil {
			return
		}
	}
}
