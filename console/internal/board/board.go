package board

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Producers known to the console.
const (
	SourcePoll   = "poll"
	SourceStream = "stream"
)

// Field is the latest value of one board field.
type Field struct {
	Name      string          `json:"name"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Source    string          `json:"source"`
}

// Board is a last-write-wins field store with TTL eviction.
type Board struct {
	mu   sync.RWMutex
	data map[string]*Field
	ttl  time.Duration
	now  func() time.Time // injectable for deterministic tests
}

// New creates a Board whose fields expire after ttl. A zero ttl disables
// expiry.
func New(ttl time.Duration) *Board {
	return &Board{
		data: make(map[string]*Field),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Put stores value under field unless the stored value is newer than at.
// It reports whether the write was applied.
func (b *Board) Put(field string, value json.RawMessage, at time.Time, source string) bool {
	if field == "" {
		return false
	}
	if at.IsZero() {
		at = b.now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if cur, ok := b.data[field]; ok && at.Before(cur.UpdatedAt) {
		log.Debug().Str("field", field).Str("source", source).
			Time("stored_at", cur.UpdatedAt).Time("at", at).
			Msg("board: dropped older write")
		return false
	}
	v := make(json.RawMessage, len(value))
	copy(v, value)
	b.data[field] = &Field{Name: field, Value: v, UpdatedAt: at, Source: source}
	return true
}

// PutValue marshals v and stores it under field.
func (b *Board) PutValue(field string, v any, at time.Time, source string) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("board: marshal %s: %w", field, err)
	}
	return b.Put(field, raw, at, source), nil
}

// Merge spreads the members of a decoded JSON object into the board, each
// name prefixed by prefix. It returns how many fields were applied.
func (b *Board) Merge(prefix string, fields map[string]json.RawMessage, at time.Time, source string) int {
	applied := 0
	for name, v := range fields {
		if b.Put(prefix+name, v, at, source) {
			applied++
		}
	}
	return applied
}

// Get returns the named field and whether it exists. The field may be
// stale if its TTL has elapsed and Run has not evicted it yet.
func (b *Board) Get(field string) (Field, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	f, ok := b.data[field]
	if !ok {
		return Field{}, false
	}
	return *f, true
}

// List returns every field within the TTL, sorted by name.
func (b *Board) List() []Field {
	b.mu.RLock()
	defer b.mu.RUnlock()
	cutoff := b.cutoff(b.now())
	out := make([]Field, 0, len(b.data))
	for _, f := range b.data {
		if b.ttl <= 0 || f.UpdatedAt.After(cutoff) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Snapshot returns the live field values keyed by name.
func (b *Board) Snapshot() map[string]json.RawMessage {
	fields := b.List()
	out := make(map[string]json.RawMessage, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Value
	}
	return out
}

// Count returns the number of fields held, including stale ones.
func (b *Board) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.data)
}

// Evict removes fields last updated at or before now minus the TTL and
// returns how many were removed.
func (b *Board) Evict(now time.Time) int {
	if b.ttl <= 0 {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cutoff := b.cutoff(now)
	removed := 0
	for name, f := range b.data {
		if !f.UpdatedAt.After(cutoff) {
			delete(b.data, name)
			removed++
		}
	}
	return removed
}

func (b *Board) cutoff(now time.Time) time.Time { return now.Add(-b.ttl) }

// Run starts the eviction loop. It ticks at half the TTL (minimum one
// second) and blocks until ctx is cancelled.
func (b *Board) Run(ctx context.Context) {
	if b.ttl <= 0 {
		<-ctx.Done()
		return
	}
	interval := b.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := b.Evict(now); n > 0 {
				log.Debug().Int("count", n).Msg("board: evicted stale fields")
			}
		}
	}
}
