package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/apiclient"
	"github.com/mesboard/mesboard/console/internal/board"
)

// FetchFunc loads the value for one board field.
type FetchFunc func(ctx context.Context) (any, error)

// Fetcher binds a board field to the call that refreshes it.
type Fetcher struct {
	Field string
	Fetch FetchFunc
}

// FailureRecorder counts failed fetches. telemetry.Metrics satisfies it.
type FailureRecorder interface {
	PollFailed(field string)
}

// Poller writes fetcher results into a board.
type Poller struct {
	board    *board.Board
	fetchers []Fetcher
	interval time.Duration
	failures FailureRecorder
	now      func() time.Time

	mu      sync.Mutex
	lastErr map[string]error
}

// New returns a Poller. rec may be nil.
func New(b *board.Board, interval time.Duration, rec FailureRecorder, fetchers ...Fetcher) *Poller {
	return &Poller{
		board:    b,
		fetchers: fetchers,
		interval: interval,
		failures: rec,
		now:      time.Now,
		lastErr:  make(map[string]error),
	}
}

// DefaultFetchers returns the dashboard fields polled by the console.
func DefaultFetchers(c *apiclient.Client) []Fetcher {
	return []Fetcher{
		{Field: "stats", Fetch: func(ctx context.Context) (any, error) { return c.DashboardStats(ctx) }},
		{Field: "defectRate", Fetch: func(ctx context.Context) (any, error) { return c.DefectRate(ctx) }},
		{Field: "equipmentStatuses", Fetch: func(ctx context.Context) (any, error) { return c.EquipmentStatus(ctx) }},
		{Field: "productionStatistics", Fetch: func(ctx context.Context) (any, error) { return c.ProductionStatistics(ctx) }},
	}
}

// Run polls immediately and then every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	p.Poll(ctx)

	t := time.NewTicker(p.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			p.Poll(ctx)
		}
	}
}

// Poll runs every fetcher once, sequentially, and returns how many
// succeeded.
func (p *Poller) Poll(ctx context.Context) int {
	ok := 0
	for _, f := range p.fetchers {
		if ctx.Err() != nil {
			break
		}
		if p.pollOne(ctx, f) {
			ok++
		}
	}
	return ok
}

func (p *Poller) pollOne(ctx context.Context, f Fetcher) bool {
	v, err := f.Fetch(ctx)
	if err == nil {
		_, err = p.board.PutValue(f.Field, v, p.now(), board.SourcePoll)
	}

	p.mu.Lock()
	p.lastErr[f.Field] = err
	p.mu.Unlock()

	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		log.Warn().Str("field", f.Field).Err(err).Msg("poller: fetch failed")
		if p.failures != nil {
			p.failures.PollFailed(f.Field)
		}
		return false
	}
	log.Debug().Str("field", f.Field).Msg("poller: refreshed")
	return true
}

// Errors returns the last error per field, omitting fields whose last
// fetch succeeded.
func (p *Poller) Errors() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string)
	for field, err := range p.lastErr {
		if err != nil {
			out[field] = err.Error()
		}
	}
	return out
}
