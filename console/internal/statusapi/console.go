package statusapi

import (
	"sort"
	"time"

	"github.com/mesboard/mesboard/console/internal/alerts"
	"github.com/mesboard/mesboard/console/internal/board"
	"github.com/mesboard/mesboard/console/internal/poller"
	"github.com/mesboard/mesboard/console/internal/stream"
	"github.com/mesboard/mesboard/pkg/types"
)

// Console is the live state served by the API. Stream is required; the
// other parts may be nil.
type Console struct {
	Stream *stream.Client
	Board  *board.Board
	Alerts *alerts.Engine
	Poller *poller.Poller
}

// BuildSnapshot collects the console state into one document.
func BuildSnapshot(c *Console) SnapshotResponse {
	return SnapshotResponse{
		Stream:      c.Stream.Status(),
		Windows:     windows(c.Stream),
		Board:       boardFields(c.Board),
		Alerts:      activeAlerts(c.Alerts),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

func windows(s *stream.Client) []WindowResponse {
	all := s.Windows()
	out := make([]WindowResponse, 0, len(types.MetricNames))
	for _, name := range types.MetricNames {
		samples := all[name]
		if samples == nil {
			samples = []stream.Sample{}
		}
		out = append(out, WindowResponse{Metric: string(name), Samples: samples})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Metric < out[j].Metric })
	return out
}

func boardFields(b *board.Board) []BoardField {
	if b == nil {
		return []BoardField{}
	}
	fields := b.List()
	out := make([]BoardField, 0, len(fields))
	for _, f := range fields {
		out = append(out, BoardField{
			Name:      f.Name,
			Value:     f.Value,
			Source:    f.Source,
			UpdatedAt: f.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

func activeAlerts(e *alerts.Engine) []alerts.Alert {
	if e == nil {
		return []alerts.Alert{}
	}
	return e.Active()
}

func pollErrors(p *poller.Poller) map[string]string {
	if p == nil {
		return nil
	}
	errs := p.Errors()
	if len(errs) == 0 {
		return nil
	}
	return errs
}
