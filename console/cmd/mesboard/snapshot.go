package main

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/apiclient"
	"github.com/mesboard/mesboard/console/internal/errs"
	"github.com/mesboard/mesboard/console/internal/stream"
	"github.com/mesboard/mesboard/console/internal/telemetry"
	"github.com/mesboard/mesboard/pkg/types"
)

func runSnapshot(ctx context.Context, g *globals, args []string, out io.Writer) error {
	fs := newFlagSet("snapshot", "--resource key [--samples N] [--timeout d] [--format prom|json]")
	resource := fs.String("resource", "", "resource key (default from config)")
	transport := fs.String("transport", "", "push transport: sse | websocket (default from config)")
	samples := fs.Int("samples", 10, "payloads to collect before printing")
	timeout := fs.Duration("timeout", 30*time.Second, "stop collecting after this long")
	format := fs.String("format", formatProm, "output format: prom | json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(*format, formatProm, formatJSON); err != nil {
		return err
	}
	if *samples <= 0 {
		return errs.Validation("snapshot", "--samples must be positive")
	}

	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if *resource != "" {
		cfg.Stream.Resource = *resource
	}
	if *transport != "" {
		cfg.Stream.Transport = *transport
	}
	api, err := apiclient.New(cfg.API)
	if err != nil {
		return err
	}
	provider, err := newProvider(cfg, api)
	if err != nil {
		return err
	}

	sc := stream.New(provider, stream.WithCapacity(cfg.Stream.WindowCapacity))
	windows, err := collect(ctx, sc, cfg.Stream.Resource, *samples, *timeout)
	if err != nil {
		return err
	}
	if *format == formatJSON {
		return writeJSON(out, windows)
	}
	return telemetry.WriteWindows(out, windows)
}

// collect connects sc to key and waits for n payloads, a terminal error or
// the timeout, whichever comes first. Whatever was gathered is returned; an
// error is returned only when nothing arrived.
func collect(ctx context.Context, sc *stream.Client, key string, n int, timeout time.Duration) (map[types.MetricName][]stream.Sample, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payloads := make(chan struct{}, n)
	failed := make(chan error, 1)
	sc.Listen(func(ev stream.Event) {
		switch {
		case ev.Kind == stream.EventPayload:
			select {
			case payloads <- struct{}{}:
			default:
			}
		case ev.Kind == stream.EventState && ev.State == types.ConnErrored:
			select {
			case failed <- ev.Err:
			default:
			}
		}
	})

	if err := sc.Connect(ctx, key); err != nil {
		return nil, err
	}
	defer sc.Disconnect()

	got := 0
	for got < n {
		select {
		case <-payloads:
			got++
		case err := <-failed:
			if got == 0 {
				return nil, err
			}
			log.Warn().Err(err).Int("payloads", got).Msg("snapshot: stream failed, printing partial windows")
			return sc.Windows(), nil
		case <-ctx.Done():
			if got == 0 {
				return nil, errs.New(errs.KindConnection, "snapshot", "no payload on %q within %s", key, timeout)
			}
			log.Warn().Int("payloads", got).Int("wanted", n).Msg("snapshot: timed out, printing partial windows")
			return sc.Windows(), nil
		}
	}
	return sc.Windows(), nil
}
