package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/alerts"
	"github.com/mesboard/mesboard/console/internal/apiclient"
	"github.com/mesboard/mesboard/console/internal/board"
	"github.com/mesboard/mesboard/console/internal/config"
	"github.com/mesboard/mesboard/console/internal/ingest"
	"github.com/mesboard/mesboard/console/internal/logging"
	"github.com/mesboard/mesboard/console/internal/poller"
	"github.com/mesboard/mesboard/console/internal/relay"
	"github.com/mesboard/mesboard/console/internal/statusapi"
	"github.com/mesboard/mesboard/console/internal/stream"
	"github.com/mesboard/mesboard/console/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func runWatch(ctx context.Context, g *globals, args []string, _ io.Writer) error {
	fs := newFlagSet("watch", "[--resource dashboard|equipment/<id>] [--transport sse|websocket]")
	resource := fs.String("resource", "", "resource key to watch (default from config)")
	transport := fs.String("transport", "", "push transport: sse | websocket (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
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

	metrics := telemetry.New()
	sc := stream.New(provider, stream.WithCapacity(cfg.Stream.WindowCapacity))
	metrics.TrackWindows(sc.Windows)

	b := board.New(cfg.Board.TTL)
	engine, err := alerts.New(cfg.Alerts, metrics)
	if err != nil {
		return err
	}
	sc.Listen(ingest.New(b, engine, metrics).Listener())

	console := &statusapi.Console{Stream: sc, Board: b, Alerts: engine}
	if !cfg.Poll.Disabled {
		console.Poller = poller.New(b, cfg.Poll.Interval, metrics, poller.DefaultFetchers(api)...)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("api", api.BaseURL()).
		Str("transport", cfg.Stream.Transport).
		Str("resource", cfg.Stream.Resource).
		Int("http_port", cfg.Listen.HTTPPort).
		Msg("mesboard: watch starting")

	go b.Run(ctx)
	if console.Poller != nil {
		go console.Poller.Run(ctx)
	}
	if g.watchable() {
		go func() {
			err := config.Watch(ctx, g.configPath, func(next *config.Config) {
				applyReload(g, next, engine)
			})
			if err != nil {
				log.Error().Err(err).Msg("mesboard: config watch stopped")
			}
		}()
	}

	// A failed subscribe is recorded as ERRORED state; SIGHUP or the API
	// can retry it.
	if err := sc.Connect(ctx, cfg.Stream.Resource); err != nil {
		log.Warn().Err(err).Msg("mesboard: initial connect failed")
	}

	var srv *http.Server
	if cfg.Listen.HTTPPort > 0 {
		hub := relay.New(console, cfg.Listen.BroadcastInterval)
		go hub.Run(ctx)

		router := statusapi.New(ctx, console, cfg.Listen.Auth)
		router.Handle("/ws/stream", hub)
		router.Handle("/metrics", metrics.Handler())

		srv = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Listen.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Int("port", cfg.Listen.HTTPPort).Msg("mesboard: status API listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("mesboard: HTTP server stopped")
				stop()
			}
		}()
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-hup:
			log.Info().Msg("mesboard: SIGHUP, reconnecting stream")
			if err := sc.Reconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("mesboard: reconnect failed")
			}

		case <-ctx.Done():
			log.Info().Msg("mesboard: shutting down")
			sc.Disconnect()
			if srv != nil {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				srv.Shutdown(sctx) //nolint:errcheck
				cancel()
			}
			engine.Wait()
			return nil
		}
	}
}

// applyReload carries the hot-reloadable parts of a new config: log level
// and alert rules. Everything else needs a restart.
func applyReload(g *globals, next *config.Config, engine *alerts.Engine) {
	if g.logLevel == "" {
		if err := logging.SetLevel(next.Log.Level); err != nil {
			log.Warn().Err(err).Msg("mesboard: reload log level")
		}
	}
	if err := engine.SetRules(next.Alerts); err != nil {
		log.Warn().Err(err).Msg("mesboard: reload alert rules, keeping previous")
		return
	}
	log.Info().Int("rules", len(next.Alerts.Rules)).Msg("mesboard: alert rules reloaded")
}

// newProvider builds the push transport named by cfg.Stream.Transport.
func newProvider(cfg *config.Config, api *apiclient.Client) (stream.Provider, error) {
	base := cfg.StreamBaseURL()
	switch cfg.Stream.Transport {
	case "", "sse":
		return stream.NewSSEProvider(base, api.StreamHTTPClient()), nil
	case "websocket":
		return stream.NewWebSocketProvider(base, api.AuthHeader(), api.TLSConfig()), nil
	default:
		return nil, fmt.Errorf("mesboard: unknown transport %q", cfg.Stream.Transport)
	}
}
