package telemetry

import (
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mesboard/mesboard/console/internal/stream"
	"github.com/mesboard/mesboard/pkg/types"
)

const namespace = "mesboard"

// WindowSource returns the current rolling windows.
type WindowSource func() map[types.MetricName][]stream.Sample

// Metrics holds the console collectors. The zero value is not usable; call New.
type Metrics struct {
	reg *prometheus.Registry

	messages     *prometheus.CounterVec
	parseErrors  prometheus.Counter
	connErrors   prometheus.Counter
	state        prometheus.Gauge
	pollFailures *prometheus.CounterVec
	alertsFired  *prometheus.CounterVec

	windows *windowCollector
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_messages_total",
			Help:      "Decoded push messages per resource key.",
		}, []string{"key"}),
		parseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_parse_errors_total",
			Help:      "Push messages that were not a JSON object.",
		}),
		connErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stream_connection_errors_total",
			Help:      "Subscribe failures and provider errors.",
		}),
		state: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_state",
			Help:      "Connection state: 0 disconnected, 1 connecting, 2 connected, 3 errored.",
		}),
		pollFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_failures_total",
			Help:      "Failed poller fetches per board field.",
		}, []string{"field"}),
		alertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_fired_total",
			Help:      "Alerts that entered the firing state.",
		}, []string{"severity"}),
		windows: &windowCollector{
			desc: prometheus.NewDesc(
				prometheus.BuildFQName(namespace, "", "window_samples"),
				"Samples currently held per metric window.",
				[]string{"metric"}, nil,
			),
		},
	}
	m.reg.MustRegister(
		m.messages, m.parseErrors, m.connErrors, m.state,
		m.pollFailures, m.alertsFired, m.windows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// ObserveStream is a stream.Listener that counts messages, parse errors,
// connection errors and tracks the state gauge.
func (m *Metrics) ObserveStream(ev stream.Event) {
	switch ev.Kind {
	case stream.EventPayload:
		m.messages.WithLabelValues(ev.Key).Inc()
	case stream.EventParseError:
		m.parseErrors.Inc()
	case stream.EventState:
		m.state.Set(float64(ev.State.Ordinal()))
		if ev.State == types.ConnErrored {
			m.connErrors.Inc()
		}
	}
}

// PollFailed counts one failed fetch for field.
func (m *Metrics) PollFailed(field string) { m.pollFailures.WithLabelValues(field).Inc() }

// AlertFired counts one alert entering the firing state.
func (m *Metrics) AlertFired(severity string) { m.alertsFired.WithLabelValues(severity).Inc() }

// TrackWindows makes window_samples report the lengths returned by src.
func (m *Metrics) TrackWindows(src WindowSource) {
	m.windows.mu.Lock()
	m.windows.src = src
	m.windows.mu.Unlock()
}

// windowCollector reads window lengths at scrape time.
type windowCollector struct {
	desc *prometheus.Desc

	mu  sync.Mutex
	src WindowSource
}

func (c *windowCollector) Describe(ch chan<- *prometheus.Desc) { ch <- c.desc }

func (c *windowCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	src := c.src
	c.mu.Unlock()
	if src == nil {
		return
	}
	windows := src()
	names := make([]string, 0, len(windows))
	for name := range windows {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		n := len(windows[types.MetricName(name)])
		ch <- prometheus.MustNewConstMetric(c.desc, prometheus.GaugeValue, float64(n), name)
	}
}
