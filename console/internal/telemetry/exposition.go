package telemetry

import (
	"fmt"
	"io"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/mesboard/mesboard/console/internal/stream"
	"github.com/mesboard/mesboard/pkg/types"
)

// LiveMetricName is the gauge family used for exported window samples.
const LiveMetricName = "mesboard_live_metric"

// WindowFamily converts windows into one gauge family with a series per
// sample, labelled by metric name and clock label. Metrics are emitted in
// name order, samples oldest first.
func WindowFamily(windows map[types.MetricName][]stream.Sample) *dto.MetricFamily {
	names := make([]string, 0, len(windows))
	for name := range windows {
		names = append(names, string(name))
	}
	sort.Strings(names)

	mf := &dto.MetricFamily{
		Name: strPtr(LiveMetricName),
		Help: strPtr("Live metric samples held in the rolling windows."),
		Type: dto.MetricType_GAUGE.Enum(),
	}
	for _, name := range names {
		for _, s := range windows[types.MetricName(name)] {
			ts := s.At.UnixMilli()
			mf.Metric = append(mf.Metric, &dto.Metric{
				Label: []*dto.LabelPair{
					{Name: strPtr("label"), Value: strPtr(s.Label)},
					{Name: strPtr("metric"), Value: strPtr(name)},
				},
				Gauge:       &dto.Gauge{Value: floatPtr(s.Value)},
				TimestampMs: &ts,
			})
		}
	}
	return mf
}

// WriteWindows renders windows as Prometheus text.
func WriteWindows(w io.Writer, windows map[types.MetricName][]stream.Sample) error {
	mf := WindowFamily(windows)
	if len(mf.Metric) == 0 {
		return nil
	}
	if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
		return fmt.Errorf("telemetry: write windows: %w", err)
	}
	return nil
}

// ParseWindows reads a WriteWindows rendering back into samples per metric.
// The snapshot command uses it to merge exports.
func ParseWindows(r io.Reader) (map[types.MetricName][]stream.Sample, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("telemetry: parse windows: %w", err)
	}
	out := make(map[types.MetricName][]stream.Sample)
	mf, ok := mfs[LiveMetricName]
	if !ok {
		return out, nil
	}
	for _, m := range mf.GetMetric() {
		var metric, label string
		for _, lp := range m.GetLabel() {
			switch lp.GetName() {
			case "metric":
				metric = lp.GetValue()
			case "label":
				label = lp.GetValue()
			}
		}
		name, err := types.ParseMetricName(metric)
		if err != nil {
			return nil, fmt.Errorf("telemetry: parse windows: %w", err)
		}
		s := stream.Sample{Label: label, Value: m.GetGauge().GetValue()}
		if m.TimestampMs != nil {
			s.At = time.UnixMilli(m.GetTimestampMs())
		}
		out[name] = append(out[name], s)
	}
	return out, nil
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
