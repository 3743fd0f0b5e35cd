// Package telemetry exposes the console's own health as Prometheus metrics
// on a private registry, and renders live metric windows in the Prometheus
// text exposition format.
//
// Metrics (all prefixed mesboard_):
//
//	stream_messages_total{key}           counter
//	stream_parse_errors_total            counter
//	stream_connection_errors_total       counter
//	stream_state                         gauge (0 disconnected .. 3 errored)
//	window_samples{metric}               gauge, collected on scrape
//	poll_failures_total{field}           counter
//	alerts_fired_total{severity}         counter
package telemetry
