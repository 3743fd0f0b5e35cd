// Package config loads and watches the mesboard configuration file.
//
// Top-level types:
//   - Config{API, Stream, Poll, Listen, Board, Drafts, Alerts, Log}
//   - APIConfig: base_url, timeout, rate_limit, burst, save_mode, auth, tls
//   - AuthConfig: mode (mtls|apikey|bearer|basic|none); Key(), Token() and
//     Password() resolve secrets from the environment variables named in
//     key_env, token_env and password_env
//   - StreamConfig: transport (sse|websocket), base_url, resource, window_capacity
//   - ListenConfig: http_port, broadcast_interval, auth (apikey|none)
//   - AlertsConfig: rules (name, condition, severity, cooldown) and webhooks
//
// Load(path) reads the YAML file, applies defaults (30s poll, 20-sample
// windows, port 8090, 5m board TTL), then validates URLs and enums.
//
// Watch(ctx, path, onChange) uses fsnotify to detect writes and calls
// onChange with the newly parsed Config. The watch is re-added after each
// event so atomic-save editors keep working.
package config
