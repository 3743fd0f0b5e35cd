package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mesboard/mesboard/console/internal/errs"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultBaseURL           = "http://localhost:8080/api"
	DefaultRequestTimeout    = 10 * time.Second
	DefaultRateLimit         = 20.0
	DefaultBurst             = 10
	DefaultTransport         = "sse"
	DefaultResource          = "dashboard"
	DefaultWindowCapacity    = 20
	DefaultPollInterval      = 30 * time.Second
	DefaultHTTPPort          = 8090
	DefaultBroadcastInterval = 2 * time.Second
	DefaultBoardTTL          = 5 * time.Minute
	DefaultDraftPath         = "mesboard-drafts.db"
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "console"
)

// Config is the top-level mesboard configuration.
// Fields map 1:1 to mesboard.example.yaml.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Stream StreamConfig `yaml:"stream"`
	Poll   PollConfig   `yaml:"poll"`
	Listen ListenConfig `yaml:"listen"`
	Board  BoardConfig  `yaml:"board"`
	Drafts DraftsConfig `yaml:"drafts"`
	Alerts AlertsConfig `yaml:"alerts"`
	Log    LogConfig    `yaml:"log"`
}

// APIConfig describes how to reach the MES backend REST API.
type APIConfig struct {
	// BaseURL is the API root, e.g. http://mes.local:8080/api.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds every REST request. Streams are not affected.
	Timeout time.Duration `yaml:"timeout"`

	// RateLimit is the sustained request rate per second. 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit"`

	// Burst is the token bucket size used with RateLimit.
	Burst int `yaml:"burst"`

	// SaveMode is how inspection measurements are saved: item | recreate.
	SaveMode string `yaml:"save_mode"`

	Auth AuthConfig `yaml:"auth"`
	TLS  TLSConfig  `yaml:"tls"`
}

// AuthConfig specifies how requests to the backend are authenticated.
type AuthConfig struct {
	// Mode is one of: mtls | apikey | bearer | basic | none.
	Mode string `yaml:"mode"`

	// mTLS fields, used when Mode == "mtls".
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`

	// Header is the HTTP header carrying the key when Mode == "apikey".
	Header string `yaml:"header"`
	// KeyEnv names the environment variable that holds the API key.
	KeyEnv string `yaml:"key_env"`

	// TokenEnv names the environment variable that holds the bearer token.
	TokenEnv string `yaml:"token_env"`

	// Username is the literal basic-auth user.
	Username string `yaml:"username"`
	// PasswordEnv names the environment variable that holds the password.
	PasswordEnv string `yaml:"password_env"`
}

// Key returns the API key resolved from the environment.
func (a AuthConfig) Key() string { return env(a.KeyEnv) }

// Token returns the bearer token resolved from the environment.
func (a AuthConfig) Token() string { return env(a.TokenEnv) }

// Password returns the basic-auth password resolved from the environment.
func (a AuthConfig) Password() string { return env(a.PasswordEnv) }

// EffectiveHeader returns Header, defaulting to X-API-Key.
func (a AuthConfig) EffectiveHeader() string {
	if a.Header == "" {
		return "X-API-Key"
	}
	return a.Header
}

// TLSConfig holds TLS dial options.
type TLSConfig struct {
	// InsecureSkipVerify disables certificate verification. Development only.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// StreamConfig configures the live metric stream.
type StreamConfig struct {
	// Transport is sse | websocket.
	Transport string `yaml:"transport"`

	// BaseURL overrides api.base_url for push channels.
	BaseURL string `yaml:"base_url"`

	// Resource is the channel key watched at startup: dashboard | equipment/<id>.
	Resource string `yaml:"resource"`

	// WindowCapacity is the number of samples kept per metric.
	WindowCapacity int `yaml:"window_capacity"`
}

// PollConfig configures the fixed-interval refresh.
type PollConfig struct {
	Interval time.Duration `yaml:"interval"`

	// Disabled turns polling off; the board is then fed by the stream only.
	Disabled bool `yaml:"disabled"`
}

// ListenConfig configures the local status surface.
type ListenConfig struct {
	// HTTPPort serves the status API, the relay and /metrics. 0 disables it.
	HTTPPort int `yaml:"http_port"`

	// BroadcastInterval is how often the relay pushes snapshots.
	BroadcastInterval time.Duration `yaml:"broadcast_interval"`

	Auth ListenAuthConfig `yaml:"auth"`
}

// ListenAuthConfig protects the status API.
type ListenAuthConfig struct {
	// Mode is apikey | none.
	Mode string `yaml:"mode"`

	// Header carries the key. Defaults to X-API-Key.
	Header string `yaml:"header"`

	// KeyEnv names the environment variable holding the expected key.
	KeyEnv string `yaml:"key_env"`
}

// Key returns the expected key resolved from the environment.
func (a ListenAuthConfig) Key() string { return env(a.KeyEnv) }

// EffectiveHeader returns Header, defaulting to X-API-Key.
func (a ListenAuthConfig) EffectiveHeader() string {
	if a.Header == "" {
		return "X-API-Key"
	}
	return a.Header
}

// BoardConfig configures the state sink.
type BoardConfig struct {
	// TTL evicts fields that have not been updated for this long.
	TTL time.Duration `yaml:"ttl"`
}

// DraftsConfig configures the measurement draft journal.
type DraftsConfig struct {
	Path string `yaml:"path"`
}

// AlertsConfig holds alerting rules and webhook targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines a threshold-based alert condition.
type AlertRule struct {
	// Name is the human-readable alert identifier.
	Name string `yaml:"name"`

	// Condition is an expression like "temperature > 80" or "status == ALARM".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv names the environment variable holding the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string { return env(w.URLEnv) }

// LogConfig configures zerolog.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindConfig, "config: read file", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.KindConfig, "config: parse yaml", err)
	}
	if err := validate(cfg); err != nil {
		return nil, errs.Wrap(errs.KindConfig, "config", err)
	}
	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Timeout:   DefaultRequestTimeout,
			RateLimit: DefaultRateLimit,
			Burst:     DefaultBurst,
			SaveMode:  "item",
		},
		Stream: StreamConfig{
			Transport:      DefaultTransport,
			Resource:       DefaultResource,
			WindowCapacity: DefaultWindowCapacity,
		},
		Poll:   PollConfig{Interval: DefaultPollInterval},
		Listen: ListenConfig{HTTPPort: DefaultHTTPPort, BroadcastInterval: DefaultBroadcastInterval},
		Board:  BoardConfig{TTL: DefaultBoardTTL},
		Drafts: DraftsConfig{Path: DefaultDraftPath},
		Log:    LogConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
	}
}

// StreamBaseURL returns the base URL for push channels.
func (c *Config) StreamBaseURL() string {
	if c.Stream.BaseURL != "" {
		return c.Stream.BaseURL
	}
	return c.API.BaseURL
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if err := checkURL("api.base_url", cfg.API.BaseURL); err != nil {
		return err
	}
	if cfg.Stream.BaseURL != "" {
		if err := checkURL("stream.base_url", cfg.Stream.BaseURL); err != nil {
			return err
		}
	}
	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative")
	}
	if cfg.API.RateLimit > 0 && cfg.API.Burst <= 0 {
		return fmt.Errorf("api.burst must be positive when api.rate_limit is set")
	}
	switch cfg.API.SaveMode {
	case "item", "recreate":
	default:
		return fmt.Errorf("api.save_mode: unknown mode %q", cfg.API.SaveMode)
	}
	switch cfg.API.Auth.Mode {
	case "mtls", "apikey", "bearer", "basic", "none", "":
	default:
		return fmt.Errorf("api.auth: unknown mode %q", cfg.API.Auth.Mode)
	}
	if cfg.API.Auth.Mode == "mtls" && (cfg.API.Auth.CertFile == "" || cfg.API.Auth.KeyFile == "") {
		return fmt.Errorf("api.auth: mtls requires cert_file and key_file")
	}

	switch cfg.Stream.Transport {
	case "sse", "websocket":
	default:
		return fmt.Errorf("stream.transport: unknown transport %q", cfg.Stream.Transport)
	}
	if cfg.Stream.WindowCapacity <= 0 {
		return fmt.Errorf("stream.window_capacity must be positive")
	}
	if cfg.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive")
	}

	if cfg.Listen.HTTPPort < 0 || cfg.Listen.HTTPPort > 65535 {
		return fmt.Errorf("listen.http_port %d out of range", cfg.Listen.HTTPPort)
	}
	if cfg.Listen.BroadcastInterval <= 0 {
		return fmt.Errorf("listen.broadcast_interval must be positive")
	}
	switch cfg.Listen.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("listen.auth: unknown mode %q", cfg.Listen.Auth.Mode)
	}
	if cfg.Board.TTL <= 0 {
		return fmt.Errorf("board.ttl must be positive")
	}
	if cfg.Drafts.Path == "" {
		return fmt.Errorf("drafts.path is required")
	}

	for i, r := range cfg.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("alerts.rules[%d]: name is required", i)
		}
		if r.Condition == "" {
			return fmt.Errorf("alerts.rules[%d] %q: condition is required", i, r.Name)
		}
		switch r.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alerts.rules[%d] %q: unknown severity %q", i, r.Name, r.Severity)
		}
	}
	for i, w := range cfg.Alerts.Webhooks {
		switch w.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("alerts.webhooks[%d]: unknown type %q", i, w.Type)
		}
	}

	switch cfg.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Log.Format)
	}
	return nil
}

func checkURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: scheme must be http or https, got %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: host is required", field)
	}
	return nil
}

func env(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
