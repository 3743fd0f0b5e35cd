package alerts

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/config"
)

const (
	defaultCooldown = 15 * time.Minute
	defaultSeverity = "warning"
	maxHistoryLen   = 200
	recentWindow    = time.Hour
)

// Alert states.
const (
	StateFiring   = "firing"
	StateResolved = "resolved"
)

// Alert represents a single alert event produced by the rule engine.
type Alert struct {
	ID         string     `json:"id"`
	RuleName   string     `json:"rule_name"`
	Resource   string     `json:"resource"`
	Severity   string     `json:"severity"`
	Message    string     `json:"message"`
	Value      float64    `json:"value"`
	FiredAt    time.Time  `json:"fired_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	State      string     `json:"state"`
}

// FireRecorder counts alerts entering the firing state.
type FireRecorder interface {
	AlertFired(severity string)
}

type rule struct {
	config.AlertRule
	cond Condition
}

// Engine evaluates alert rules against stream payloads and delivers webhook
// notifications when rules fire or resolve.
//
// Engine is safe for concurrent use.
type Engine struct {
	client   *http.Client
	recorder FireRecorder
	now      func() time.Time
	deliverW sync.WaitGroup

	mu       sync.Mutex
	rules    []rule
	webhooks []config.WebhookConfig
	active   map[string]*Alert    // key: "ruleName:resource"
	lastFire map[string]time.Time // last fire time per key (for cooldown)
	history  []*Alert             // resolved alerts, oldest first
}

// New creates an Engine from the alert configuration. rec may be nil.
// An Engine with no rules is valid; Evaluate becomes a no-op.
func New(cfg config.AlertsConfig, rec FireRecorder) (*Engine, error) {
	e := &Engine{
		client:   &http.Client{Timeout: 10 * time.Second},
		recorder: rec,
		now:      time.Now,
		active:   make(map[string]*Alert),
		lastFire: make(map[string]time.Time),
	}
	if err := e.SetRules(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// SetRules replaces rules and webhooks. On a parse error the previous
// rules stay in effect. Alerts of removed rules are resolved silently.
func (e *Engine) SetRules(cfg config.AlertsConfig) error {
	rules := make([]rule, 0, len(cfg.Rules))
	names := make(map[string]bool, len(cfg.Rules))
	for _, r := range cfg.Rules {
		cond, err := ParseCondition(r.Condition)
		if err != nil {
			return fmt.Errorf("alerts: rule %q: %w", r.Name, err)
		}
		rules = append(rules, rule{AlertRule: r, cond: cond})
		names[r.Name] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
	e.webhooks = append([]config.WebhookConfig(nil), cfg.Webhooks...)
	for key, a := range e.active {
		if !names[a.RuleName] {
			delete(e.active, key)
			delete(e.lastFire, key)
		}
	}
	log.Info().Int("rules", len(rules)).Int("webhooks", len(cfg.Webhooks)).Msg("alerts: rules loaded")
	return nil
}

// Evaluate tests every rule whose field is present in fields. Alerts that
// fire are stored and delivered asynchronously; firing alerts whose
// condition is now false are resolved.
func (e *Engine) Evaluate(resource string, fields map[string]json.RawMessage) {
	e.mu.Lock()
	rules := e.rules
	e.mu.Unlock()
	if len(rules) == 0 {
		return
	}

	now := e.now()
	for _, r := range rules {
		fires, value, present := r.cond.Eval(fields)
		if !present {
			continue
		}
		key := r.Name + ":" + resource

		if fires {
			e.fire(r, key, resource, value, now)
		} else {
			e.resolve(r, key, resource, now)
		}
	}
}

func (e *Engine) fire(r rule, key, resource string, value float64, now time.Time) {
	cooldown := r.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}

	e.mu.Lock()
	if last, ok := e.lastFire[key]; ok && now.Sub(last) <= cooldown {
		e.mu.Unlock()
		return
	}
	sev := r.Severity
	if sev == "" {
		sev = defaultSeverity
	}
	a := &Alert{
		ID:       uuid.NewString(),
		RuleName: r.Name,
		Resource: resource,
		Severity: sev,
		Value:    value,
		Message:  fmt.Sprintf("[%s] %s fired on %s: %s (value %.2f)", sev, r.Name, resource, r.cond, value),
		FiredAt:  now,
		State:    StateFiring,
	}
	e.active[key] = a
	e.lastFire[key] = now
	alertCopy := *a
	e.mu.Unlock()

	log.Warn().
		Str("rule", r.Name).
		Str("resource", resource).
		Float64("value", value).
		Str("severity", sev).
		Msg("alerts: fired")
	if e.recorder != nil {
		e.recorder.AlertFired(sev)
	}
	e.goDeliver(&alertCopy)
}

func (e *Engine) resolve(r rule, key, resource string, now time.Time) {
	e.mu.Lock()
	a, ok := e.active[key]
	if !ok || a.State != StateFiring {
		e.mu.Unlock()
		return
	}
	resolved := now
	a.State = StateResolved
	a.ResolvedAt = &resolved
	delete(e.active, key)

	e.history = append(e.history, a)
	if len(e.history) > maxHistoryLen {
		e.history = e.history[len(e.history)-maxHistoryLen:]
	}
	alertCopy := *a
	e.mu.Unlock()

	log.Info().Str("rule", r.Name).Str("resource", resource).Msg("alerts: resolved")
	e.goDeliver(&alertCopy)
}

// Active returns copies of all currently firing alerts plus any alerts
// resolved within the past hour, sorted newest first.
func (e *Engine) Active() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	cutoff := e.now().Add(-recentWindow)
	out := make([]Alert, 0, len(e.active))
	for _, a := range e.active {
		out = append(out, *a)
	}
	for _, a := range e.history {
		if a.ResolvedAt != nil && a.ResolvedAt.After(cutoff) {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.After(out[j].FiredAt) })
	return out
}

// History returns the resolved alerts kept in memory, oldest first.
func (e *Engine) History() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Alert, len(e.history))
	for i, a := range e.history {
		out[i] = *a
	}
	return out
}

// Wait blocks until in-flight webhook deliveries finish.
func (e *Engine) Wait() { e.deliverW.Wait() }

func (e *Engine) goDeliver(a *Alert) {
	e.mu.Lock()
	hooks := e.webhooks
	e.mu.Unlock()
	if len(hooks) == 0 {
		return
	}
	e.deliverW.Add(1)
	go func() {
		defer e.deliverW.Done()
		e.deliver(hooks, a)
	}()
}
