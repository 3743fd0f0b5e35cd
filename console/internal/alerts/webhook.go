package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mesboard/mesboard/console/internal/config"
)

const deliveryTimeout = 10 * time.Second

// payloadFunc renders the request body one webhook type expects.
type payloadFunc func(a *Alert) any

var payloads = map[string]payloadFunc{
	"slack": slackPayload,
	"teams": teamsPayload,
	"http":  func(a *Alert) any { return map[string]any{"source": "mesboard", "alert": a} },
}

// deliver posts a to every target in hooks. Failures are logged only.
func (e *Engine) deliver(hooks []config.WebhookConfig, a *Alert) {
	for _, wh := range hooks {
		target := wh.URL()
		if target == "" {
			continue
		}
		render, ok := payloads[wh.Type]
		if !ok {
			log.Warn().Str("type", wh.Type).Msg("alerts: unknown webhook type, skipping")
			continue
		}

		logger := log.With().Str("type", wh.Type).Str("rule", a.RuleName).Str("state", a.State).Logger()
		if err := e.post(target, render(a)); err != nil {
			logger.Error().Err(err).Msg("alerts: webhook delivery failed")
			continue
		}
		logger.Debug().Msg("alerts: webhook delivered")
	}
}

func slackPayload(a *Alert) any {
	return map[string]any{
		"text": fmt.Sprintf("*%s* %s", stateLabel(a), a.Message),
		"attachments": []map[string]any{{
			"color": "#" + severityColor(a.Severity),
			"fields": []map[string]any{
				{"title": "Resource", "value": a.Resource, "short": true},
				{"title": "Value", "value": formatValue(a.Value), "short": true},
			},
		}},
	}
}

func teamsPayload(a *Alert) any {
	return map[string]any{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    a.RuleName,
		"title":      "MES alert: " + a.RuleName,
		"text":       stateLabel(a) + " " + a.Message,
		"sections": []map[string]any{{
			"facts": []map[string]string{
				{"name": "Resource", "value": a.Resource},
				{"name": "Value", "value": formatValue(a.Value)},
				{"name": "Fired", "value": a.FiredAt.UTC().Format(time.RFC3339)},
			},
		}},
	}
}

func (e *Engine) post(target string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "mesboard-alerts")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook answered %s", resp.Status)
	}
	return nil
}

func formatValue(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

// stateLabel is the bracketed prefix shown in chat messages.
func stateLabel(a *Alert) string {
	if a.State == StateResolved {
		return "[RESOLVED]"
	}
	switch a.Severity {
	case "critical":
		return "[CRITICAL]"
	case "info":
		return "[INFO]"
	default:
		return "[WARNING]"
	}
}

var severityColors = map[string]string{
	"critical": "D93025",
	"warning":  "F9AB00",
	"info":     "1A73E8",
}

func severityColor(s string) string {
	if c, ok := severityColors[s]; ok {
		return c
	}
	return severityColors[defaultSeverity]
}
