package apiclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/mesboard/mesboard/console/internal/config"
	"github.com/mesboard/mesboard/console/internal/errs"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 4096

// Client talks to the MES backend.
type Client struct {
	baseURL string
	auth    config.AuthConfig
	http    *http.Client
	stream  *http.Client
	tls     *tls.Config
	limiter *rate.Limiter
}

// New builds a Client from the API configuration.
func New(cfg config.APIConfig) (*Client, error) {
	tlsCfg, err := buildTLSConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("apiclient: build transport: %w", err)
	}
	transport := buildTransport(cfg, tlsCfg)
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		auth:    cfg.Auth,
		http:    &http.Client{Transport: transport, Timeout: cfg.Timeout},
		stream:  &http.Client{Transport: transport},
		tls:     tlsCfg,
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst)
	}
	return c, nil
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// StreamHTTPClient returns a client with the same auth and TLS settings but
// no overall timeout, for long-lived server-sent event streams.
func (c *Client) StreamHTTPClient() *http.Client { return c.stream }

// TLSConfig returns a copy of the TLS settings used for every backend
// connection, including client certificates in mtls mode.
func (c *Client) TLSConfig() *tls.Config { return c.tls.Clone() }

// AuthHeader returns the headers the configured auth mode adds, for
// transports such as WebSocket that do not go through the round tripper.
func (c *Client) AuthHeader() http.Header {
	h := http.Header{}
	switch c.auth.Mode {
	case "apikey":
		h.Set(c.auth.EffectiveHeader(), c.auth.Key())
	case "bearer":
		h.Set("Authorization", "Bearer "+c.auth.Token())
	case "basic":
		req := &http.Request{Header: http.Header{}}
		req.SetBasicAuth(c.auth.Username, c.auth.Password())
		h.Set("Authorization", req.Header.Get("Authorization"))
	}
	return h
}

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method    string
	Path      string
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Status, msg)
}

// Is matches errs.ErrAPI always and errs.ErrNotFound for 404 responses.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*errs.Error)
	if !ok {
		return false
	}
	switch t.Kind {
	case errs.KindAPI:
		return true
	case errs.KindNotFound:
		return e.Status == http.StatusNotFound
	default:
		return false
	}
}

// do sends one request. body, when non-nil, is encoded as JSON; out, when
// non-nil, receives the decoded response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("apiclient: rate limit: %w", err)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("apiclient: encode %s %s: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errs.Wrap(errs.KindConnection, "apiclient: "+method+" "+path, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", reqID).
		Msg("apiclient: request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{
			Method:    method,
			Path:      path,
			Status:    resp.StatusCode,
			Message:   errorMessage(resp.Body),
			RequestID: reqID,
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return errs.Wrap(errs.KindParse, "apiclient: decode "+method+" "+path, err)
	}
	return nil
}

// errorMessage extracts the "message" (or "error") field of a JSON error
// body, falling back to the raw text.
func errorMessage(r io.Reader) string {
	raw, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return strings.TrimSpace(string(raw))
}

func get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	err := c.do(ctx, http.MethodGet, path, query, nil, &out)
	return out, err
}

func send[T any](ctx context.Context, c *Client, method, path string, query url.Values, body any) (*T, error) {
	var out T
	if err := c.do(ctx, method, path, query, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func pathf(format string, args ...any) string {
	for i, a := range args {
		if s, ok := a.(string); ok {
			args[i] = url.PathEscape(s)
		}
	}
	return fmt.Sprintf(format, args...)
}

// authRoundTripper injects authentication headers into every outgoing request.
type authRoundTripper struct {
	base http.RoundTripper
	auth config.AuthConfig
}

func (t *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	switch t.auth.Mode {
	case "apikey":
		req = req.Clone(req.Context())
		req.Header.Set(t.auth.EffectiveHeader(), t.auth.Key())
	case "bearer":
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.auth.Token())
	case "basic":
		req = req.Clone(req.Context())
		req.SetBasicAuth(t.auth.Username, t.auth.Password())
	}
	return t.base.RoundTrip(req)
}

// buildTLSConfig loads the verification and client certificate settings.
func buildTLSConfig(cfg config.APIConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify, //nolint:gosec // user-configured
	}

	if cfg.Auth.Mode == "mtls" {
		cert, err := tls.LoadX509KeyPair(cfg.Auth.CertFile, cfg.Auth.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("load client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}

		if cfg.Auth.CAFile != "" {
			caPEM, err := os.ReadFile(cfg.Auth.CAFile)
			if err != nil {
				return nil, fmt.Errorf("read ca file: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caPEM) {
				return nil, fmt.Errorf("no valid certs found in ca file %q", cfg.Auth.CAFile)
			}
			tlsCfg.RootCAs = pool
		}
	}
	return tlsCfg, nil
}

// buildTransport wraps a TLS-configured transport with the auth mode.
func buildTransport(cfg config.APIConfig, tlsCfg *tls.Config) http.RoundTripper {
	base := http.DefaultTransport.(*http.Transport).Clone()
	base.TLSClientConfig = tlsCfg
	return &authRoundTripper{base: base, auth: cfg.Auth}
}
