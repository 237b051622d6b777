// Package contentapi is a client for the spreadsheet-backed script endpoint
// that stores projects and admin accounts. Every call is a JSON POST whose
// "action" field selects the operation.
package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 8 << 20
	userAgent       = "portfolio-contentapi/1.0"
)

var log = logrus.WithField("component", "contentapi")

var (
	// ErrNotConfigured means no endpoint URL was given.
	ErrNotConfigured = errors.New("contentapi: endpoint not configured")
	// ErrInvalidResponse means the endpoint answered with something other
	// than the expected JSON envelope.
	ErrInvalidResponse = errors.New("contentapi: invalid response from server")
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("contentapi: not found")
	// ErrInvalidCredentials is returned by Login for a rejected password.
	ErrInvalidCredentials = errors.New("contentapi: invalid credentials")
)

// APIError is a failure reported by the endpoint itself.
type APIError struct {
	Action  string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("contentapi: %s: %s (status %d)", e.Action, e.Message, e.Status)
}

// HTTPStatus maps the failure to a status for our own responses. Upstream
// client errors pass through; anything else is a 500.
func (e *APIError) HTTPStatus() int {
	if e.Status >= 400 && e.Status < 600 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Client talks to one endpoint. It is safe for concurrent use.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithAPIKey adds an apiKey field to every payload.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// New returns a client for endpoint. An empty endpoint is allowed; every
// call then fails with ErrNotConfigured.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured reports whether the client has an endpoint.
func (c *Client) Configured() bool {
	return c != nil && c.endpoint != ""
}

// call posts {action, fields...} and decodes the envelope. A non-2xx status
// is returned as *APIError together with the decoded envelope.
func (c *Client) call(ctx context.Context, action string, fields map[string]any) (envelope, int, error) {
	if !c.Configured() {
		return nil, 0, ErrNotConfigured
	}

	payload := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		payload[k] = v
	}
	payload["action"] = action
	if c.apiKey != "" {
		payload["apiKey"] = c.apiKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, fmt.Errorf("contentapi: %s: encode payload: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, fmt.Errorf("contentapi: %s: build request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("contentapi: %s: %w", action, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("contentapi: %s: read body: %w", action, err)
	}

	logFields := logrus.Fields{
		"action":  action,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env == nil {
		logFields["body"] = preview(raw)
		log.WithFields(logFields).Warn("content api returned a non-JSON body")
		return nil, resp.StatusCode, fmt.Errorf("contentapi: %s: %w", action, ErrInvalidResponse)
	}
	log.WithFields(logFields).Debug("content api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return env, resp.StatusCode, env.failure(action, resp.StatusCode, "request failed")
	}
	return env, resp.StatusCode, nil
}

func preview(b []byte) string {
	const n = 200
	s := string(b)
	if len(s) > n {
		s = s[:n] + "..."
	}
	return s
}

// envelope is the decoded top-level response object. Values stay raw until
// read so that a field of an unexpected type cannot fail the whole decode.
type envelope map[string]json.RawMessage

func (e envelope) value(key string) any {
	raw, ok := e[key]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}

func (e envelope) flag(key string) bool {
	switch v := e.value(key).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	case float64:
		return v != 0
	default:
		return false
	}
}

func (e envelope) text(key string) string {
	return toString(e.value(key))
}

func (e envelope) object(key string) (map[string]any, bool) {
	m, ok := e.value(key).(map[string]any)
	return m, ok
}

func (e envelope) list(key string) ([]any, bool) {
	l, ok := e.value(key).([]any)
	return l, ok
}

// failure builds an *APIError from the envelope's error or message field.
func (e envelope) failure(action string, status int, fallback string) error {
	msg := e.text("error")
	if msg == "" {
		msg = e.text("message")
	}
	if msg == "" {
		msg = fallback
	}
	return &APIError{Action: action, Status: status, Message: msg}
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
