// Package apiclient is the single gateway to the laboratory backend. It
// injects the caller's bearer token, unwraps the {status, data, message}
// envelope and turns HTTP failures into typed errors. Calls are never retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultTimeout is the blanket timeout applied to every backend call.
const DefaultTimeout = 30 * time.Second

type contextKey string

const tokenKey contextKey = "auth_token"

// WithToken returns a context carrying the bearer token for backend calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey, token)
}

func TokenFromContext(ctx context.Context) string {
	tok, _ := ctx.Value(tokenKey).(string)
	return tok
}

// Envelope is the response wrapper used by every backend endpoint.
// A few list endpoints put pagination beside data instead of inside it.
type Envelope struct {
	Status     string          `json:"status"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Pagination json.RawMessage `json:"pagination,omitempty"`

	raw []byte
}

// Field decodes the top-level member name into out. It reports false when
// the member is absent, null or does not decode.
func (e *Envelope) Field(name string, out interface{}) bool {
	if e == nil || len(e.raw) == 0 {
		return false
	}
	var members map[string]json.RawMessage
	if err := json.Unmarshal(e.raw, &members); err != nil {
		return false
	}
	v, ok := members[name]
	if !ok || string(v) == "null" {
		return false
	}
	return json.Unmarshal(v, out) == nil
}

// OK reports whether the backend marked the call as successful. Some
// endpoints answer "Success", others "success"; an absent status is
// accepted when the HTTP status already said 2xx.
func (e *Envelope) OK() bool {
	return e.Status == "" || strings.EqualFold(e.Status, "success")
}

// Config holds client construction parameters.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Client talks JSON to the backend.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     zerolog.Logger
}

func New(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the backend root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	_, err := c.Do(ctx, http.MethodGet, path, query, nil, out)
	return err
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.Do(ctx, http.MethodPost, path, nil, body, out)
	return err
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	_, err := c.Do(ctx, http.MethodPut, path, nil, body, out)
	return err
}

func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
	return err
}

// Do performs one call. When out is non-nil the envelope's data member is
// decoded into it. The raw envelope is returned for callers that need
// sibling fields or the message.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*Envelope, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindTransport, Method: method, Path: path, Message: msgUnexpected, Err: fmt.Errorf("encode body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Method: method, Path: path, Message: msgUnexpected, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	token := TokenFromContext(ctx)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).
			Str("method", method).
			Str("path", path).
			Bool("token_present", token != "").
			Dur("latency", time.Since(start)).
			Msg("backend request failed")
		if isTimeout(err) {
			return nil, &Error{Kind: KindTimeout, Method: method, Path: path, Message: msgTimeout, Err: err}
		}
		return nil, &Error{Kind: KindTransport, Method: method, Path: path, Message: "Unable to reach the server. Please try again.", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, StatusCode: resp.StatusCode, Method: method, Path: path, Message: msgUnexpected, Err: err}
	}

	evt := c.logger.Debug()
	if resp.StatusCode >= 400 {
		evt = c.logger.Warn()
	}
	evt.Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Bool("token_present", token != "").
		Dur("latency", time.Since(start)).
		Msg("backend request")

	env := &Envelope{raw: raw}
	decodeErr := json.Unmarshal(raw, env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return env, statusError(method, path, resp.StatusCode, env.Message)
	}
	if decodeErr != nil {
		return nil, &Error{Kind: KindServer, StatusCode: resp.StatusCode, Method: method, Path: path, Message: msgUnexpected, Err: fmt.Errorf("decode envelope: %w", decodeErr)}
	}
	if !env.OK() {
		msg := env.Message
		if msg == "" {
			msg = msgUnexpected
		}
		return env, &Error{Kind: KindServer, StatusCode: resp.StatusCode, Method: method, Path: path, Message: msg}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return env, &Error{Kind: KindServer, StatusCode: resp.StatusCode, Method: method, Path: path, Message: msgUnexpected, Err: fmt.Errorf("decode data: %w", err)}
		}
	}
	return env, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// CleanQuery drops empty values so unset filters are not sent.
func CleanQuery(params map[string]string) url.Values {
	q := url.Values{}
	for k, v := range params {
		if v = strings.TrimSpace(v); v != "" {
			q.Set(k, v)
		}
	}
	return q
}
