// Package api is the HTTP client for the CV assistant backend. It attaches
// the bearer token, decodes and validates responses, and applies the
// session-wide 401 policy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultTimeout = 30 * time.Second
	userAgent      = "cvassist-client/1.0"
)

// TokenSource yields the current bearer token, or "" when logged out.
type TokenSource interface {
	Token() string
}

// UnauthorizedHandler is invoked once for every 401 response.
type UnauthorizedHandler interface {
	HandleUnauthorized()
}

type Client struct {
	baseURL      string
	httpClient   *http.Client
	tokens       TokenSource
	unauthorized UnauthorizedHandler
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.unauthorized = h }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// validator is implemented by every response model.
type validator interface {
	Validate() error
}

type request struct {
	method      string
	path        string
	auth        bool
	body        io.Reader
	contentType string
}

func jsonRequest(method, path string, auth bool, payload any) (request, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return request{}, fmt.Errorf("failed to marshal %s request: %w", path, err)
	}
	return request{
		method:      method,
		path:        path,
		auth:        auth,
		body:        bytes.NewReader(data),
		contentType: "application/json",
	}, nil
}

// do sends r and decodes a 2xx body into out (which may be nil).
func (c *Client) do(ctx context.Context, r request, out validator) error {
	var token string
	if c.tokens != nil {
		token = c.tokens.Token()
	}
	if r.auth && token == "" {
		return ErrNoSession
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Method: r.method, Path: r.path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	// A 401 on login or signup rejects the credentials, not the session.
	if resp.StatusCode == http.StatusUnauthorized && r.auth && c.unauthorized != nil {
		c.unauthorized.HandleUnauthorized()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Method:     r.method,
			Path:       r.path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(body),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, r.method, r.path, err)
	}
	if err := out.Validate(); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, r.method, r.path, err)
	}
	return nil
}
