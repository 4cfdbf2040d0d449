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

	"github.com/learnup/learnup/internal/ui/model"
	"github.com/learnup/learnup/logging"
)

const (
	// DefaultBaseURL is the backend used when none is configured.
	DefaultBaseURL = "http://localhost:8000"

	signupPath = "/users/signup/"
	loginPath  = "/users/login/"

	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Path returns the endpoint path for kind.
func Path(kind model.AuthKind) string {
	if kind == model.AuthSignup {
		return signupPath
	}
	return loginPath
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its cookie jar, if any, is
// used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request events.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the LearnUp users endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logging.Logger
}

// New builds a client for baseURL. An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	hc, err := newHTTPClient(defaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}
	c := &Client{
		baseURL: base,
		http:    hc,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Signup creates an account.
func (c *Client) Signup(ctx context.Context, email, password string) (model.AuthResponse, error) {
	return c.Authenticate(ctx, model.AuthSignup, email, password)
}

// Login authenticates an existing account.
func (c *Client) Login(ctx context.Context, email, password string) (model.AuthResponse, error) {
	return c.Authenticate(ctx, model.AuthLogin, email, password)
}

// Authenticate posts the credentials to the endpoint for kind. Non-2xx answers
// come back as *RequestError and network failures as *TransportError.
func (c *Client) Authenticate(ctx context.Context, kind model.AuthKind, email, password string) (model.AuthResponse, error) {
	return c.send(ctx, c.http, kind, email, password, nil, nil)
}

func (c *Client) send(ctx context.Context, hc *http.Client, kind model.AuthKind, email, password string, decorate func(*http.Request), observe func(*http.Response)) (model.AuthResponse, error) {
	if !kind.Valid() {
		return model.AuthResponse{}, fmt.Errorf("unknown auth kind %q", kind)
	}
	payload, err := json.Marshal(model.AuthRequest{Email: email, Password: password})
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("encode %s request: %w", kind.Label(), err)
	}

	endpoint := c.baseURL + Path(kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return model.AuthResponse{}, fmt.Errorf("build %s request: %w", kind.Label(), err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	includeCredentials(req)
	if requestID := logging.RequestID(ctx); requestID != "" {
		req.Header.Set(logging.RequestIDHeader, requestID)
	}
	if decorate != nil {
		decorate(req)
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Warn("api", "request failed", map[string]any{
			"kind":        kind.Label(),
			"endpoint":    endpoint,
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return model.AuthResponse{}, &TransportError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if observe != nil {
		observe(resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return model.AuthResponse{}, &TransportError{Kind: kind, Err: fmt.Errorf("read response: %w", err)}
	}

	c.logger.Debug("api", "response received", map[string]any{
		"kind":        kind.Label(),
		"endpoint":    endpoint,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.AuthResponse{}, &RequestError{
			Kind:    kind,
			Status:  resp.StatusCode,
			Message: errorMessage(kind, body),
		}
	}

	var out model.AuthResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return model.AuthResponse{}, malformed(kind, "body is not JSON")
	}
	if out.User == nil {
		return model.AuthResponse{}, malformed(kind, "missing user")
	}
	return out, nil
}

func errorMessage(kind model.AuthKind, body []byte) string {
	var payload model.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := strings.TrimSpace(payload.Error); msg != "" {
			return msg
		}
	}
	return DefaultFailureMessage(kind)
}
