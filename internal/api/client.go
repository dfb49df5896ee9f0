// Package api is the client for the tutoring platform's admin REST API.
//
// Every response is checked before it reaches the caller: non-2xx statuses
// become *errors.APIError, list endpoints must return a JSON array or the
// call fails with *errors.DecodeError, and each request is bounded by the
// configured timeout. Requests carry an X-Request-ID that is also logged.
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

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/dhanwis/tutoradmin/internal/errors"
	"github.com/dhanwis/tutoradmin/internal/logging"
)

const (
	// defaultTimeout bounds a single request when no timeout is configured.
	defaultTimeout = 15 * time.Second

	// defaultAuthScheme is the Authorization header prefix.
	defaultAuthScheme = "Token"

	// maxBodyBytes caps how much of a response is read.
	maxBodyBytes = 8 << 20

	// RequestIDHeader carries the per-request correlation id.
	RequestIDHeader = "X-Request-ID"
)

// TokenSource supplies the stored login token.
type TokenSource interface {
	Load() (string, error)
}

// Client talks to the admin API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	authScheme string
	timeout    time.Duration
	httpClient *http.Client
	logger     *logging.Logger
	validate   *validator.Validate
	requestID  func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTokens sets where authenticated calls read the token from.
func WithTokens(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithAuthScheme sets the Authorization header prefix, e.g. "Bearer".
func WithAuthScheme(scheme string) Option {
	return func(c *Client) {
		if scheme != "" {
			c.authScheme = scheme
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the logger for request events.
func WithLogger(logger *logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDFunc overrides the X-Request-ID generator.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		c.requestID = fn
	}
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		authScheme: defaultAuthScheme,
		timeout:    defaultTimeout,
		httpClient: &http.Client{},
		logger:     logging.NopLogger(),
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		requestID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one call.
type request struct {
	method string
	path   string
	body   any
	// anonymous calls skip the token lookup (login)
	anonymous bool
}

// response is a checked 2xx response.
type response struct {
	status    int
	body      []byte
	requestID string
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, req request) (*response, error) {
	var token string
	if !req.anonymous {
		if c.tokens == nil {
			return nil, errors.ErrNotLoggedIn
		}
		t, err := c.tokens.Load()
		if err != nil {
			return nil, err
		}
		token = t
	}

	var payload io.Reader
	if req.body != nil {
		if err := c.check(req.body); err != nil {
			return nil, err
		}
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	requestID := c.requestID()
	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, payload)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", c.authScheme+" "+token)
	}

	logger := c.logger.WithRequest(requestID).WithCall(req.method, req.path)
	start := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.Warn("api request failed",
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error())
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, errors.NewTimeoutError(req.method+" "+req.path, c.timeout).WithCause(err)
		case errors.Is(err, context.Canceled):
			return nil, fmt.Errorf("%s %s: %w", req.method, req.path, errors.ErrCanceled)
		default:
			return nil, errors.NewAPIError(req.method, req.path, 0).WithRequestID(requestID).WithCause(err)
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.NewAPIError(req.method, req.path, resp.StatusCode).
			WithRequestID(requestID).
			WithCause(fmt.Errorf("read response: %w", err))
	}

	logger.Info("api request",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := errors.NewAPIError(req.method, req.path, resp.StatusCode).WithRequestID(requestID)
		if msg := serverMessage(body); msg != "" {
			apiErr = apiErr.WithMessage(msg)
		}
		return nil, apiErr
	}

	return &response{status: resp.StatusCode, body: body, requestID: requestID}, nil
}

// check validates an outgoing payload and reports the first failing field.
func (c *Client) check(payload any) error {
	err := c.validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewValidationError("invalid request").WithCause(err)
	}
	fe := fieldErrs[0]
	return errors.NewValidationError(fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag())).
		WithField(fe.Field()).
		WithValue(fe.Value())
}

// serverMessage extracts a human-readable message from an error body.
func serverMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err == nil {
		for _, key := range []string{"message", "detail", "error"} {
			if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		if list, ok := obj["non_field_errors"].([]any); ok && len(list) > 0 {
			if s, ok := list[0].(string); ok {
				return s
			}
		}
		return ""
	}

	// Plain-text bodies are used as-is, but HTML error pages are not.
	if body[0] == '<' {
		return ""
	}
	const maxLen = 200
	msg := string(body)
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
