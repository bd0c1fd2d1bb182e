// Package api is the client for the Nutrify REST API. Every request carries
// a bearer token from a CredentialProvider and a fresh X-Request-ID, and every
// response body is unwrapped from the {"data": ...} envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/nutrify/internal/notify"
)

const (
	// DefaultTimeout is the transport timeout when no HTTP client is given.
	DefaultTimeout = 30 * time.Second

	maxBodyBytes = 4 << 20
)

// CredentialProvider supplies the bearer token for a request.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a CredentialProvider that always returns the same token.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// Client talks to the Nutrify API. It never retries; callers decide what a
// failure means for their state.
type Client struct {
	baseURL  string
	http     *http.Client
	creds    CredentialProvider
	notifier notify.Notifier
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCredentials sets the token source for authenticated requests.
func WithCredentials(p CredentialProvider) Option {
	return func(c *Client) { c.creds = p }
}

// WithNotifier sets where request failures are published.
func WithNotifier(n notify.Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
		notifier: notify.Discard,
		logger:   zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
	public bool
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

type errorEnvelope struct {
	Error     json.RawMessage `json:"error"`
	Message   string          `json:"message"`
	Code      string          `json:"code"`
	SessionID string          `json:"session_id"`
}

type errorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

// do performs one request and decodes the envelope into out (if non-nil).
// Failures are published to the notifier, except not-found reads and
// requests whose context was cancelled.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	err := c.send(ctx, cl, out)
	if err != nil {
		c.publish(ctx, cl, err)
	}
	return err
}

func (c *Client) send(ctx context.Context, cl call, out any) error {
	u := c.baseURL + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", cl.op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, u, body)
	if err != nil {
		return fmt.Errorf("%s: %w", cl.op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cl.public && c.creds != nil {
		token, err := c.creds.Token(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", cl.op, err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("api request failed",
			zap.String("method", cl.method),
			zap.String("path", cl.path),
			zap.String("request_id", requestID),
			zap.Duration("latency", time.Since(start)),
			zap.Error(err),
		)
		return fmt.Errorf("%s: %w", cl.op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	c.logger.Debug("api request",
		zap.String("method", cl.method),
		zap.String("path", cl.path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Duration("latency", time.Since(start)),
	)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", cl.op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, requestID, raw)
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: decode response: %w", cl.op, err)
	}
	data := env.Data
	if len(data) == 0 {
		data = raw
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", cl.op, err)
	}
	return nil
}

// decodeError maps a non-2xx response to a typed error. The error body may
// be {"error": {...}}, {"error": "msg"} or a bare {"code", "message"}.
func decodeError(status int, requestID string, raw []byte) error {
	apiErr := &Error{Status: status, RequestID: requestID}

	var env errorEnvelope
	if json.Unmarshal(raw, &env) == nil {
		detail := errorDetail{Code: env.Code, Message: env.Message, SessionID: env.SessionID}
		if len(env.Error) > 0 {
			var nested errorDetail
			var msg string
			switch {
			case json.Unmarshal(env.Error, &nested) == nil:
				if nested.Code != "" {
					detail.Code = nested.Code
				}
				if nested.Message != "" {
					detail.Message = nested.Message
				}
				if nested.SessionID != "" {
					detail.SessionID = nested.SessionID
				}
			case json.Unmarshal(env.Error, &msg) == nil:
				detail.Message = msg
			}
		}
		apiErr.Code = detail.Code
		apiErr.Message = detail.Message

		if status == http.StatusConflict && detail.Code == CodeActiveAssessment {
			return &ConflictError{SessionID: detail.SessionID, Err: apiErr}
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	switch status {
	case http.StatusUnauthorized:
		apiErr.Err = ErrUnauthorized
	case http.StatusNotFound:
		apiErr.Err = ErrNotFound
	}
	return apiErr
}

func (c *Client) publish(ctx context.Context, cl call, err error) {
	if ctx.Err() != nil {
		return
	}
	if cl.method == http.MethodGet && errors.Is(err, ErrNotFound) {
		return
	}
	if ce, ok := IsConflict(err); ok {
		c.notifier.Notify(notify.Warn(cl.op, ce.Error()))
		return
	}
	c.notifier.Notify(notify.Error(cl.op, err))
}
