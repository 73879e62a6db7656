// Package client implements the API service layer for the task
// management backend. Every operation runs the same lifecycle: validate
// inputs, check the rate limit, perform the request with timeout and
// retry, then record a best-effort activity entry on success. Failures
// always surface as a classified *apperr.Error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hwg121/taskmanagement/internal/apperr"
	"github.com/hwg121/taskmanagement/internal/ratelimit"
	"github.com/sirupsen/logrus"
)

const (
	requestTimeout = 10 * time.Second
	maxRetries     = 3
	retryBackoff   = time.Second
)

// Client talks to the task management REST API.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *ratelimit.Limiter
	log     *logrus.Logger

	// session state set by Login or SetSession
	userID   int64
	username string
	token    string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLimiter replaces the rate limiter, letting tests control the
// clock or the budget.
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New creates a client for the given base URL.
func New(baseURL string, log *logrus.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{},
		limiter: ratelimit.New(ratelimit.DefaultLimit, ratelimit.DefaultWindow),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetSession resumes a stored session.
func (c *Client) SetSession(userID int64, username, token string) {
	c.userID = userID
	c.username = username
	c.token = token
}

// UserID returns the session user id, zero when logged out.
func (c *Client) UserID() int64 { return c.userID }

// Token returns the session token, empty when logged out.
func (c *Client) Token() string { return c.token }

// classify funnels every failure through the single exit point.
func (c *Client) classify(err error) *apperr.Error {
	return apperr.Classify(c.log, err)
}

// checkRateLimit rejects bursts above the per-operation window cap.
func (c *Client) checkRateLimit(operation, identifier string) error {
	if !c.limiter.Allow(operation, identifier) {
		return apperr.RateLimit("Too many requests. Please try again later.")
	}
	return nil
}

// do performs an HTTP request with a per-attempt timeout and a fixed
// retry budget. HTTP-level errors are assumed deterministic and are
// never retried; transport errors and timeouts are retried with a fixed
// backoff until the budget runs out. On success the response body is
// decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryBackoff):
			case <-ctx.Done():
				return c.transportError(ctx.Err())
			}
		}

		err := c.attempt(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}

		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			// HTTP-level failure, deterministic: surface immediately.
			return appErr
		}
		lastErr = err
		c.log.Debugf("Request %s %s failed (attempt %d): %v", method, path, attempt+1, err)
	}

	return c.transportError(lastErr)
}

// transportError maps an exhausted transport failure to its final
// classification. Timeouts get their dedicated code; anything else is
// left for the classifier.
func (c *Client) transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Timeout("Request timeout")
	}
	return err
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return responseError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			// The server already served this request; a bad body is
			// terminal, never a reason to send it again.
			return c.classify(fmt.Errorf("failed to decode response: %w", err))
		}
	}
	return nil
}

// responseError builds a classified error from a non-success response,
// preferring the structured {message, code} payload when present.
func responseError(resp *http.Response) *apperr.Error {
	var body struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	if body.Message == "" {
		body.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	if body.Code == "" {
		body.Code = apperr.CodeHTTP
	}
	return apperr.New(body.Message, body.Code, resp.StatusCode)
}
