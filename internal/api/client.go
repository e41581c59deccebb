// Package api is the typed client for the campus-events REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusevents/internal/model"
)

// Sessions is the part of the session store the client needs.
type Sessions interface {
	Load(ctx context.Context) model.Session
	Clear(ctx context.Context) error
}

// Client calls the campus-events API.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	sessions Sessions
	metrics  *Metrics
	timeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. A nil client keeps the
// default.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.HTTP = h
		}
	}
}

// WithTimeout sets the per-request timeout. It applies to a copy of the
// http.Client, so a client passed to WithHTTPClient is never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithMetrics instruments every call.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// New creates a client. The token for each request is read from sessions.
func New(baseURL string, sessions Sessions, opts ...Option) *Client {
	c := &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: 15 * time.Second},
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.HTTP
		hc.Timeout = c.timeout
		c.HTTP = &hc
	}
	return c
}

// do issues one request. in is JSON-encoded when non-nil; out is decoded
// from a 2xx body when non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) error {
	start := time.Now()
	code := "error"
	defer func() {
		if c.metrics != nil {
			c.metrics.requests.WithLabelValues(op, code).Inc()
			c.metrics.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		}
	}()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sessions != nil {
		if token := c.sessions.Load(ctx).AccessToken; token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s: request failed: %w", op, err)
	}
	defer resp.Body.Close()
	code = strconv.Itoa(resp.StatusCode)

	if resp.StatusCode == http.StatusUnauthorized {
		c.invalidate(ctx)
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return &Error{Status: resp.StatusCode, Detail: parseDetail(raw), Method: method, Path: path}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// invalidate tears the session down after a 401.
func (c *Client) invalidate(ctx context.Context) {
	if c.metrics != nil {
		c.metrics.invalidations.Inc()
	}
	if c.sessions == nil {
		return
	}
	// the caller's ctx may already be cancelled; clearing must still happen
	clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := c.sessions.Clear(clearCtx); err != nil {
		log.Printf("session clear after 401 failed: %v", err)
	}
}
