// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package backend is the HTTP client for the storefront REST backend that
// owns categories. Every response is decoded into an explicit envelope
// and checked before it reaches the category tree; shapes that do not
// match fail with ErrMalformedResponse.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds a single backend call.
	DefaultTimeout = 15 * time.Second

	// maxResponseSize caps how much of a response body is read.
	maxResponseSize = 8 << 20

	// TenantHeader carries the storefront tenant on every request.
	TenantHeader = "X-Tenant-ID"
)

// ErrMalformedResponse is returned when a 2xx response does not match the
// documented envelope.
var ErrMalformedResponse = errors.New("backend: malformed response")

// Config holds the connection settings for the backend.
type Config struct {
	BaseURL  string
	Token    string
	TenantID string
	Timeout  time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
}

// Client talks to the category endpoints of the REST backend.
// It is safe for concurrent use.
type Client struct {
	baseURL  string
	token    string
	tenantID string
	http     *http.Client
}

// New creates a backend client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.Token,
		tenantID: cfg.TenantID,
		http:     hc,
	}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one backend call.
type request struct {
	op          string // metric label, e.g. "create_category"
	method      string
	path        string
	body        io.Reader
	contentType string
}

// do performs the call, records metrics and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, req request, out any) error {
	start := time.Now()
	err := c.doRequest(ctx, req, out)
	observe(req.op, start, err)
	return err
}

func (c *Client) doRequest(ctx context.Context, r request, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("backend %s request: %w", r.op, err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		httpReq.Header.Set("Content-Type", r.contentType)
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.tenantID != "" {
		httpReq.Header.Set(TenantHeader, c.tenantID)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("backend %s http: %w", r.op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("backend %s read body: %w", r.op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	// An empty 2xx body leaves out untouched; callers validate the result.
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedResponse, r.op, err)
	}
	return nil
}
