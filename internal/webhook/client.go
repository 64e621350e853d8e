// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// ParamInput carries the trimmed user message.
	ParamInput = "chatInput"

	// ParamSession carries the conversation session ID.
	ParamSession = "sessionId"

	// NotFoundNotice is shown when the endpoint answers 404.
	NotFoundNotice = "Webhook not found or not active. Please check if the n8n workflow is activated and the webhook URL is correct."

	userAgent = "campus-chat/1.0"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound matches a StatusError with code 404.
	ErrNotFound = errors.New("webhook not found")

	// ErrNoEndpoint is returned when no endpoint URL is configured.
	ErrNoEndpoint = errors.New("webhook endpoint not configured")
)

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP error! status: %d", e.Code)
	}
	return fmt.Sprintf("HTTP error! status: %d, message: %s", e.Code, e.Body)
}

// Is reports whether a 404 status matches ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// FailureNotice converts a Send error into the text shown to the user in
// place of a reply.
func FailureNotice(err error) string {
	if errors.Is(err, ErrNotFound) {
		return NotFoundNotice
	}
	return fmt.Sprintf("Connection error: %s. Please check your webhook URL or try again.", err.Error())
}

// =============================================================================
// CLIENT
// =============================================================================

// Client sends user messages to the assistant endpoint.
type Client struct {
	mu       sync.RWMutex
	endpoint string
	http     *resty.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request. Zero leaves requests bounded only by the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithHTTPClient replaces the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = resty.NewWithClient(hc).SetHeader("User-Agent", userAgent)
	}
}

// NewClient creates a client for endpoint.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: strings.TrimSpace(endpoint),
		http:     resty.New().SetHeader("User-Agent", userAgent),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the current endpoint URL.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// SetEndpoint swaps the endpoint URL; in-flight requests are unaffected.
func (c *Client) SetEndpoint(endpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = strings.TrimSpace(endpoint)
}

// Send issues one GET carrying input and sessionID and returns the raw body.
// Transport failures are returned wrapped; non-2xx statuses are returned as
// *StatusError. No retries are performed.
func (c *Client) Send(ctx context.Context, input, sessionID string) (string, error) {
	endpoint := c.Endpoint()
	if endpoint == "" {
		return "", ErrNoEndpoint
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam(ParamInput, input).
		SetQueryParam(ParamSession, sessionID).
		Get(endpoint)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}

	if code := resp.StatusCode(); code < 200 || code > 299 {
		return "", &StatusError{Code: code, Body: strings.TrimSpace(resp.String())}
	}
	return string(resp.Body()), nil
}

// Ask sends input and decodes the reply.
func (c *Client) Ask(ctx context.Context, input, sessionID string) (string, error) {
	body, err := c.Send(ctx, input, sessionID)
	if err != nil {
		return "", err
	}
	return DecodeResponse(body), nil
}
