// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the inventory backend and the
// response classifier every backend response flows through.
//
// The client tracks the logical screen the host application is on (Location)
// because classification decisions depend on it: a 401 on the login screen
// must not redirect, a 503 on the maintenance screen must not loop.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sisinv/inventario-cli/internal/nav"
	"github.com/sisinv/inventario-cli/internal/notify"
)

// Configuration constants for the inventory backend API.
const (
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 2 * 1024 * 1024 // 2MB limit

	userAgent = "inventario-cli/1.0"
)

// sharedTransport pools connections across all clients.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// Client is the HTTP client for the inventory backend.
//
// Authentication is cookie-based; the jar carries the session cookie set by
// /auth/login. Every rejected response runs through the classifier before
// the call returns, and any resulting redirect intent or notification is
// dispatched to the registered handlers. Statuses a call deliberately
// accepts (the identity probe treats a 401 as an answer, not a failure)
// skip classification entirely. The original error is always returned to
// the caller regardless of what classification decided.
type Client struct {
	baseURL    string
	httpClient *http.Client

	classifier *Classifier
	notifier   notify.Notifier

	mu         sync.Mutex
	location   nav.Route
	onRedirect func(*nav.Intent)
}

// NewClient creates a backend client rooted at baseURL (including the /api
// prefix). The classifier and notifier start disabled; wire them with
// WithClassifier and WithNotifier.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jar, _ := cookiejar.New(nil)
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   timeout,
			Jar:       jar,
		},
		notifier: notify.Discard,
		location: nav.RouteHome,
	}
}

// WithClassifier sets the response classifier.
func (c *Client) WithClassifier(cl *Classifier) *Client {
	c.classifier = cl
	return c
}

// WithNotifier sets the sink for user-facing notifications.
func (c *Client) WithNotifier(n notify.Notifier) *Client {
	if n != nil {
		c.notifier = n
	}
	return c
}

// OnRedirect registers the handler that applies redirect intents.
func (c *Client) OnRedirect(fn func(*nav.Intent)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRedirect = fn
}

// Location returns the logical screen the host application is on.
func (c *Client) Location() nav.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.location
}

// SetLocation records the logical screen the host application is on.
func (c *Client) SetLocation(r nav.Route) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.location = r
}

// Navigate applies a redirect intent to the tracked location. Replace
// semantics make repeated application of the same intent a no-op.
func (c *Client) Navigate(intent *nav.Intent) {
	if intent == nil {
		return
	}
	c.SetLocation(intent.Target)
}

// =============================================================================
// REQUEST EXECUTION
// =============================================================================

// payload is the decoded slice of a backend response the endpoints need.
type payload struct {
	status  int
	body    []byte
	message string
	header  http.Header
}

// serverMessage is the error envelope the backend uses for failures.
type serverMessage struct {
	Message string `json:"message"`
}

// acceptOK accepts conventional success statuses.
func acceptOK(status int) bool {
	return status >= 200 && status < 300
}

// acceptBelow500 mirrors the bootstrap identity probe: anything the server
// answered deliberately (including 401) is a result, not an error.
func acceptBelow500(status int) bool {
	return status < 500
}

// do performs one request. Statuses rejected by accept are classified and
// become an *APIError carrying the server message and, for 429, the
// retry-after hint. Accepted statuses bypass the classifier so a deliberate
// 401 on the identity probe cannot fire a login redirect.
func (c *Client) do(ctx context.Context, method, path string, reqBody interface{}, accept func(int) bool) (*payload, error) {
	var bodyReader io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failure: no status to classify, the route guard
		// upstream decides what an unreachable server means.
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	msg := extractMessage(body)
	p := &payload{status: resp.StatusCode, body: body, message: msg, header: resp.Header}
	if accept != nil && accept(resp.StatusCode) {
		return p, nil
	}

	cls := c.classify(Response{Status: resp.StatusCode, Message: msg, Header: resp.Header})
	return nil, &APIError{
		Status:     resp.StatusCode,
		Message:    msg,
		RetryAfter: cls.RetryAfter,
		RequestID:  requestID,
	}
}

// classify runs the classifier against the tracked location and dispatches
// its side effects. Returns the classification so do can reuse RetryAfter.
func (c *Client) classify(res Response) Classification {
	if c.classifier == nil {
		return Classification{Outcome: OutcomeNormal}
	}

	cls := c.classifier.Classify(res, c.Location())

	if cls.Notice != "" {
		c.notifier.Notify(notify.LevelError, cls.Notice)
	}
	if cls.Redirect != nil {
		c.mu.Lock()
		handler := c.onRedirect
		c.mu.Unlock()
		if handler != nil {
			handler(cls.Redirect)
		}
	}
	return cls
}

// readResponse reads the response body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	limited := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// extractMessage pulls data.message out of an error envelope, tolerating
// non-JSON bodies.
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var env serverMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}
