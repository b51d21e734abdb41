// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error variables for common backend failure modes.
var (
	// ErrMaintenance indicates the server declared maintenance mode (503).
	ErrMaintenance = errors.New("sistema em manutenção")

	// ErrUnauthenticated indicates the session is missing or expired (401).
	ErrUnauthenticated = errors.New("não autenticado")

	// ErrRateLimited indicates too many requests were made (429).
	ErrRateLimited = errors.New("limite de requisições excedido")
)

// APIError represents a non-success response from the inventory backend.
// Classification side effects (redirects, notifications) happen before the
// APIError is returned; the original error always reaches the caller.
type APIError struct {
	// Status is the HTTP status code.
	Status int

	// Message is the server's data.message field, verbatim, when present.
	Message string

	// RetryAfter is the wait hint for 429 responses (default 30s when the
	// retry-after header is absent or unparseable). Zero otherwise.
	RetryAfter time.Duration

	// RequestID is the client-generated correlation ID of the request.
	RequestID string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error (HTTP %d)", e.Status)
}

// Unwrap maps well-known statuses to their sentinel errors so call sites
// can use errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthenticated
	case e.Status == http.StatusTooManyRequests:
		return ErrRateLimited
	case e.Status >= 500 && e.Status < 600:
		return ErrMaintenance
	default:
		return nil
	}
}

// IsMaintenance reports whether err represents a server-declared outage:
// 503 or any other 5xx from the backend.
func IsMaintenance(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 500 && apiErr.Status < 600
}
