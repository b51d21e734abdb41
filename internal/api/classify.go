// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sisinv/inventario-cli/internal/nav"
)

// defaultRetryAfter is used when a 429 carries no parseable retry-after.
const defaultRetryAfter = 30 * time.Second

// =============================================================================
// OUTCOME
// =============================================================================

// Outcome classifies a backend response for the session coordinator.
type Outcome int

const (
	// OutcomeNormal passes through unchanged.
	OutcomeNormal Outcome = iota
	// OutcomeMaintenance is a server-declared outage (503).
	OutcomeMaintenance
	// OutcomeUnauthenticated is a generic auth failure (401).
	OutcomeUnauthenticated
	// OutcomeAccountDisabled is a 401 whose message carries the
	// disabled-account marker.
	OutcomeAccountDisabled
	// OutcomeRateLimited is a 429; the caller stays on the current screen
	// and surfaces a retry countdown.
	OutcomeRateLimited
)

// String returns a string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeNormal:
		return "NORMAL"
	case OutcomeMaintenance:
		return "MAINTENANCE"
	case OutcomeUnauthenticated:
		return "UNAUTHENTICATED"
	case OutcomeAccountDisabled:
		return "ACCOUNT_DISABLED"
	case OutcomeRateLimited:
		return "RATE_LIMITED"
	default:
		return "UNKNOWN"
	}
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Response is the slice of an HTTP response the classifier consumes.
type Response struct {
	Status  int
	Message string
	Header  http.Header
}

// Classification is the classifier's decision. Redirect is nil when the
// caller should stay put. Notice, when non-empty, is a user-facing message
// to forward verbatim.
type Classification struct {
	Outcome    Outcome
	Redirect   *nav.Intent
	Notice     string
	RetryAfter time.Duration
}

// Classifier turns backend responses into navigation and notification
// decisions. It never swallows the underlying error: call sites still
// return the original failure after classification runs.
type Classifier struct {
	// marker is the lowered disabled-account substring. Matching free
	// text is a documented legacy fallback; the config keeps it
	// replaceable when the backend grows a structured error code.
	marker string

	// bypass probes the maintenance-bypass registry. Read synchronously
	// at classification time, so one classification sees one value.
	bypass func() bool
}

// NewClassifier creates a response classifier. bypass may be nil, which
// means no identity ever bypasses maintenance redirects.
func NewClassifier(disabledMarker string, bypass func() bool) *Classifier {
	return &Classifier{
		marker: strings.ToLower(disabledMarker),
		bypass: bypass,
	}
}

func (c *Classifier) bypassed() bool {
	return c.bypass != nil && c.bypass()
}

// Classify applies the classification rules in priority order against the
// response and the screen the caller is currently on.
//
// Two concurrent requests may both classify into the same redirect; that is
// benign because replace-navigation is idempotent and terminal.
func (c *Classifier) Classify(res Response, current nav.Route) Classification {
	switch res.Status {
	case http.StatusServiceUnavailable:
		out := Classification{Outcome: OutcomeMaintenance}
		if nav.IsMaintenanceExempt(current) || c.bypassed() {
			return out
		}
		out.Redirect = nav.Replace(nav.RouteMaintenance)
		return out

	case http.StatusUnauthorized:
		disabled := c.marker != "" && strings.Contains(strings.ToLower(res.Message), c.marker)
		out := Classification{Outcome: OutcomeUnauthenticated}
		if disabled {
			out.Outcome = OutcomeAccountDisabled
		}
		// On a public screen (or the disabled-account screen itself)
		// the user is already where an unauthenticated user belongs.
		if nav.IsPublic(current) || current == nav.RouteAccountDisabled {
			return out
		}
		if disabled {
			out.Redirect = nav.Replace(nav.RouteAccountDisabled)
		} else {
			out.Redirect = nav.Replace(nav.RouteLogin)
		}
		out.Notice = res.Message
		return out

	case http.StatusTooManyRequests:
		return Classification{
			Outcome:    OutcomeRateLimited,
			RetryAfter: retryAfter(res.Header),
		}
	}

	return Classification{Outcome: OutcomeNormal}
}

// retryAfter parses the retry-after header: delta seconds or an HTTP date,
// falling back to defaultRetryAfter.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return defaultRetryAfter
	}
	v := h.Get("Retry-After")
	if v == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return defaultRetryAfter
}
