// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"net/http"
	"testing"
	"time"

	"github.com/sisinv/inventario-cli/internal/nav"
)

func bypassOff() bool { return false }
func bypassOn() bool  { return true }

func TestClassifyNormalStatuses(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOff)

	for _, status := range []int{200, 201, 204, 400, 404, 409} {
		cls := c.Classify(Response{Status: status}, nav.RouteHome)
		if cls.Outcome != OutcomeNormal {
			t.Errorf("status %d: Outcome = %v, want %v", status, cls.Outcome, OutcomeNormal)
		}
		if cls.Redirect != nil {
			t.Errorf("status %d: unexpected redirect to %s", status, cls.Redirect.Target)
		}
	}
}

// =============================================================================
// MAINTENANCE (503)
// =============================================================================

func TestClassifyMaintenanceRedirects(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOff)

	cls := c.Classify(Response{Status: http.StatusServiceUnavailable}, nav.RouteHome)
	if cls.Outcome != OutcomeMaintenance {
		t.Fatalf("Outcome = %v, want %v", cls.Outcome, OutcomeMaintenance)
	}
	if cls.Redirect == nil || cls.Redirect.Target != nav.RouteMaintenance {
		t.Errorf("503 should redirect to the maintenance screen, got %+v", cls.Redirect)
	}
}

func TestClassifyMaintenanceBypassSuppressesRedirect(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOn)

	cls := c.Classify(Response{Status: http.StatusServiceUnavailable}, nav.RouteHome)
	if cls.Outcome != OutcomeMaintenance {
		t.Fatalf("Outcome = %v, want %v", cls.Outcome, OutcomeMaintenance)
	}
	if cls.Redirect != nil {
		t.Errorf("bypass holder should not be redirected, got %s", cls.Redirect.Target)
	}
}

func TestClassifyMaintenanceExemptScreens(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOff)

	for _, route := range []nav.Route{nav.RouteMaintenance, nav.RouteDev} {
		cls := c.Classify(Response{Status: http.StatusServiceUnavailable}, route)
		if cls.Redirect != nil {
			t.Errorf("503 on %s should not redirect, got %s", route, cls.Redirect.Target)
		}
	}
}

// =============================================================================
// UNAUTHENTICATED / DISABLED ACCOUNT (401)
// =============================================================================

func TestClassifyUnauthenticatedRedirectsToLogin(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOff)

	cls := c.Classify(Response{
		Status:  http.StatusUnauthorized,
		Message: "Credenciais inválidas",
	}, nav.RouteHome)

	if cls.Outcome != OutcomeUnauthenticated {
		t.Fatalf("Outcome = %v, want %v", cls.Outcome, OutcomeUnauthenticated)
	}
	if cls.Redirect == nil || cls.Redirect.Target != nav.RouteLogin {
		t.Errorf("401 should redirect to login, got %+v", cls.Redirect)
	}
	if cls.Notice != "Credenciais inválidas" {
		t.Errorf("Notice = %q, want the server message", cls.Notice)
	}
}

func TestClassifyDisabledAccountMarker(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOff)

	cls := c.Classify(Response{
		Status:  http.StatusUnauthorized,
		Message: "Conta desativada. Acesso não autorizado.",
	}, nav.RouteHome)

	if cls.Outcome != OutcomeAccountDisabled {
		t.Fatalf("Outcome = %v, want %v", cls.Outcome, OutcomeAccountDisabled)
	}
	if cls.Redirect == nil || cls.Redirect.Target != nav.RouteAccountDisabled {
		t.Errorf("disabled account should redirect to %s, got %+v", nav.RouteAccountDisabled, cls.Redirect)
	}
}

func TestClassifyMarkerMatchIsCaseInsensitive(t *testing.T) {
	c := NewClassifier("Conta Desativada", bypassOff)

	cls := c.Classify(Response{
		Status:  http.StatusUnauthorized,
		Message: "CONTA DESATIVADA pelo administrador",
	}, nav.RouteHome)

	if cls.Outcome != OutcomeAccountDisabled {
		t.Errorf("marker match should ignore case, got %v", cls.Outcome)
	}
}

func TestClassify401OnPublicScreensIsQuiet(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOff)

	routes := []nav.Route{nav.RouteLogin, nav.RouteSetup, nav.RouteMaintenance, nav.RouteAccountDisabled}
	for _, route := range routes {
		cls := c.Classify(Response{
			Status:  http.StatusUnauthorized,
			Message: "Credenciais inválidas",
		}, route)
		if cls.Redirect != nil {
			t.Errorf("401 on %s should not redirect, got %s", route, cls.Redirect.Target)
		}
		if cls.Notice != "" {
			t.Errorf("401 on %s should not notify, got %q", route, cls.Notice)
		}
	}
}

// =============================================================================
// RATE LIMITING (429)
// =============================================================================

func TestClassifyRateLimitedSecondsHeader(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOff)

	header := http.Header{}
	header.Set("Retry-After", "90")
	cls := c.Classify(Response{Status: http.StatusTooManyRequests, Header: header}, nav.RouteHome)

	if cls.Outcome != OutcomeRateLimited {
		t.Fatalf("Outcome = %v, want %v", cls.Outcome, OutcomeRateLimited)
	}
	if cls.RetryAfter != 90*time.Second {
		t.Errorf("RetryAfter = %v, want 90s", cls.RetryAfter)
	}
	if cls.Redirect != nil {
		t.Error("429 should never redirect")
	}
}

func TestClassifyRateLimitedHTTPDateHeader(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOff)

	header := http.Header{}
	header.Set("Retry-After", time.Now().Add(2*time.Minute).UTC().Format(http.TimeFormat))
	cls := c.Classify(Response{Status: http.StatusTooManyRequests, Header: header}, nav.RouteHome)

	if cls.RetryAfter < time.Minute || cls.RetryAfter > 2*time.Minute {
		t.Errorf("RetryAfter = %v, want roughly 2m", cls.RetryAfter)
	}
}

func TestClassifyRateLimitedDefault(t *testing.T) {
	c := NewClassifier("conta desativada", bypassOff)

	cls := c.Classify(Response{Status: http.StatusTooManyRequests}, nav.RouteHome)
	if cls.RetryAfter != defaultRetryAfter {
		t.Errorf("RetryAfter = %v, want the %v default", cls.RetryAfter, defaultRetryAfter)
	}

	header := http.Header{}
	header.Set("Retry-After", "garbage")
	cls = c.Classify(Response{Status: http.StatusTooManyRequests, Header: header}, nav.RouteHome)
	if cls.RetryAfter != defaultRetryAfter {
		t.Errorf("unparseable header: RetryAfter = %v, want the %v default", cls.RetryAfter, defaultRetryAfter)
	}
}
