// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sisinv/inventario-cli/internal/api"
	"github.com/sisinv/inventario-cli/internal/auth"
	"github.com/sisinv/inventario-cli/internal/nav"
)

func newTestApp(t *testing.T, handler http.HandlerFunc) *app {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	bypass := auth.NewBypassRegistry()
	client := api.NewClient(srv.URL, 2*time.Second).
		WithClassifier(api.NewClassifier("conta desativada", bypass.Enabled))
	client.OnRedirect(client.Navigate)

	return &app{
		client: client,
		bypass: bypass,
		boot:   auth.NewBootstrapper(client, bypass, "DEV"),
	}
}

func TestEstablishIdentitySuccess(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(api.UserResponse{Username: "dev", Role: "DEV"})
	})
	a.client.SetLocation(nav.RouteDev)

	id, err := establishIdentity(context.Background(), a)
	if err != nil {
		t.Fatalf("establishIdentity failed: %v", err)
	}
	if id == nil || id.Username != "dev" {
		t.Fatalf("identity = %+v, want dev", id)
	}
}

func TestEstablishIdentityNotAuthenticated(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	a.client.SetLocation(nav.RouteDev)

	id, err := establishIdentity(context.Background(), a)
	if !errors.Is(err, errNotAuthenticated) {
		t.Fatalf("err = %v, want errNotAuthenticated", err)
	}
	if id != nil {
		t.Errorf("identity = %+v, want nil", id)
	}
}

func TestEstablishIdentitySurfacesMaintenanceOnExemptScreen(t *testing.T) {
	a := newTestApp(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	a.client.SetLocation(nav.RouteDev)

	// The dev screen is maintenance-exempt, so the probe resolves without a
	// redirect; the 503 must still come back instead of "not authenticated".
	_, err := establishIdentity(context.Background(), a)
	if !api.IsMaintenance(err) {
		t.Fatalf("err = %v, want a maintenance error", err)
	}
}

func TestEstablishIdentitySurfacesNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // unreachable on purpose

	bypass := auth.NewBypassRegistry()
	client := api.NewClient(srv.URL, time.Second).
		WithClassifier(api.NewClassifier("conta desativada", bypass.Enabled))
	a := &app{
		client: client,
		bypass: bypass,
		boot:   auth.NewBootstrapper(client, bypass, "DEV"),
	}
	a.client.SetLocation(nav.RouteDev)

	_, err := establishIdentity(context.Background(), a)
	if err == nil || errors.Is(err, errNotAuthenticated) {
		t.Fatalf("err = %v, want the underlying transport failure", err)
	}
}
