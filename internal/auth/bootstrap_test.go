// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sisinv/inventario-cli/internal/api"
	"github.com/sisinv/inventario-cli/internal/nav"
)

// bootHarness wires a client, bypass registry and bootstrapper against a
// scripted backend.
type bootHarness struct {
	client *api.Client
	bypass *BypassRegistry
	boot   *Bootstrapper
}

func newBootHarness(t *testing.T, handler http.HandlerFunc) *bootHarness {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	bypass := NewBypassRegistry()
	client := api.NewClient(srv.URL, 5*time.Second).
		WithClassifier(api.NewClassifier("conta desativada", bypass.Enabled))

	return &bootHarness{
		client: client,
		bypass: bypass,
		boot:   NewBootstrapper(client, bypass, "DEV"),
	}
}

func serveUser(user api.UserResponse) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(user)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestFetchMeEstablishesIdentity(t *testing.T) {
	h := newBootHarness(t, serveUser(api.UserResponse{
		Username: "ana", Role: "USER", Enabled: boolPtr(true),
	}))

	require.True(t, h.boot.Loading())

	intent, err := h.boot.FetchMe(context.Background())
	require.NoError(t, err)
	require.Nil(t, intent)
	require.False(t, h.boot.Loading())

	id := h.boot.Identity()
	require.NotNil(t, id)
	require.Equal(t, "ana", id.Username)
	require.Equal(t, RoleUser, id.Role)
	require.False(t, h.bypass.Enabled(), "non-privileged role must not get the bypass")
}

func TestFetchMePrivilegedRoleGetsBypass(t *testing.T) {
	h := newBootHarness(t, serveUser(api.UserResponse{
		Username: "dev", Role: "DEV", Enabled: boolPtr(true),
	}))

	_, err := h.boot.FetchMe(context.Background())
	require.NoError(t, err)
	require.True(t, h.bypass.Enabled())
}

func TestFetchMeDisabledAccountRedirects(t *testing.T) {
	h := newBootHarness(t, serveUser(api.UserResponse{
		Username: "ana", Role: "USER", Enabled: boolPtr(false),
	}))
	h.client.SetLocation(nav.RouteHome)
	h.bypass.Set(true)

	intent, err := h.boot.FetchMe(context.Background())
	require.NoError(t, err)
	require.NotNil(t, intent)
	require.Equal(t, nav.RouteLogin, intent.Target)
	require.Nil(t, h.boot.Identity())
	require.False(t, h.bypass.Enabled(), "disabled account must lose the bypass")
	require.False(t, h.boot.Loading())
}

func TestFetchMeDisabledAccountQuietOnPublicScreens(t *testing.T) {
	for _, route := range []nav.Route{nav.RouteLogin, nav.RouteSetup, nav.RouteMaintenance, nav.RouteAccountDisabled} {
		h := newBootHarness(t, serveUser(api.UserResponse{
			Username: "ana", Role: "USER", Enabled: boolPtr(false),
		}))
		h.client.SetLocation(route)

		intent, err := h.boot.FetchMe(context.Background())
		require.NoError(t, err)
		require.Nil(t, intent, "no redirect expected on %s", route)
	}
}

func TestFetchMeUnauthenticated(t *testing.T) {
	h := newBootHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	h.client.SetLocation(nav.RouteLogin)
	h.bypass.Set(true)

	intent, err := h.boot.FetchMe(context.Background())
	require.NoError(t, err, "a deliberate 401 is a result, not an error")
	require.Nil(t, intent)
	require.Nil(t, h.boot.Identity())
	require.False(t, h.bypass.Enabled())
	require.False(t, h.boot.Loading())
}

func TestFetchMeMaintenanceRedirectsAndKeepsLoading(t *testing.T) {
	h := newBootHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	h.client.SetLocation(nav.RouteHome)

	intent, err := h.boot.FetchMe(context.Background())
	require.Error(t, err)
	require.True(t, api.IsMaintenance(err))
	require.NotNil(t, intent)
	require.Equal(t, nav.RouteMaintenance, intent.Target)
	require.False(t, h.bypass.Enabled())
	require.True(t, h.boot.Loading(),
		"the session outcome is unknown until the backend recovers")
}

func TestFetchMeMaintenanceGraceForBypassHolder(t *testing.T) {
	h := newBootHarness(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	h.client.SetLocation(nav.RouteHome)
	h.bypass.Set(true)

	intent, err := h.boot.FetchMe(context.Background())
	require.True(t, api.IsMaintenance(err))
	require.Nil(t, intent, "bypass holders stay where they are during maintenance")
	require.True(t, h.bypass.Enabled())
	require.False(t, h.boot.Loading())
}

func TestFetchMeMaintenanceGraceOnExemptScreens(t *testing.T) {
	for _, route := range []nav.Route{nav.RouteMaintenance, nav.RouteDev} {
		h := newBootHarness(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		h.client.SetLocation(route)

		intent, err := h.boot.FetchMe(context.Background())
		require.True(t, api.IsMaintenance(err))
		require.Nil(t, intent, "no redirect expected on %s", route)
		require.False(t, h.boot.Loading())
	}
}

func TestFetchMeRaisesLoadingOnReentry(t *testing.T) {
	maintenance := false
	h := newBootHarness(t, func(w http.ResponseWriter, r *http.Request) {
		if maintenance {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(api.UserResponse{Username: "ana", Role: "USER"})
	})

	_, err := h.boot.Login(context.Background(), "ana", "secret")
	require.NoError(t, err)
	require.False(t, h.boot.Loading())

	// A re-fetch after login starts a new probe: the flag goes back up and,
	// on the unprivileged maintenance path, stays up past the redirect.
	maintenance = true
	h.client.SetLocation(nav.RouteHome)

	intent, err := h.boot.FetchMe(context.Background())
	require.True(t, api.IsMaintenance(err))
	require.NotNil(t, intent)
	require.Equal(t, nav.RouteMaintenance, intent.Target)
	require.True(t, h.boot.Loading())
}

func TestFetchMeNetworkFailureClearsState(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close() // unreachable on purpose

	bypass := NewBypassRegistry()
	bypass.Set(true)
	client := api.NewClient(srv.URL, time.Second).
		WithClassifier(api.NewClassifier("conta desativada", bypass.Enabled))
	boot := NewBootstrapper(client, bypass, "DEV")

	intent, err := boot.FetchMe(context.Background())
	require.Error(t, err)
	require.False(t, api.IsMaintenance(err))
	require.Nil(t, intent)
	require.Nil(t, boot.Identity())
	require.False(t, bypass.Enabled())
	require.False(t, boot.Loading())
}

func TestLoginAndLogoutRoundTrip(t *testing.T) {
	h := newBootHarness(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(api.UserResponse{Username: "dev", Role: "DEV"})
		case "/auth/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	id, err := h.boot.Login(context.Background(), "dev", "secret")
	require.NoError(t, err)
	require.Equal(t, RoleDev, id.Role)
	require.True(t, h.bypass.Enabled())
	require.False(t, h.boot.Loading())

	require.NoError(t, h.boot.Logout(context.Background()))
	require.Nil(t, h.boot.Identity())
	require.False(t, h.bypass.Enabled())
}
