// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"net/http"
	"sync"

	"github.com/sisinv/inventario-cli/internal/api"
	"github.com/sisinv/inventario-cli/internal/nav"
)

// Bootstrapper establishes the authenticated identity at startup and keeps
// the maintenance bypass flag consistent with it. It owns the loading flag
// route guards consult: raised whenever an identity probe starts, lowered
// when the probe resolves to a terminal state.
type Bootstrapper struct {
	client         *api.Client
	bypass         *BypassRegistry
	privilegedRole Role

	mu       sync.Mutex
	identity *Identity
	loading  bool
}

// NewBootstrapper wires the bootstrap flow. privilegedRole is the role that
// earns the maintenance bypass (DEV in the default deployment).
func NewBootstrapper(client *api.Client, bypass *BypassRegistry, privilegedRole string) *Bootstrapper {
	return &Bootstrapper{
		client:         client,
		bypass:         bypass,
		privilegedRole: Role(privilegedRole),
		loading:        true,
	}
}

// Identity returns the current identity, or nil when unauthenticated.
func (b *Bootstrapper) Identity() *Identity {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.identity
}

// Loading reports whether an identity probe is still unresolved.
func (b *Bootstrapper) Loading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

func (b *Bootstrapper) setIdentity(id *Identity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.identity = id
}

func (b *Bootstrapper) setLoading(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.loading = v
}

// FetchMe probes /auth/me and resolves the session state. The returned
// intent, when non-nil, is the redirect the host application must apply.
//
// A server-side failure (5xx) does not destroy an established privileged
// session: when the current screen is maintenance-exempt or the bypass is
// already set, the probe resolves without a redirect so a DEV can reach the
// controls needed to lift maintenance. In the unprivileged maintenance case
// the loading flag deliberately stays up, since the session outcome is
// unknown until the backend recovers.
func (b *Bootstrapper) FetchMe(ctx context.Context) (*nav.Intent, error) {
	b.setLoading(true)

	// Capture the screen before the request: the client's own classifier
	// may apply a redirect while the probe is in flight.
	current := b.client.Location()
	user, status, err := b.client.Me(ctx)

	if err != nil {
		if api.IsMaintenance(err) {
			if nav.IsMaintenanceExempt(current) || b.bypass.Enabled() {
				b.setLoading(false)
				return nil, err
			}
			b.bypass.Set(false)
			return nav.Replace(nav.RouteMaintenance), err
		}
		b.setIdentity(nil)
		b.bypass.Set(false)
		b.setLoading(false)
		return nil, err
	}

	if status == http.StatusOK && user != nil {
		if !user.IsEnabled() {
			b.setIdentity(nil)
			b.bypass.Set(false)
			b.setLoading(false)
			if nav.IsPublic(current) || current == nav.RouteAccountDisabled {
				return nil, nil
			}
			return nav.Replace(nav.RouteLogin), nil
		}
		id := identityFromResponse(user)
		b.setIdentity(id)
		b.bypass.Set(id.Role == b.privilegedRole)
		b.setLoading(false)
		return nil, nil
	}

	// Deliberate non-200 answer (401 and friends): not authenticated.
	b.setIdentity(nil)
	b.bypass.Set(false)
	b.setLoading(false)
	return nil, nil
}

// Login authenticates and installs the resulting identity, including the
// bypass flag for privileged roles.
func (b *Bootstrapper) Login(ctx context.Context, username, password string) (*Identity, error) {
	user, err := b.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	id := identityFromResponse(user)
	b.setIdentity(id)
	b.bypass.Set(id.Role == b.privilegedRole)
	b.setLoading(false)
	return id, nil
}

// Logout invalidates the server session and clears local state. Local state
// is cleared even when the server call fails.
func (b *Bootstrapper) Logout(ctx context.Context) error {
	err := b.client.Logout(ctx)
	b.setIdentity(nil)
	b.bypass.Set(false)
	return err
}
