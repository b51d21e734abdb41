// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import "sync"

// BypassRegistry holds the maintenance bypass flag: whether the current
// identity may keep using the system while the backend is in maintenance
// mode. Only the bootstrap flow writes it, in exactly two places: set from
// the role on a successful identity fetch, cleared whenever the identity is
// lost or a maintenance redirect is issued to a non-privileged session.
type BypassRegistry struct {
	mu      sync.Mutex
	enabled bool
}

// NewBypassRegistry returns a registry with the bypass cleared.
func NewBypassRegistry() *BypassRegistry {
	return &BypassRegistry{}
}

// Set records the bypass flag.
func (r *BypassRegistry) Set(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = enabled
}

// Enabled reports the bypass flag. Safe for concurrent use; the response
// classifier reads it on every backend response.
func (r *BypassRegistry) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}
