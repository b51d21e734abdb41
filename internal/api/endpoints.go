// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// UserResponse is the wire representation of an authenticated account as
// returned by /auth/me and /auth/login.
type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Enabled  *bool  `json:"enabled,omitempty"`
}

// IsEnabled treats an absent enabled field as enabled.
func (u *UserResponse) IsEnabled() bool {
	return u.Enabled == nil || *u.Enabled
}

// MaintenanceInfo reports the backend maintenance flag.
type MaintenanceInfo struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message,omitempty"`
}

// SystemInfo is the diagnostic payload from /dev/system/info.
type SystemInfo struct {
	Version     string `json:"version"`
	Uptime      string `json:"uptime"`
	Maintenance bool   `json:"maintenance"`
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login authenticates with username and password. The session cookie lands
// in the client jar.
func (c *Client) Login(ctx context.Context, username, password string) (*UserResponse, error) {
	body := map[string]string{"username": username, "password": password}
	p, err := c.do(ctx, http.MethodPost, "/auth/login", body, acceptOK)
	if err != nil {
		return nil, err
	}
	var user UserResponse
	if err := json.Unmarshal(p.body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse login response: %w", err)
	}
	return &user, nil
}

// Logout invalidates the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, acceptOK)
	return err
}

// Me probes the current session. Any status the server answered with below
// 500 comes back as a result together with the status code; only transport
// failures and 5xx surface as errors.
func (c *Client) Me(ctx context.Context) (*UserResponse, int, error) {
	p, err := c.do(ctx, http.MethodGet, "/auth/me", nil, acceptBelow500)
	if err != nil {
		return nil, 0, err
	}
	if p.status != http.StatusOK {
		return nil, p.status, nil
	}
	var user UserResponse
	if err := json.Unmarshal(p.body, &user); err != nil {
		return nil, p.status, fmt.Errorf("failed to parse identity response: %w", err)
	}
	return &user, p.status, nil
}

// ForgotPassword requests a password reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, acceptOK)
	return err
}

// ResetPassword redeems a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	body := map[string]string{"token": token, "newPassword": newPassword}
	_, err := c.do(ctx, http.MethodPost, "/auth/reset-password", body, acceptOK)
	return err
}

// ChangePassword changes the password of an account.
func (c *Client) ChangePassword(ctx context.Context, userID, current, next string) error {
	body := map[string]string{"currentPassword": current, "newPassword": next}
	path := fmt.Sprintf("/users/%s/change-password", userID)
	_, err := c.do(ctx, http.MethodPost, path, body, acceptOK)
	return err
}

// =============================================================================
// DEV / MAINTENANCE ENDPOINTS
// =============================================================================

// MaintenanceStatus reads the backend maintenance flag.
func (c *Client) MaintenanceStatus(ctx context.Context) (*MaintenanceInfo, error) {
	p, err := c.do(ctx, http.MethodGet, "/dev/maintenance/status", nil, acceptOK)
	if err != nil {
		return nil, err
	}
	var info MaintenanceInfo
	if err := json.Unmarshal(p.body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse maintenance status: %w", err)
	}
	return &info, nil
}

// EnableMaintenance turns maintenance mode on.
func (c *Client) EnableMaintenance(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/dev/maintenance/enable", nil, acceptOK)
	return err
}

// DisableMaintenance turns maintenance mode off.
func (c *Client) DisableMaintenance(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/dev/maintenance/disable", nil, acceptOK)
	return err
}

// GetSystemInfo fetches backend diagnostics.
func (c *Client) GetSystemInfo(ctx context.Context) (*SystemInfo, error) {
	p, err := c.do(ctx, http.MethodGet, "/dev/system/info", nil, acceptOK)
	if err != nil {
		return nil, err
	}
	var info SystemInfo
	if err := json.Unmarshal(p.body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse system info: %w", err)
	}
	return &info, nil
}
