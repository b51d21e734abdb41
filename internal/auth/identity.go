// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth holds the authenticated identity, the permission matrix
// derived from its role, and the session bootstrap flow that establishes
// both from the backend.
package auth

import "github.com/sisinv/inventario-cli/internal/api"

// Role is an account role as assigned by the backend.
type Role string

// Backend roles. RoleDev is the privileged role: it inherits everything
// RoleAdmin can do plus system control.
const (
	RoleAdmin  Role = "ADMIN"
	RoleUser   Role = "USER"
	RoleViewer Role = "VIEWER"
	RoleDev    Role = "DEV"
)

// Identity is an authenticated account.
type Identity struct {
	ID       string
	Username string
	Name     string
	Email    string
	Role     Role
	Enabled  bool
}

// identityFromResponse converts the wire representation.
func identityFromResponse(u *api.UserResponse) *Identity {
	return &Identity{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     Role(u.Role),
		Enabled:  u.IsEnabled(),
	}
}

// IsAdmin reports whether the identity has administrative rights.
func (id *Identity) IsAdmin() bool {
	return id.Role == RoleAdmin || id.Role == RoleDev
}

// Permissions is the capability matrix for a role.
type Permissions struct {
	IsAdmin            bool
	CanManageUsers     bool
	CanCreateEquipment bool
	CanEditEquipment   bool
	CanDeleteEquipment bool
	CanManageSectors   bool
	CanViewAudit       bool
	CanControlSystem   bool
}

// PermissionsFor derives the capability matrix for a role. Viewers are
// read-only; regular users may create and edit equipment but not delete it.
func PermissionsFor(role Role) Permissions {
	admin := role == RoleAdmin || role == RoleDev
	return Permissions{
		IsAdmin:            admin,
		CanManageUsers:     admin,
		CanCreateEquipment: role != RoleViewer,
		CanEditEquipment:   admin || role == RoleUser,
		CanDeleteEquipment: admin,
		CanManageSectors:   admin,
		CanViewAudit:       admin,
		CanControlSystem:   role == RoleDev,
	}
}

// Permissions returns the capability matrix for this identity.
func (id *Identity) Permissions() Permissions {
	return PermissionsFor(id.Role)
}
