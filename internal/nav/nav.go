// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav models navigation decisions as values.
//
// The session coordinator never navigates by itself: classifiers and the auth
// bootstrapper return an Intent and the host (router, CLI loop) applies it.
// This keeps every redirect decision unit-testable without a real router.
package nav

// Route is a navigable location in the host application.
type Route string

const (
	// RouteHome is the authenticated dashboard.
	RouteHome Route = "/"

	// RouteLogin is the sign-in screen.
	RouteLogin Route = "/login"

	// RouteSetup is the first-run setup screen (empty database).
	RouteSetup Route = "/setup"

	// RouteMaintenance is the holding screen shown while the server
	// declares maintenance mode (HTTP 503).
	RouteMaintenance Route = "/maintenance"

	// RouteAccountDisabled is shown when the server reports the account
	// was deactivated by an administrator.
	RouteAccountDisabled Route = "/conta-desativada"

	// RouteDev is the internal diagnostics screen. It stays reachable
	// during maintenance so a privileged operator can turn maintenance
	// back off.
	RouteDev Route = "/dev"
)

// Action is the kind of navigation to perform.
type Action int

const (
	// ActionReplace replaces the current location. It is the only action
	// the coordinator ever emits: the back button must never return to a
	// screen that was left because the session became invalid.
	ActionReplace Action = iota
)

// String returns a string representation of the Action.
func (a Action) String() string {
	switch a {
	case ActionReplace:
		return "replace"
	default:
		return "unknown"
	}
}

// Intent is a logical instruction to change the current location.
type Intent struct {
	Action Action
	Target Route
}

// Replace builds a replace-location intent for the given route.
func Replace(target Route) *Intent {
	return &Intent{Action: ActionReplace, Target: target}
}

// IsPublic reports whether the route is reachable without authentication.
// A 401 on a public route must not trigger a login redirect: the user is
// already where an unauthenticated user belongs.
func IsPublic(r Route) bool {
	switch r {
	case RouteLogin, RouteSetup, RouteMaintenance:
		return true
	default:
		return false
	}
}

// IsMaintenanceExempt reports whether the route keeps working while the
// server is in maintenance mode. The maintenance screen itself is exempt
// (redirecting there again would loop) and so is the diagnostics screen.
func IsMaintenanceExempt(r Route) bool {
	return r == RouteMaintenance || r == RouteDev
}
