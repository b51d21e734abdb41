// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package nav

import "testing"

func TestIsPublic(t *testing.T) {
	public := []Route{RouteLogin, RouteSetup, RouteMaintenance}
	for _, r := range public {
		if !IsPublic(r) {
			t.Errorf("IsPublic(%s) = false, want true", r)
		}
	}

	private := []Route{RouteHome, RouteDev, RouteAccountDisabled}
	for _, r := range private {
		if IsPublic(r) {
			t.Errorf("IsPublic(%s) = true, want false", r)
		}
	}
}

func TestIsMaintenanceExempt(t *testing.T) {
	exempt := []Route{RouteMaintenance, RouteDev}
	for _, r := range exempt {
		if !IsMaintenanceExempt(r) {
			t.Errorf("IsMaintenanceExempt(%s) = false, want true", r)
		}
	}

	if IsMaintenanceExempt(RouteHome) || IsMaintenanceExempt(RouteLogin) {
		t.Error("home and login are not maintenance-exempt")
	}
}

func TestReplace(t *testing.T) {
	intent := Replace(RouteMaintenance)
	if intent.Action != ActionReplace {
		t.Errorf("Action = %v, want %v", intent.Action, ActionReplace)
	}
	if intent.Target != RouteMaintenance {
		t.Errorf("Target = %s, want %s", intent.Target, RouteMaintenance)
	}
}
