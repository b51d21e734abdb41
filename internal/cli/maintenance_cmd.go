// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// maintenance_cmd.go - backend maintenance controls, DEV role only.
package cli

import (
	"context"
	"fmt"

	"github.com/sisinv/inventario-cli/internal/audit"
	"github.com/sisinv/inventario-cli/internal/nav"
)

// HandleMaintenance routes the maintenance subcommands. Every subcommand
// requires an authenticated session with system control rights.
func HandleMaintenance(args Args) {
	a, err := buildApp(args)
	if err != nil {
		exitErr(err)
	}
	defer a.close()

	ctx := context.Background()

	// The dev screen is maintenance-exempt, so these commands keep working
	// while the backend reports 503.
	a.client.SetLocation(nav.RouteDev)

	id, err := establishIdentity(ctx, a)
	if err != nil {
		exitErr(err)
	}
	if !id.Permissions().CanControlSystem {
		exitErr(fmt.Errorf("role %s cannot control maintenance mode", id.Role))
	}

	switch args.Subcommand {
	case "", "status":
		info, err := a.client.MaintenanceStatus(ctx)
		if err != nil {
			exitErr(err)
		}
		state := "off"
		if info.Enabled {
			state = "maintenance"
		}
		fmt.Printf("%s %s\n", RenderLabel("Maintenance:"), RenderStatus(state))
		if info.Message != "" {
			fmt.Printf("%s %s\n", RenderLabel("Message:"), ValueStyle.Render(info.Message))
		}

	case "enable", "on":
		if err := a.client.EnableMaintenance(ctx); err != nil {
			exitErr(err)
		}
		a.record(audit.EventMaintenanceOn, id.Username, "")
		fmt.Printf("%s maintenance mode enabled\n", RenderStatus("ok"))

	case "disable", "off":
		if err := a.client.DisableMaintenance(ctx); err != nil {
			exitErr(err)
		}
		a.record(audit.EventMaintenanceOff, id.Username, "")
		fmt.Printf("%s maintenance mode disabled\n", RenderStatus("ok"))

	case "info":
		info, err := a.client.GetSystemInfo(ctx)
		if err != nil {
			exitErr(err)
		}
		fmt.Println(TitleStyle.Render("System info"))
		fmt.Printf("%s %s\n", RenderLabel("Version:"), ValueStyle.Render(info.Version))
		fmt.Printf("%s %s\n", RenderLabel("Uptime:"), ValueStyle.Render(info.Uptime))
		fmt.Printf("%s %v\n", RenderLabel("Maintenance:"), info.Maintenance)

	default:
		exitErr(fmt.Errorf("unknown maintenance subcommand: %s", args.Subcommand))
	}
}
