// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - backend and session status command.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sisinv/inventario-cli/internal/api"
)

// HandleStatus shows backend reachability, maintenance state and whether a
// session cookie is currently valid.
func HandleStatus(args Args) {
	a, err := buildApp(args)
	if err != nil {
		exitErr(err)
	}
	defer a.close()

	ctx := context.Background()

	backend := "online"
	authState := "unauthenticated"
	username := ""
	role := ""

	user, status, err := a.client.Me(ctx)
	switch {
	case err != nil && api.IsMaintenance(err):
		backend = "maintenance"
	case err != nil:
		backend = "offline"
	case status == http.StatusOK && user != nil:
		authState = "authenticated"
		username = user.Username
		role = user.Role
	}

	if args.JSON {
		out := map[string]interface{}{
			"backend":  backend,
			"base_url": a.cfg.Server.BaseURL,
			"auth":     authState,
			"username": username,
			"role":     role,
			"session": map[string]int{
				"warning_after_minutes": a.cfg.Session.WarningAfterMinutes,
				"logout_after_minutes":  a.cfg.Session.LogoutAfterMinutes,
			},
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		return
	}

	fmt.Println(TitleStyle.Render("inventario status"))
	fmt.Printf("%s %s %s\n", RenderLabel("Backend:"), RenderStatus(backend), DimStyle.Render(a.cfg.Server.BaseURL))
	if authState == "authenticated" {
		fmt.Printf("%s %s %s\n", RenderLabel("Session:"), RenderStatus("ok"), ValueStyle.Render(fmt.Sprintf("%s (%s)", username, role)))
	} else {
		fmt.Printf("%s %s\n", RenderLabel("Session:"), DimStyle.Render("not authenticated"))
	}
	fmt.Printf("%s %s\n", RenderLabel("Inactivity:"),
		ValueStyle.Render(fmt.Sprintf("warn after %dm, logout after %dm",
			a.cfg.Session.WarningAfterMinutes, a.cfg.Session.LogoutAfterMinutes)))
	if a.cfg.Audit.Enabled {
		fmt.Printf("%s %s\n", RenderLabel("Audit trail:"), ValueStyle.Render(a.auditPath))
	} else {
		fmt.Printf("%s %s\n", RenderLabel("Audit trail:"), DimStyle.Render("disabled"))
	}
}
