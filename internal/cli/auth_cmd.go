// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - login, logout and whoami commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sisinv/inventario-cli/internal/api"
	"github.com/sisinv/inventario-cli/internal/audit"
	"github.com/sisinv/inventario-cli/internal/nav"
)

// HandleLogin authenticates against the backend and reports the resulting
// identity.
func HandleLogin(args Args) {
	a, err := buildApp(args)
	if err != nil {
		exitErr(err)
	}
	defer a.close()

	a.client.SetLocation(nav.RouteLogin)

	username := args.Username
	if username == "" {
		username, err = PromptLine("Username: ")
		if err != nil {
			exitErr(err)
		}
	}
	password, err := PromptPassword("Password: ")
	if err != nil {
		exitErr(err)
	}

	id, err := a.boot.Login(context.Background(), username, password)
	if err != nil {
		var apiErr *api.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			exitErr(fmt.Errorf("%s", apiErr.Message))
		}
		exitErr(err)
	}

	a.saveSession()
	a.record(audit.EventLogin, id.Username, string(id.Role))
	fmt.Printf("%s logged in as %s (%s)\n", RenderStatus("ok"), id.Username, id.Role)
	if a.bypass.Enabled() {
		fmt.Println(DimStyle.Render("Maintenance bypass active for this session."))
	}
}

// HandleLogout ends the current server session.
func HandleLogout(args Args) {
	a, err := buildApp(args)
	if err != nil {
		exitErr(err)
	}
	defer a.close()

	// Local state is cleared regardless; a failed server call only means
	// the cookie dies on its own expiry.
	if err := a.boot.Logout(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: server logout failed: %v\n", err)
	}
	a.clearSession()
	a.record(audit.EventLogout, "", "manual")
	fmt.Printf("%s logged out\n", RenderStatus("ok"))
}

// HandleWhoami probes /auth/me and prints the identity.
func HandleWhoami(args Args) {
	a, err := buildApp(args)
	if err != nil {
		exitErr(err)
	}
	defer a.close()

	intent, err := a.boot.FetchMe(context.Background())
	if err != nil {
		exitErr(err)
	}
	if intent != nil {
		a.client.Navigate(intent)
	}

	id := a.boot.Identity()
	if id == nil {
		fmt.Printf("%s not authenticated\n", RenderStatus("fail"))
		return
	}

	perms := id.Permissions()
	fmt.Println(TitleStyle.Render("Identity"))
	fmt.Printf("%s %s\n", RenderLabel("Username:"), ValueStyle.Render(id.Username))
	fmt.Printf("%s %s\n", RenderLabel("Name:"), ValueStyle.Render(id.Name))
	fmt.Printf("%s %s\n", RenderLabel("Email:"), ValueStyle.Render(id.Email))
	fmt.Printf("%s %s\n", RenderLabel("Role:"), ValueStyle.Render(string(id.Role)))
	fmt.Printf("%s %v\n", RenderLabel("Admin:"), perms.IsAdmin)
	fmt.Printf("%s %v\n", RenderLabel("System control:"), perms.CanControlSystem)
	if a.bypass.Enabled() {
		fmt.Printf("%s %s\n", RenderLabel("Maintenance:"), SuccessStyle.Render("bypass active"))
	}
}
