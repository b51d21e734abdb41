// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sisinv/inventario-cli/internal/api"
	"github.com/sisinv/inventario-cli/internal/audit"
	"github.com/sisinv/inventario-cli/internal/auth"
	"github.com/sisinv/inventario-cli/internal/config"
	"github.com/sisinv/inventario-cli/internal/nav"
	"github.com/sisinv/inventario-cli/internal/notify"
)

var errNotAuthenticated = errors.New("not authenticated, run 'inventario login' first")

// app bundles the wired backend client, auth state and audit trail every
// command operates on.
type app struct {
	cfg         *config.Config
	client      *api.Client
	bypass      *auth.BypassRegistry
	boot        *auth.Bootstrapper
	trail       *audit.Trail
	auditPath   string
	sessionPath string
}

// buildApp wires the client stack from the global configuration. The
// returned app owns the audit trail handle; call close when done.
func buildApp(args Args) (*app, error) {
	cfg := config.Global()

	bypass := auth.NewBypassRegistry()
	classifier := api.NewClassifier(cfg.Auth.DisabledAccountMarker, bypass.Enabled)

	client := api.NewClient(cfg.Server.BaseURL, cfg.RequestTimeout()).
		WithClassifier(classifier).
		WithNotifier(newConsoleNotifier(args.Quiet))
	client.OnRedirect(client.Navigate)

	a := &app{
		cfg:    cfg,
		client: client,
		bypass: bypass,
		boot:   auth.NewBootstrapper(client, bypass, cfg.Auth.PrivilegedRole),
	}

	// The process exits after every command; the session cookie lives in a
	// file between invocations so login survives into whoami and watch.
	if path, err := config.SessionPath(); err == nil {
		a.sessionPath = path
		if err := client.LoadCookies(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	if cfg.Audit.Enabled {
		path, err := cfg.AuditDBPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve audit trail path: %w", err)
		}
		if err := config.EnsureConfigDir(); err != nil {
			return nil, err
		}
		trail, err := audit.Open(path, []byte(cfg.Audit.HMACKey))
		if err != nil {
			return nil, fmt.Errorf("failed to open audit trail: %w", err)
		}
		a.trail = trail
		a.auditPath = path
	}
	return a, nil
}

func (a *app) close() {
	if a.trail != nil {
		a.trail.Close()
	}
}

// saveSession persists the session cookie for later invocations.
func (a *app) saveSession() {
	if a.sessionPath == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		return
	}
	if err := a.client.SaveCookies(a.sessionPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to persist session: %v\n", err)
	}
}

// clearSession removes the persisted session cookie.
func (a *app) clearSession() {
	if a.sessionPath == "" {
		return
	}
	if err := os.Remove(a.sessionPath); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: failed to remove session file: %v\n", err)
	}
}

// establishIdentity runs the identity probe and applies any redirect it
// produced. A maintenance failure that resolved without a redirect (exempt
// screen or active bypass) is not fatal by itself, but without an identity
// there is nothing to proceed with, so the probe's error still surfaces
// instead of a misleading "not authenticated".
func establishIdentity(ctx context.Context, a *app) (*auth.Identity, error) {
	intent, err := a.boot.FetchMe(ctx)
	if intent != nil {
		a.client.Navigate(intent)
	}
	if err != nil && !(api.IsMaintenance(err) && intent == nil) {
		return nil, err
	}
	if id := a.boot.Identity(); id != nil {
		return id, nil
	}
	if err != nil {
		return nil, err
	}
	return nil, errNotAuthenticated
}

// record writes an audit event, ignoring failures when the trail is off.
func (a *app) record(kind, username, detail string) {
	if a.trail == nil {
		return
	}
	if err := a.trail.Record(kind, username, detail); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record audit event: %v\n", err)
	}
}

// newConsoleNotifier prints classifier notices and other notifications with
// level-appropriate styling.
func newConsoleNotifier(quiet bool) notify.Notifier {
	return notify.Func(func(level notify.Level, message string) {
		if quiet && level != notify.LevelError {
			return
		}
		switch level {
		case notify.LevelError:
			fmt.Fprintln(os.Stderr, ErrorStyle.Render(message))
		case notify.LevelWarning:
			fmt.Println(WarningStyle.Render(message))
		case notify.LevelSuccess:
			fmt.Println(SuccessStyle.Render(message))
		default:
			fmt.Println(InfoStyle.Render(message))
		}
	})
}

// routeName maps logical routes to human-readable screen names.
func routeName(r nav.Route) string {
	switch r {
	case nav.RouteLogin:
		return "login"
	case nav.RouteSetup:
		return "setup"
	case nav.RouteMaintenance:
		return "maintenance"
	case nav.RouteAccountDisabled:
		return "account disabled"
	case nav.RouteDev:
		return "dev panel"
	case nav.RouteHome:
		return "home"
	default:
		return string(r)
	}
}

// exitErr prints an error and exits non-zero.
func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", ErrorStyle.Render("Error:"), err)
	os.Exit(1)
}
