// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"testing"
)

func parseArgs(t *testing.T, args ...string) (Command, Args) {
	t.Helper()
	old := os.Args
	t.Cleanup(func() { os.Args = old })
	os.Args = append([]string{"inventario"}, args...)
	return Parse()
}

func TestParseDefaultsToStatus(t *testing.T) {
	cmd, _ := parseArgs(t)
	if cmd != CmdStatus {
		t.Errorf("no args should default to status, got %v", cmd)
	}
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		args []string
		want Command
	}{
		{[]string{"status"}, CmdStatus},
		{[]string{"s"}, CmdStatus},
		{[]string{"login"}, CmdLogin},
		{[]string{"logout"}, CmdLogout},
		{[]string{"whoami"}, CmdWhoami},
		{[]string{"me"}, CmdWhoami},
		{[]string{"watch"}, CmdWatch},
		{[]string{"run"}, CmdWatch},
		{[]string{"maintenance", "enable"}, CmdMaintenance},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"audit", "verify"}, CmdAudit},
		{[]string{"version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"bogus"}, CmdHelp},
	}

	for _, tt := range tests {
		cmd, _ := parseArgs(t, tt.args...)
		if cmd != tt.want {
			t.Errorf("Parse(%v) = %v, want %v", tt.args, cmd, tt.want)
		}
	}
}

func TestParseGlobalFlags(t *testing.T) {
	_, args := parseArgs(t, "--quiet", "--json", "status")
	if !args.Quiet || !args.JSON {
		t.Errorf("flags not parsed: %+v", args)
	}
}

func TestParseLoginUsername(t *testing.T) {
	_, args := parseArgs(t, "login", "ana")
	if args.Username != "ana" {
		t.Errorf("Username = %q, want ana", args.Username)
	}
}

func TestParseConfigSet(t *testing.T) {
	_, args := parseArgs(t, "config", "set", "session.logout_after_minutes", "20")
	if args.Subcommand != "set" {
		t.Errorf("Subcommand = %q, want set", args.Subcommand)
	}
	if args.ConfigKey != "session.logout_after_minutes" || args.ConfigVal != "20" {
		t.Errorf("key/val = %q/%q", args.ConfigKey, args.ConfigVal)
	}
}

func TestParseMaintenanceSubcommand(t *testing.T) {
	_, args := parseArgs(t, "maintenance", "disable")
	if args.Subcommand != "disable" {
		t.Errorf("Subcommand = %q, want disable", args.Subcommand)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
	got := Truncate("a very long username indeed", 10)
	if len([]rune(got)) > 10 {
		t.Errorf("Truncate result too wide: %q", got)
	}
}
