// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command routing for inventario.
package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdStatus Command = iota
	CmdLogin
	CmdLogout
	CmdWhoami
	CmdWatch
	CmdMaintenance
	CmdConfig
	CmdAudit
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Username   string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `inventario - session coordinator for the SISINV inventory backend

Inventario keeps an authenticated backend session alive, watches for
inactivity, and reacts to backend maintenance windows the same way the web
client does.

It provides:
  - Cookie-based login against the inventory backend
  - Inactivity tracking with a logout countdown warning
  - Automatic maintenance and disabled-account detection
  - A tamper-evident local audit trail of session events

Usage:
  inventario status              Show backend and session status
  inventario login [user]        Authenticate and store the session cookie
  inventario logout              End the current session
  inventario whoami              Show the authenticated identity
  inventario watch               Run the interactive session coordinator
  inventario maintenance <sub>   Maintenance controls (DEV role only)
  inventario config [show|get|set|path]  Configuration management
  inventario audit [list|verify] Audit trail management
  inventario version             Show version information
  inventario help                Show this help

Maintenance Commands (DEV role):
  inventario maintenance status   Show backend maintenance state
  inventario maintenance enable   Put the backend into maintenance mode
  inventario maintenance disable  Lift maintenance mode
  inventario maintenance info     Show backend system diagnostics

Config Commands:
  inventario config show          Show current configuration
  inventario config get <key>     Get a value (dot notation, e.g. session.logout_after_minutes)
  inventario config set <key> <v> Set a value and save
  inventario config path          Show the config file path

Audit Commands:
  inventario audit list [-n N]    Show recent session events
  inventario audit verify         Verify the event hash chain

Watch Mode:
  Any line typed on stdin counts as activity. When the warning fires, type
  "continue" before the countdown ends to keep the session; otherwise the
  session is closed and the program exits.

Global Flags:
  --quiet, -q        Suppress non-essential output
  --verbose, -v      Extra detail
  --json             Machine-readable output where supported

Environment:
  INVENTARIO_BASE_URL             Backend base URL
  INVENTARIO_WARNING_MINUTES      Minutes of inactivity before the warning
  INVENTARIO_LOGOUT_MINUTES       Minutes of inactivity before logout
  NO_COLOR / FORCE_COLOR          Color output control

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("inventario version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsed := parseGlobalFlags(args)
	if len(remaining) == 0 {
		return CmdStatus, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining

	switch cmd {
	case "status", "s":
		return CmdStatus, parsed

	case "login":
		if len(remaining) > 0 && !strings.HasPrefix(remaining[0], "-") {
			parsed.Username = remaining[0]
		}
		return CmdLogin, parsed

	case "logout":
		return CmdLogout, parsed

	case "whoami", "me":
		return CmdWhoami, parsed

	case "watch", "run":
		return CmdWatch, parsed

	case "maintenance", "maint":
		if len(remaining) > 0 {
			parsed.Subcommand = strings.ToLower(remaining[0])
			parsed.Raw = remaining[1:]
		}
		return CmdMaintenance, parsed

	case "config":
		parseConfigArgs(&parsed, remaining)
		return CmdConfig, parsed

	case "audit":
		if len(remaining) > 0 {
			parsed.Subcommand = strings.ToLower(remaining[0])
			parsed.Raw = remaining[1:]
		}
		return CmdAudit, parsed

	case "version", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, parsed
	}
}

// parseGlobalFlags extracts global flags, returning the remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	var remaining []string

	for _, arg := range args {
		switch arg {
		case "--quiet", "-q":
			parsed.Quiet = true
		case "--verbose", "-v":
			parsed.Verbose = true
		case "--json":
			parsed.JSON = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, parsed
}

func parseConfigArgs(parsed *Args, remaining []string) {
	if len(remaining) == 0 {
		parsed.Subcommand = "show"
		return
	}
	parsed.Subcommand = strings.ToLower(remaining[0])
	if len(remaining) > 1 {
		parsed.ConfigKey = remaining[1]
	}
	if len(remaining) > 2 {
		parsed.ConfigVal = strings.Join(remaining[2:], " ")
	}
}
