// inventario - session coordinator CLI for the SISINV inventory backend.
//
// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/sisinv/inventario-cli/internal/cli"
	"github.com/sisinv/inventario-cli/internal/config"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	// Warm the global config so load warnings print before command output.
	// Version and help never need it.
	if cmd != cli.CmdVersion && cmd != cli.CmdHelp {
		config.Global()
	}

	switch cmd {
	case cli.CmdStatus:
		cli.HandleStatus(args)
	case cli.CmdLogin:
		cli.HandleLogin(args)
	case cli.CmdLogout:
		cli.HandleLogout(args)
	case cli.CmdWhoami:
		cli.HandleWhoami(args)
	case cli.CmdWatch:
		cli.HandleWatch(args)
	case cli.CmdMaintenance:
		cli.HandleMaintenance(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdAudit:
		cli.HandleAudit(args)
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	default:
		cli.PrintUsage()
		os.Exit(1)
	}
}
