// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// audit_cmd.go - audit trail inspection commands.
package cli

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// HandleAudit routes the audit subcommands.
func HandleAudit(args Args) {
	a, err := buildApp(args)
	if err != nil {
		exitErr(err)
	}
	defer a.close()

	if a.trail == nil {
		exitErr(fmt.Errorf("audit trail is disabled (set audit.enabled = true)"))
	}

	switch args.Subcommand {
	case "", "list":
		limit := 20
		for i := 0; i < len(args.Raw)-1; i++ {
			if args.Raw[i] == "-n" || args.Raw[i] == "--limit" {
				if n, err := strconv.Atoi(args.Raw[i+1]); err == nil && n > 0 {
					limit = n
				}
			}
		}

		events, err := a.trail.List(limit)
		if err != nil {
			exitErr(err)
		}
		if len(events) == 0 {
			fmt.Println(DimStyle.Render("No audit events recorded."))
			return
		}

		fmt.Println(TitleStyle.Render("Audit trail"))
		for _, e := range events {
			ts := e.Timestamp.Local().Format(time.RFC3339)
			line := fmt.Sprintf("%s  %-20s  %-16s  %s",
				DimStyle.Render(ts), e.Kind, Truncate(e.Username, 16), e.Detail)
			fmt.Println(line)
		}

	case "verify":
		if err := a.trail.Verify(); err != nil {
			fmt.Printf("%s %v\n", RenderStatus("fail"), err)
			os.Exit(1)
		}
		fmt.Printf("%s audit chain intact\n", RenderStatus("ok"))

	default:
		exitErr(fmt.Errorf("unknown audit subcommand: %s", args.Subcommand))
	}
}
