// Copyright (c) 2025 SISINV Project
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - configuration show/get/set commands.
package cli

import (
	"fmt"

	"github.com/sisinv/inventario-cli/internal/config"
)

// HandleConfig routes the config subcommands.
func HandleConfig(args Args) {
	switch args.Subcommand {
	case "", "show":
		cfg := config.Global()
		fmt.Println(TitleStyle.Render("Configuration"))
		fmt.Println(cfg.String())

	case "get":
		if args.ConfigKey == "" {
			exitErr(fmt.Errorf("usage: inventario config get <key>"))
		}
		cfg := config.Global()
		val, err := cfg.Get(args.ConfigKey)
		if err != nil {
			exitErr(err)
		}
		fmt.Printf("%v\n", val)

	case "set":
		if args.ConfigKey == "" || args.ConfigVal == "" {
			exitErr(fmt.Errorf("usage: inventario config set <key> <value>"))
		}
		cfg := config.Global()
		if err := cfg.Set(args.ConfigKey, args.ConfigVal); err != nil {
			exitErr(err)
		}
		if err := cfg.Validate(); err != nil {
			exitErr(err)
		}
		if err := config.Save(cfg); err != nil {
			exitErr(err)
		}
		fmt.Printf("%s %s = %s\n", RenderStatus("ok"), args.ConfigKey, args.ConfigVal)

	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			exitErr(err)
		}
		fmt.Println(path)

	case "keys":
		for _, key := range config.GetAllKeys() {
			fmt.Println(key)
		}

	default:
		exitErr(fmt.Errorf("unknown config subcommand: %s", args.Subcommand))
	}
}
