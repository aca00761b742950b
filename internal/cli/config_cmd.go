// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Configuration command for parley CLI.
//
// Command: config
// Short:   Show the effective configuration
//
// Examples:
//   parley config            Show configuration (tokens redacted)
//   parley config path       Show where config.toml lives

package cli

import (
	"fmt"
	"path/filepath"

	"github.com/jeranaias/parley/internal/config"
)

// HandleConfigCommand handles the "config" command.
func HandleConfigCommand(args Args) error {
	switch args.Subcommand {
	case "", "show":
		cfg := config.Global()
		fmt.Println(headerStyle.Render("Configuration"))
		fmt.Print(cfg.String())
		return nil

	case "path":
		dir, err := config.ConfigDir()
		if err != nil {
			return err
		}
		fmt.Println(filepath.Join(dir, "config.toml"))
		return nil

	default:
		return &UsageError{
			Command: "config",
			Reason:  fmt.Sprintf("unknown subcommand %q (want show or path)", args.Subcommand),
		}
	}
}
