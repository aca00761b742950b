// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cache_cmd.go - Cache management commands for parley CLI.
//
// Command: cache
// Short:   Inspect or clear the fuzzy answer cache
//
// Examples:
//   parley cache stats            Show cache statistics
//   parley cache clear --confirm  Drop every cached answer

package cli

import (
	"fmt"
	"os"
	"strings"
)

// HandleCacheCommand handles the "cache" command.
func HandleCacheCommand(args Args) error {
	switch args.Subcommand {
	case "stats", "":
		return cacheStats(args)
	case "clear":
		return cacheClear(args)
	default:
		return &UsageError{
			Command: "cache",
			Reason:  fmt.Sprintf("unknown subcommand %q (want stats or clear)", args.Subcommand),
		}
	}
}

func cacheStats(args Args) error {
	app, err := BuildApp("")
	if err != nil {
		return err
	}
	defer app.Close()

	var size int64
	if info, err := os.Stat(app.Store.CacheLogPath()); err == nil {
		size = info.Size()
	}

	fmt.Println(headerStyle.Render("Cache Statistics"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Printf("  %s %d\n", infoStyle.Render("Answers:"), app.Cache.Len())
	fmt.Printf("  %s %d\n", infoStyle.Render("Threshold:"), app.Cfg.Cache.Threshold)
	fmt.Printf("  %s %s\n", infoStyle.Render("Log:"), app.Store.CacheLogPath())
	fmt.Printf("  %s %s\n", infoStyle.Render("Log size:"), formatBytes(size))
	if !app.Cfg.Cache.Enabled {
		fmt.Printf("  %s %s\n", infoStyle.Render("Status:"), warningStyle.Render("disabled"))
	}
	return nil
}

func cacheClear(args Args) error {
	if !args.Confirm {
		return &UsageError{
			Command: "cache",
			Reason:  "clear is destructive; re-run with --confirm",
		}
	}

	app, err := BuildApp("")
	if err != nil {
		return err
	}
	defer app.Close()

	n := app.Cache.Len()
	if err := os.Remove(app.Store.CacheLogPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cache log: %w", err)
	}

	fmt.Printf("%s dropped %d cached answers\n",
		commandStyle.Render("[OK]"), n)
	return nil
}

// formatBytes renders a byte count in human-friendly units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMG"[exp])
}
