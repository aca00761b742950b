// parley - authenticated local-LLM chat with a fuzzy answer cache.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/cli"
	uichat "github.com/jeranaias/parley/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()
	setupLogging(args.Verbose)

	switch cmd {
	case cli.CmdTUI:
		runTUI(args)
	case cli.CmdAsk:
		cli.HandleAsk(args)
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdRegister:
		cli.HandleRegister(args)
	case cli.CmdLogin:
		cli.HandleLogin(args)
	case cli.CmdHistory:
		cli.HandleHistory(args)
	case cli.CmdCache:
		cli.HandleCache(args)
	case cli.CmdImage:
		cli.HandleImage(args)
	case cli.CmdTranscribe:
		cli.HandleTranscribe(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	default:
		runTUI(args)
	}
}

// setupLogging configures zerolog for CLI use. The TUI owns the terminal,
// so anything below warn stays silent unless --verbose is given.
func setupLogging(verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// runTUI starts the TUI interface.
func runTUI(args cli.Args) {
	app, err := cli.BuildApp(args.Model)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	m := uichat.New(uichat.App{
		Cfg:       app.Cfg,
		Gate:      auth.NewGate(app.Store),
		Store:     app.Store,
		Responder: app.Responder,
		Images:    app.Images,
	})

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running parley: %v\n", err)
		os.Exit(1)
	}
}
