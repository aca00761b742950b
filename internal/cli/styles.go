// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Centralized styling for all parley CLI commands.
//
// Color handling:
// - Colors are automatically disabled for non-TTY output (piped, redirected)
// - Respects NO_COLOR environment variable (https://no-color.org/)
// - Supports FORCE_COLOR environment variable to override detection

package cli

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley/internal/ui/styles"
)

// init configures lipgloss color profile based on terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

var (
	// promptStyle is the REPL prompt
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	// welcomeStyle is the chat welcome banner
	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	// infoStyle is secondary information and hints
	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	// commandStyle is command names and highlighted values
	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	// warningStyle is warnings and cautions
	warningStyle = lipgloss.NewStyle().
			Foreground(styles.Amber)

	// errorStyle is error messages
	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose)

	// headerStyle is section headers in command output
	headerStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)
)
