// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// theme.go - Pre-built lipgloss styles shared by the TUI views.

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// HEADER AND STATUS BAR
// =============================================================================

// Header - top bar with the app name and signed-in user
var Header = lipgloss.NewStyle().
	Foreground(Cyan).
	Bold(true).
	Padding(0, 1)

// StatusBar - bottom bar with state and hints
var StatusBar = lipgloss.NewStyle().
	Foreground(TextMuted).
	Padding(0, 1)

// StatusState - the session state segment of the status bar
var StatusState = lipgloss.NewStyle().
	Foreground(Amber).
	Bold(true)

// =============================================================================
// TRANSCRIPT
// =============================================================================

// UserLabel - "you" prefix on submitted questions
var UserLabel = lipgloss.NewStyle().
	Foreground(Cyan).
	Bold(true)

// AssistantLabel - "parley" prefix on answers
var AssistantLabel = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true)

// CacheTag - marker shown next to answers served from the cache
var CacheTag = lipgloss.NewStyle().
	Foreground(Emerald)

// ImageTag - marker shown for generated-image answers
var ImageTag = lipgloss.NewStyle().
	Foreground(Amber)

// ErrorText - inline error lines in the transcript
var ErrorText = lipgloss.NewStyle().
	Foreground(Rose)

// =============================================================================
// FORMS
// =============================================================================

// FormTitle - login/register form heading
var FormTitle = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true).
	MarginBottom(1)

// FormLabel - field labels on the auth form
var FormLabel = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(10)

// FormHint - key hints below the form
var FormHint = lipgloss.NewStyle().
	Foreground(TextMuted).
	MarginTop(1)

// FormBox - border around the auth form
var FormBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Overlay).
	Padding(1, 2)

// =============================================================================
// INPUT
// =============================================================================

// InputPrompt - the "> " prompt in front of the text input
var InputPrompt = lipgloss.NewStyle().
	Foreground(Cyan).
	Bold(true)

// InputBox - border around the input line
var InputBox = lipgloss.NewStyle().
	Border(lipgloss.NormalBorder(), true, false, false, false).
	BorderForeground(Overlay)
