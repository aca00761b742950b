// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// model.go - Bubble Tea model for the parley TUI.

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/chat"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/imagegen"
	"github.com/jeranaias/parley/internal/responder"
	"github.com/jeranaias/parley/internal/store"
	"github.com/jeranaias/parley/internal/ui/styles"
)

// =============================================================================
// DEPENDENCIES
// =============================================================================

// App bundles the collaborators the TUI drives. All fields are required
// except Images, which may be nil when no image endpoint is configured.
type App struct {
	Cfg       *config.Config
	Gate      *auth.Gate
	Store     *store.Store
	Responder *responder.Responder
	Images    *imagegen.Client
}

// =============================================================================
// MODEL
// =============================================================================

// mode selects which screen the model renders.
type mode int

const (
	modeLogin mode = iota
	modeRegister
	modeChat
)

// authFocus tracks which form field has focus.
const (
	focusUsername = iota
	focusPassword
)

// notice is a transient line shown in the transcript after the turn it
// refers to (errors, command feedback).
type notice struct {
	afterTurn int // index into session turns; -1 pins it to the top
	text      string
	isError   bool
}

// Model is the Bubble Tea model for the whole TUI.
type Model struct {
	app App

	mode   mode
	width  int
	height int
	ready  bool

	// Auth form
	username textinput.Model
	password textinput.Model
	focus    int
	authErr  string

	// Chat screen
	session  *chat.Session
	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	waiting  bool
	notices  []notice

	// Typing reveal of the turn currently being presented.
	revealing  bool
	revealTurn string // turn ID
	revealText []rune // full answer
	revealPos  int

	renderer *glamour.TermRenderer
}

// New creates the TUI model. The session is created after a successful
// login, not here.
func New(app App) Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 64
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'

	input := textinput.New()
	input.Placeholder = "ask anything ( /image, /clear, /quit )"
	input.Prompt = styles.InputPrompt.Render("> ")
	input.CharLimit = 2000

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(styles.Amber)

	return Model{
		app:      app,
		mode:     modeLogin,
		username: username,
		password: password,
		input:    input,
		spin:     spin,
		renderer: newRenderer(app.Cfg.UI.Theme, 80),
	}
}

// newRenderer builds the glamour renderer for answer markdown. A nil
// renderer is tolerated everywhere and falls back to plain text.
func newRenderer(theme string, width int) *glamour.TermRenderer {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch theme {
	case "dark", "light":
		opts = append(opts, glamour.WithStandardStyle(theme))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil
	}
	return r
}

// typingInterval returns the reveal tick interval from config.
func (m Model) typingInterval() time.Duration {
	ms := m.app.Cfg.UI.TypingIntervalMs
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}
