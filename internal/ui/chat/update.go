// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// update.go - Message handling for the parley TUI.

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/chat"
)

// =============================================================================
// MESSAGES
// =============================================================================

// answerMsg delivers a resolved turn from the responder goroutine.
type answerMsg struct {
	turn      chat.Turn
	fromCache bool
}

// answerErrMsg delivers a failed answer attempt. The turn has already been
// aborted, so the query can be resubmitted as-is.
type answerErrMsg struct {
	err error
}

// typingTickMsg drives the progressive reveal of the presented answer.
type typingTickMsg time.Time

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		if m.mode == modeChat {
			return m.handleChatKey(msg)
		}
		return m.handleAuthKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case answerMsg:
		return m.handleAnswer(msg)

	case answerErrMsg:
		m.waiting = false
		m.addNotice(msg.err.Error(), true)
		m.refreshViewport()
		return m, nil

	case typingTickMsg:
		return m.handleTypingTick()
	}

	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	wrap := msg.Width - 4
	if wrap > 100 {
		wrap = 100
	}
	if wrap < 20 {
		wrap = 20
	}
	m.renderer = newRenderer(m.app.Cfg.UI.Theme, wrap)

	// header + status bar + bordered input
	chrome := 4
	m.viewport.Width = msg.Width
	m.viewport.Height = msg.Height - chrome
	if m.viewport.Height < 1 {
		m.viewport.Height = 1
	}
	m.input.Width = msg.Width - 4
	m.ready = true
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// AUTH SCREEN
// =============================================================================

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "tab", "shift+tab", "up", "down":
		m.toggleFocus()
		return m, nil

	case "ctrl+r":
		if m.mode == modeLogin {
			m.mode = modeRegister
		} else {
			m.mode = modeLogin
		}
		m.authErr = ""
		return m, nil

	case "enter":
		if m.focus == focusUsername {
			m.toggleFocus()
			return m, nil
		}
		return m.submitAuth()
	}

	var cmd tea.Cmd
	if m.focus == focusUsername {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) toggleFocus() {
	if m.focus == focusUsername {
		m.focus = focusPassword
		m.username.Blur()
		m.password.Focus()
	} else {
		m.focus = focusUsername
		m.password.Blur()
		m.username.Focus()
	}
}

func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	user := strings.TrimSpace(m.username.Value())
	pass := m.password.Value()

	if m.mode == modeRegister {
		if err := m.app.Gate.CreateAccount(user, pass); err != nil {
			switch {
			case errors.Is(err, auth.ErrUserExists):
				m.authErr = "that username is taken"
			case errors.Is(err, auth.ErrEmptyField):
				m.authErr = "username and password are required"
			default:
				m.authErr = err.Error()
			}
			return m, nil
		}
		// Fresh accounts go straight into the session.
	}

	if err := m.app.Gate.Authenticate(user, pass); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			m.authErr = "invalid username or password"
		} else {
			m.authErr = err.Error()
		}
		return m, nil
	}

	m.session = chat.NewSession(user, m.app.Store)
	m.mode = modeChat
	m.authErr = ""
	m.password.SetValue("")
	m.input.Focus()
	if err := m.session.Restore(); err != nil {
		m.addNotice("could not load saved conversation: "+err.Error(), true)
	}
	m.refreshViewport()
	return m, textinput.Blink
}

// =============================================================================
// CHAT SCREEN
// =============================================================================

func (m Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+d":
		return m, tea.Quit

	case "enter":
		// Enter during the reveal completes it instead of submitting.
		if m.revealing {
			m.revealPos = len(m.revealText)
			return m.finishReveal()
		}
		return m.submitInput()

	case "pgup", "pgdown", "ctrl+u", "ctrl+f":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	raw := strings.TrimSpace(m.input.Value())
	if raw == "" {
		return m, nil
	}

	cmd, rest, isCmd := parseCommand(raw)
	if isCmd {
		switch cmd {
		case "/quit", "/q", "/exit":
			return m, tea.Quit

		case "/clear", "/c":
			if err := m.session.Clear(); err != nil {
				m.addNotice("could not clear conversation: "+err.Error(), true)
			} else {
				m.notices = nil
			}
			m.input.SetValue("")
			m.refreshViewport()
			return m, nil

		case "/image", "/img":
			if rest == "" {
				m.addNotice("usage: /image <prompt>", true)
				m.refreshViewport()
				return m, nil
			}
			return m.submitImage(rest)

		default:
			m.addNotice("unknown command: "+cmd, true)
			m.refreshViewport()
			return m, nil
		}
	}

	turn, err := m.session.Submit(raw)
	if err != nil {
		if !errors.Is(err, chat.ErrBusy) {
			m.addNotice(err.Error(), true)
			m.refreshViewport()
		}
		return m, nil
	}

	m.input.SetValue("")
	m.waiting = true
	m.refreshViewport()
	return m, tea.Batch(m.answerCmd(turn), m.spin.Tick)
}

func (m Model) submitImage(prompt string) (tea.Model, tea.Cmd) {
	if m.app.Images == nil || !m.app.Images.Enabled() {
		m.addNotice("image generation is not configured", true)
		m.refreshViewport()
		return m, nil
	}

	turn, err := m.session.Submit(prompt)
	if err != nil {
		if !errors.Is(err, chat.ErrBusy) {
			m.addNotice(err.Error(), true)
			m.refreshViewport()
		}
		return m, nil
	}

	m.input.SetValue("")
	m.waiting = true
	m.refreshViewport()
	return m, tea.Batch(m.imageCmd(turn), m.spin.Tick)
}

// parseCommand splits a slash command from its argument. Returns isCmd=false
// for plain queries.
func parseCommand(raw string) (cmd, rest string, isCmd bool) {
	if !strings.HasPrefix(raw, "/") {
		return "", "", false
	}
	parts := strings.SplitN(raw, " ", 2)
	cmd = strings.ToLower(parts[0])
	if len(parts) == 2 {
		rest = strings.TrimSpace(parts[1])
	}
	return cmd, rest, true
}

// =============================================================================
// COMMANDS
// =============================================================================

// answerCmd runs the responder off the update loop.
func (m Model) answerCmd(turn chat.Turn) tea.Cmd {
	sess := m.session
	r := m.app.Responder
	return func() tea.Msg {
		before := r.CacheStats().Hits
		resolved, err := r.AnswerTurn(context.Background(), sess, turn)
		if err != nil {
			return answerErrMsg{err: err}
		}
		return answerMsg{turn: resolved, fromCache: r.CacheStats().Hits > before}
	}
}

// imageCmd generates an image and resolves the turn with its path.
func (m Model) imageCmd(turn chat.Turn) tea.Cmd {
	sess := m.session
	images := m.app.Images
	return func() tea.Msg {
		path, err := images.Generate(context.Background(), turn.Query)
		if err != nil {
			if aerr := sess.Abort(turn.ID); aerr != nil {
				return answerErrMsg{err: errors.Join(err, aerr)}
			}
			return answerErrMsg{err: err}
		}
		resolved, rerr := sess.Resolve(turn.ID, chat.ImageResponse(path))
		if rerr != nil {
			return answerErrMsg{err: rerr}
		}
		return answerMsg{turn: resolved}
	}
}

// =============================================================================
// TYPING REVEAL
// =============================================================================

func (m Model) handleAnswer(msg answerMsg) (tea.Model, tea.Cmd) {
	m.waiting = false

	interval := m.typingInterval()
	if msg.turn.Response.Kind == chat.ResponseText && interval > 0 {
		m.revealing = true
		m.revealTurn = msg.turn.ID
		m.revealText = []rune(msg.turn.Response.Text)
		m.revealPos = 0
		if msg.fromCache {
			m.addNotice("(cached)", false)
		}
		m.refreshViewport()
		return m, m.typingTick(interval)
	}

	if msg.fromCache {
		m.addNotice("(cached)", false)
	}
	m.session.FinishPresenting()
	m.refreshViewport()
	return m, nil
}

func (m Model) handleTypingTick() (tea.Model, tea.Cmd) {
	if !m.revealing {
		return m, nil
	}
	m.revealPos += revealStep(len(m.revealText), m.revealPos)
	if m.revealPos >= len(m.revealText) {
		return m.finishReveal()
	}
	m.refreshViewport()
	return m, m.typingTick(m.typingInterval())
}

func (m Model) finishReveal() (tea.Model, tea.Cmd) {
	m.revealing = false
	m.revealPos = 0
	m.revealText = nil
	m.revealTurn = ""
	m.session.FinishPresenting()
	m.refreshViewport()
	return m, nil
}

func (m Model) typingTick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return typingTickMsg(t)
	})
}

// revealStep returns how many runes the next tick uncovers. Short answers
// come out one rune at a time; long ones are capped at roughly two hundred
// ticks so the reveal never drags on.
func revealStep(total, pos int) int {
	if pos >= total {
		return 0
	}
	step := total / 200
	if step < 1 {
		step = 1
	}
	return step
}

// =============================================================================
// NOTICES
// =============================================================================

func (m *Model) addNotice(text string, isError bool) {
	after := -1
	if m.session != nil {
		after = len(m.session.Turns()) - 1
	}
	m.notices = append(m.notices, notice{afterTurn: after, text: text, isError: isError})
}
