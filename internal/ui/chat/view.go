// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// view.go - Rendering for the parley TUI.

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"

	"github.com/jeranaias/parley/internal/chat"
	"github.com/jeranaias/parley/internal/ui/styles"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.mode == modeChat {
		return m.viewChat()
	}
	return m.viewAuth()
}

// =============================================================================
// AUTH FORM
// =============================================================================

func (m Model) viewAuth() string {
	title := "sign in to parley"
	toggle := "ctrl+r: create an account"
	if m.mode == modeRegister {
		title = "create a parley account"
		toggle = "ctrl+r: back to sign in"
	}

	var b strings.Builder
	b.WriteString(styles.FormTitle.Render(title))
	b.WriteString("\n")
	b.WriteString(styles.FormLabel.Render("username"))
	b.WriteString(m.username.View())
	b.WriteString("\n")
	b.WriteString(styles.FormLabel.Render("password"))
	b.WriteString(m.password.View())
	b.WriteString("\n")
	if m.authErr != "" {
		b.WriteString("\n")
		b.WriteString(styles.RenderError(m.authErr))
		b.WriteString("\n")
	}
	b.WriteString(styles.FormHint.Render("enter: submit  tab: next field  " + toggle + "  esc: quit"))

	form := styles.FormBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}

// =============================================================================
// CHAT VIEW
// =============================================================================

func (m Model) viewChat() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(styles.InputBox.Width(m.width).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	return b.String()
}

func (m Model) viewHeader() string {
	user := runewidth.Truncate(m.session.Username(), 24, "...")
	return styles.Header.Render("parley") +
		styles.StatusBar.Render("signed in as "+user)
}

func (m Model) viewStatus() string {
	var state string
	switch {
	case m.waiting:
		state = m.spin.View() + styles.StatusState.Render("thinking")
	case m.revealing:
		state = styles.StatusState.Render("answering")
	default:
		state = "ready"
	}
	hints := "enter: send  /image  /clear  /quit"
	line := state + styles.StatusBar.Render("  "+hints)
	return styles.StatusBar.Render(runewidth.Truncate(line, m.width, ""))
}

// refreshViewport rebuilds the transcript content and scrolls to the bottom.
func (m *Model) refreshViewport() {
	if m.session == nil {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

// renderTranscript renders every turn plus interleaved notices.
func (m Model) renderTranscript() string {
	turns := m.session.Turns()
	var b strings.Builder

	writeNotices := func(after int) {
		for _, n := range m.notices {
			if n.afterTurn != after {
				continue
			}
			if n.isError {
				b.WriteString(styles.ErrorText.Render(n.text))
			} else {
				b.WriteString(styles.CacheTag.Render(n.text))
			}
			b.WriteString("\n")
		}
	}

	writeNotices(-1)
	for i, t := range turns {
		if i > 0 && !m.app.Cfg.UI.CompactMode {
			b.WriteString("\n")
		}
		b.WriteString(styles.UserLabel.Render("you"))
		b.WriteString("  ")
		b.WriteString(t.Query)
		b.WriteString("\n")
		b.WriteString(m.renderResponse(t))
		writeNotices(i)
	}
	return b.String()
}

// renderResponse renders a single turn's answer line(s).
func (m Model) renderResponse(t chat.Turn) string {
	label := styles.AssistantLabel.Render("parley") + "  "

	switch t.Response.Kind {
	case chat.ResponsePending:
		return label + styles.StatusState.Render("...") + "\n"

	case chat.ResponseImage:
		return label +
			styles.ImageTag.Render(fmt.Sprintf("[image saved to %s]", t.Response.ImagePath)) +
			"\n"
	}

	// Partial reveal is shown as plain text; the full answer gets the
	// markdown treatment once the reveal finishes.
	if m.revealing && t.ID == m.revealTurn {
		return label + string(m.revealText[:m.revealPos]) + "\n"
	}
	return label + m.renderMarkdown(t.Response.Text)
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	rendered, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return strings.TrimLeft(rendered, "\n")
}
