// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the parley TUI: a login/register form followed by
// a single chat session rendered with Bubble Tea.
//
// The model owns no domain state beyond the transcript notices it displays.
// The conversation itself lives in chat.Session; answers are produced by the
// responder off the update loop and delivered back as messages. Text answers
// are revealed progressively, one rune per tick, while the session is in its
// presenting state.
//
// Layout:
//
//	model.go   - Model struct, construction, Init
//	update.go  - message handling, commands, typing reveal
//	view.go    - rendering for the auth form and the chat view
package chat
