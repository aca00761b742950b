// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat models a signed-in user's conversation session.
//
// A Session holds the on-screen turns and enforces one in-flight question
// at a time: Submit creates a pending turn, Resolve attaches the answer and
// persists it to the user's transcript, Abort discards the turn without a
// trace. Restore reloads the stored transcript at login, and Clear empties
// the conversation both on screen and in the store.
//
// # Key Types
//
//   - Session: Turn lifecycle and transcript persistence
//   - Turn: One question with its response
//   - Response: Text or image answer payload
//
// # Persistence
//
// Resolve overwrites the transcript's last entry when it carries the same
// question, otherwise it appends. Persistence failures leave the turn
// pending so the caller can retry or abort.
package chat
