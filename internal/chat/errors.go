// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "errors"

// Sentinel errors returned by Session operations.
var (
	// ErrBusy is returned when a query is submitted while an earlier one is
	// still awaiting its answer.
	ErrBusy = errors.New("chat: previous query still awaiting response")

	// ErrUnknownTurn is returned when resolving or aborting a turn the
	// session does not hold.
	ErrUnknownTurn = errors.New("chat: unknown turn")

	// ErrEmptyQuery is returned when a submitted query is blank.
	ErrEmptyQuery = errors.New("chat: empty query")
)
