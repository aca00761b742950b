// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Unified error handling for parley CLI commands.
//
// STANDARDIZED PATTERN:
//   - ALWAYS return errors (never just print and return nil)
//   - Let the caller decide how to display errors
//
// ERROR HANDLING: Errors must not be silently ignored

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/ollama"
	"github.com/jeranaias/parley/internal/responder"
	"github.com/jeranaias/parley/internal/store"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration or data file error
	ExitConfigError = 3
	// ExitAuthError indicates an authentication failure
	ExitAuthError = 4
	// ExitNetworkError indicates a network or connectivity error
	ExitNetworkError = 5
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// UsageError reports invalid command arguments.
type UsageError struct {
	Command string
	Reason  string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrUserExists) {
		return ExitAuthError
	}

	if errors.Is(err, ollama.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return ExitTimeoutError
	}
	var genErr *responder.GenerationError
	if errors.As(err, &genErr) && genErr.TimedOut {
		return ExitTimeoutError
	}

	if ollama.IsNotRunning(err) {
		return ExitNetworkError
	}

	if errors.Is(err, store.ErrFormat) {
		return ExitConfigError
	}

	return ExitGeneralError
}
