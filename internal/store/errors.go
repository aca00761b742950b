// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes store errors.
type ErrorType int

const (
	// ErrorTypeFormat indicates a file exists but its contents could not be
	// decoded. The file is left untouched so it can be inspected or repaired.
	ErrorTypeFormat ErrorType = iota

	// ErrorTypeIO indicates the underlying read or write failed.
	ErrorTypeIO
)

// Sentinel errors for errors.Is checks.
var (
	ErrFormat = errors.New("store: malformed file")
	ErrIO     = errors.New("store: io failure")
)

// StoreError is a structured error with type information.
type StoreError struct {
	Type    ErrorType
	Path    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Path)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is supports errors.Is comparison against sentinel errors.
func (e *StoreError) Is(target error) bool {
	switch target {
	case ErrFormat:
		return e.Type == ErrorTypeFormat
	case ErrIO:
		return e.Type == ErrorTypeIO
	}
	return false
}

func formatError(path, message string, cause error) *StoreError {
	return &StoreError{Type: ErrorTypeFormat, Path: path, Message: message, Cause: cause}
}

func ioError(path, message string, cause error) *StoreError {
	return &StoreError{Type: ErrorTypeIO, Path: path, Message: message, Cause: cause}
}
