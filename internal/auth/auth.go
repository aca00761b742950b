// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth gates access to the chat session behind a local account
// check. Accounts live in the credentials file; passwords are compared as
// stored.
//
// SECURITY: Passwords are held in plain text on the user's own machine,
// matching the single-user, local-data threat model. Do not reuse this
// package for anything network-facing.
package auth

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
)

// =============================================================================
// ERRORS
// =============================================================================

// Sentinel errors for errors.Is checks.
var (
	// ErrInvalidCredentials is returned when the username is unknown or the
	// password does not match. The two cases are deliberately not
	// distinguished to the caller.
	ErrInvalidCredentials = errors.New("auth: invalid username or password")

	// ErrUserExists is returned when creating an account under a taken
	// username, even with an identical password.
	ErrUserExists = errors.New("auth: username already exists")

	// ErrEmptyField is returned when the username or password is blank.
	ErrEmptyField = errors.New("auth: username and password must not be empty")
)

// =============================================================================
// CREDENTIALS INTERFACE
// =============================================================================

// Credentials persists the account map. Satisfied by *store.Store.
type Credentials interface {
	LoadCredentials() (map[string]string, error)
	SaveCredentials(creds map[string]string) error
}

// =============================================================================
// GATE
// =============================================================================

// Gate performs login and account creation against the credentials store.
type Gate struct {
	store Credentials
}

// NewGate creates a gate over a credentials store.
func NewGate(store Credentials) *Gate {
	return &Gate{store: store}
}

// Authenticate checks a username/password pair. The credentials file is
// re-read on every attempt so accounts created by another process are seen
// immediately.
func (g *Gate) Authenticate(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrEmptyField
	}

	creds, err := g.store.LoadCredentials()
	if err != nil {
		return err
	}

	stored, ok := creds[username]
	if !ok || stored != password {
		// AU-3: Authentication events are logged for audit
		log.Warn().Str("user", username).Msg("login failed")
		return ErrInvalidCredentials
	}

	log.Info().Str("user", username).Msg("login succeeded")
	return nil
}

// CreateAccount registers a new username/password pair. Registration under
// an existing username is rejected even when the password matches: account
// creation is not idempotent, it either claims a name or fails.
func (g *Gate) CreateAccount(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrEmptyField
	}

	creds, err := g.store.LoadCredentials()
	if err != nil {
		return err
	}

	if _, exists := creds[username]; exists {
		log.Warn().Str("user", username).Msg("account creation rejected: name taken")
		return ErrUserExists
	}

	creds[username] = password
	if err := g.store.SaveCredentials(creds); err != nil {
		return err
	}

	log.Info().Str("user", username).Msg("account created")
	return nil
}

// UserExists reports whether a username is registered.
func (g *Gate) UserExists(username string) (bool, error) {
	creds, err := g.store.LoadCredentials()
	if err != nil {
		return false, err
	}
	_, ok := creds[username]
	return ok, nil
}
