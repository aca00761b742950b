// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCredentials is an in-memory Credentials for tests.
type memCredentials struct {
	creds   map[string]string
	loadErr error
	saveErr error
}

func newMemCredentials() *memCredentials {
	return &memCredentials{creds: make(map[string]string)}
}

func (m *memCredentials) LoadCredentials() (map[string]string, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]string, len(m.creds))
	for k, v := range m.creds {
		out[k] = v
	}
	return out, nil
}

func (m *memCredentials) SaveCredentials(creds map[string]string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.creds = creds
	return nil
}

func TestAuthenticate(t *testing.T) {
	m := newMemCredentials()
	m.creds["alice"] = "wonderland"
	g := NewGate(m)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid credentials", "alice", "wonderland", nil},
		{"wrong password", "alice", "underland", ErrInvalidCredentials},
		{"unknown user", "bob", "wonderland", ErrInvalidCredentials},
		{"empty username", "", "wonderland", ErrEmptyField},
		{"empty password", "alice", "", ErrEmptyField},
		{"whitespace username", "   ", "x", ErrEmptyField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Authenticate(tt.username, tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateAccount(t *testing.T) {
	m := newMemCredentials()
	g := NewGate(m)

	require.NoError(t, g.CreateAccount("alice", "wonderland"))
	assert.Equal(t, "wonderland", m.creds["alice"])

	// Login works right after registration
	assert.NoError(t, g.Authenticate("alice", "wonderland"))
}

func TestCreateAccountRejectsTakenName(t *testing.T) {
	m := newMemCredentials()
	g := NewGate(m)

	require.NoError(t, g.CreateAccount("alice", "wonderland"))

	// Same name, different password
	err := g.CreateAccount("alice", "other")
	assert.True(t, errors.Is(err, ErrUserExists))

	// Same name, identical password is still rejected
	err = g.CreateAccount("alice", "wonderland")
	assert.True(t, errors.Is(err, ErrUserExists))

	// Stored password unchanged
	assert.Equal(t, "wonderland", m.creds["alice"])
}

func TestCreateAccountPropagatesStoreErrors(t *testing.T) {
	m := newMemCredentials()
	g := NewGate(m)

	m.loadErr = errors.New("corrupt file")
	err := g.CreateAccount("alice", "x")
	assert.ErrorContains(t, err, "corrupt file")

	m.loadErr = nil
	m.saveErr = errors.New("disk full")
	err = g.CreateAccount("alice", "x")
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, m.creds, "failed save must not leave the account")
}

func TestUserExists(t *testing.T) {
	m := newMemCredentials()
	m.creds["alice"] = "x"
	g := NewGate(m)

	ok, err := g.UserExists("alice")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.UserExists("bob")
	require.NoError(t, err)
	assert.False(t, ok)
}
