// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store provides flat-file persistence for parley: user credentials,
// per-user chat transcripts, and the append-only answer cache log.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/parley/internal/util"
)

// =============================================================================
// STORED TYPES
// =============================================================================

// Entry is one persisted question/answer pair in a user's transcript.
type Entry struct {
	Query     string    `json:"query"`
	Answer    string    `json:"answer"`
	Kind      string    `json:"kind,omitempty"` // "text" (default) or "image"
	ImagePath string    `json:"image_path,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// CacheRecord is one persisted query/answer pair in the cache log.
type CacheRecord struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// File names under the data directory.
const (
	credentialsFile = "users.json"
	historyFile     = "history.json"
	cacheLogFile    = "cache.jsonl"
)

// =============================================================================
// STORE
// =============================================================================

// Store handles persistence under a single data directory.
// Default: ~/.parley/
type Store struct {
	// Dir is the data directory holding users.json, history.json and
	// cache.jsonl.
	Dir string
}

// New creates a store rooted at the user's home directory.
func New() (*Store, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, ioError("", "failed to resolve home directory", err)
	}
	return NewWithDir(filepath.Join(homeDir, ".parley"))
}

// NewWithDir creates a store with a custom data directory.
func NewWithDir(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, ioError(dir, "failed to create data directory", err)
	}
	return &Store{Dir: dir}, nil
}

// CredentialsPath returns the path of the credentials file.
func (s *Store) CredentialsPath() string { return filepath.Join(s.Dir, credentialsFile) }

// HistoryPath returns the path of the transcript file.
func (s *Store) HistoryPath() string { return filepath.Join(s.Dir, historyFile) }

// CacheLogPath returns the path of the cache log file.
func (s *Store) CacheLogPath() string { return filepath.Join(s.Dir, cacheLogFile) }

// ImagesDir returns the directory where generated images are saved.
func (s *Store) ImagesDir() string { return filepath.Join(s.Dir, "images") }

// =============================================================================
// CREDENTIALS
// =============================================================================

// LoadCredentials reads the username->password map. A missing file is not an
// error: a fresh install simply has no accounts yet, so an empty map is
// returned. A file that exists but cannot be decoded returns ErrFormat and is
// left untouched.
func (s *Store) LoadCredentials() (map[string]string, error) {
	creds := make(map[string]string)
	if err := s.loadJSON(s.CredentialsPath(), &creds); err != nil {
		return nil, err
	}
	if creds == nil {
		creds = make(map[string]string)
	}
	return creds, nil
}

// SaveCredentials writes the full username->password map atomically.
func (s *Store) SaveCredentials(creds map[string]string) error {
	return s.saveJSON(s.CredentialsPath(), creds)
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// LoadHistory reads all user transcripts. Missing file yields an empty map.
func (s *Store) LoadHistory() (map[string][]Entry, error) {
	history := make(map[string][]Entry)
	if err := s.loadJSON(s.HistoryPath(), &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = make(map[string][]Entry)
	}
	return history, nil
}

// SaveHistory writes all user transcripts atomically.
func (s *Store) SaveHistory(history map[string][]Entry) error {
	return s.saveJSON(s.HistoryPath(), history)
}

// =============================================================================
// JSON HELPERS
// =============================================================================

// loadJSON decodes a JSON file into v. Missing file leaves v unchanged.
func (s *Store) loadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return ioError(path, "failed to read file", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return formatError(path, "failed to decode JSON", err)
	}
	return nil
}

// saveJSON encodes v and writes it atomically.
func (s *Store) saveJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return formatError(path, "failed to encode JSON", err)
	}
	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return ioError(path, "failed to write file", err)
	}
	return nil
}
