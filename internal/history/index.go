// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides a searchable index over persisted transcripts.
//
// The JSON transcript file remains the source of truth; the SQLite index is
// derived data rebuilt from it and can be deleted at any time.
package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/parley/internal/store"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrClosed = errors.New("history: index is closed")
)

// =============================================================================
// RESULT TYPE
// =============================================================================

// Result is one matching transcript entry.
type Result struct {
	Username  string
	Position  int // zero-based position within the user's transcript
	Query     string
	Answer    string
	Kind      string
	Timestamp time.Time
}

// =============================================================================
// INDEX
// =============================================================================

// Index is a SQLite-backed search index over transcript entries.
type Index struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	username  TEXT NOT NULL,
	position  INTEGER NOT NULL,
	query     TEXT NOT NULL,
	answer    TEXT NOT NULL,
	kind      TEXT NOT NULL DEFAULT 'text',
	timestamp INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_entries_username ON entries(username);
CREATE INDEX IF NOT EXISTS idx_entries_query ON entries(query);
`

// Open creates or opens the index database at path.
func Open(path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Index{db: db, path: path}, nil
}

// Close releases the database handle.
func (ix *Index) Close() error {
	if ix.db == nil {
		return nil
	}
	err := ix.db.Close()
	ix.db = nil
	return err
}

// Rebuild replaces the index contents from the transcript map. Called after
// the transcript file changes; the whole rebuild runs in one transaction so
// readers never observe a half-indexed state.
func (ix *Index) Rebuild(history map[string][]store.Entry) error {
	if ix.db == nil {
		return ErrClosed
	}

	tx, err := ix.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries"); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (username, position, query, answer, kind, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for username, entries := range history {
		for i, e := range entries {
			kind := e.Kind
			if kind == "" {
				kind = "text"
			}
			var ts int64
			if !e.Timestamp.IsZero() {
				ts = e.Timestamp.Unix()
			}
			if _, err := stmt.Exec(username, i, e.Query, e.Answer, kind, ts); err != nil {
				return fmt.Errorf("failed to insert entry: %w", err)
			}
		}
	}

	return tx.Commit()
}

// Search returns a user's entries whose query or answer contains the term,
// case-insensitively, in transcript order. An empty term returns the whole
// transcript.
func (ix *Index) Search(username, term string, limit int) ([]Result, error) {
	if ix.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 100
	}

	pattern := "%" + term + "%"
	rows, err := ix.db.Query(`
		SELECT username, position, query, answer, kind, timestamp
		FROM entries
		WHERE username = ? AND (query LIKE ? OR answer LIKE ?)
		ORDER BY position
		LIMIT ?`, username, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// SearchAll searches across every user's transcript.
func (ix *Index) SearchAll(term string, limit int) ([]Result, error) {
	if ix.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 100
	}

	pattern := "%" + term + "%"
	rows, err := ix.db.Query(`
		SELECT username, position, query, answer, kind, timestamp
		FROM entries
		WHERE query LIKE ? OR answer LIKE ?
		ORDER BY username, position
		LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// Count returns the number of indexed entries for a user.
func (ix *Index) Count(username string) (int, error) {
	if ix.db == nil {
		return 0, ErrClosed
	}
	var n int
	err := ix.db.QueryRow("SELECT COUNT(*) FROM entries WHERE username = ?", username).Scan(&n)
	return n, err
}

func scanResults(rows *sql.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var r Result
		var ts int64
		if err := rows.Scan(&r.Username, &r.Position, &r.Query, &r.Answer, &r.Kind, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if ts > 0 {
			r.Timestamp = time.Unix(ts, 0)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
