// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/parley/internal/store"
)

// =============================================================================
// SESSION STATE
// =============================================================================

// State is the session lifecycle state.
type State int

const (
	// StateIdle means the session is ready for a new query.
	StateIdle State = iota

	// StateAwaitingResponse means a query was submitted and its answer is
	// being produced. New submissions are rejected in this state.
	StateAwaitingResponse

	// StatePresenting means an answer arrived and is being revealed to the
	// user. New submissions are allowed; presentation just stops early.
	StatePresenting
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StatePresenting:
		return "presenting"
	default:
		return "unknown"
	}
}

// =============================================================================
// TRANSCRIPTS INTERFACE
// =============================================================================

// Transcripts persists per-user transcripts. Satisfied by *store.Store.
type Transcripts interface {
	LoadHistory() (map[string][]store.Entry, error)
	SaveHistory(history map[string][]store.Entry) error
}

// =============================================================================
// SESSION
// =============================================================================

// Session is a single user's live conversation. It owns the in-memory turn
// list and keeps the persisted transcript in sync as turns resolve.
// All methods are safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	username string
	store    Transcripts
	turns    []Turn
	state    State
}

// NewSession creates an idle session for a user.
func NewSession(username string, transcripts Transcripts) *Session {
	return &Session{
		username: username,
		store:    transcripts,
		state:    StateIdle,
	}
}

// Username returns the session owner.
func (s *Session) Username() string { return s.username }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Turns returns a copy of the in-memory turn list.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Submit records a new pending turn and moves the session to
// StateAwaitingResponse. Returns ErrBusy if an earlier turn is still
// awaiting its answer, and ErrEmptyQuery for blank input.
func (s *Session) Submit(query string) (Turn, error) {
	if strings.TrimSpace(query) == "" {
		return Turn{}, ErrEmptyQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateAwaitingResponse {
		return Turn{}, ErrBusy
	}

	turn := NewTurn(query)
	s.turns = append(s.turns, turn)
	s.state = StateAwaitingResponse

	log.Debug().Str("user", s.username).Str("turn", turn.ID).Msg("query submitted")
	return turn, nil
}

// Resolve attaches an answer to a pending turn, persists it to the user's
// transcript, and moves the session to StatePresenting.
//
// Persistence re-reads the stored transcript rather than trusting the
// in-memory copy: another command may have written entries since login. If
// the stored transcript's last entry carries the same query, it is
// overwritten in place (the answer for this question superseded it);
// otherwise the turn is appended.
func (s *Session) Resolve(turnID string, resp Response) (Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTurn(turnID)
	if idx < 0 {
		return Turn{}, ErrUnknownTurn
	}

	resolved := s.turns[idx]
	resolved.Response = resp
	resolved.ResolvedAt = time.Now()

	if err := s.persist(&resolved); err != nil {
		// The turn stays pending; the caller may retry the resolve.
		return Turn{}, err
	}

	s.turns[idx] = resolved
	s.state = StatePresenting

	log.Debug().
		Str("user", s.username).
		Str("turn", resolved.ID).
		Str("kind", resolved.Response.Kind.String()).
		Msg("turn resolved")
	return resolved, nil
}

// Abort drops a pending turn without persisting anything and returns the
// session to StateIdle, so the user can retry the same query.
func (s *Session) Abort(turnID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.findTurn(turnID)
	if idx < 0 {
		return ErrUnknownTurn
	}

	s.turns = append(s.turns[:idx], s.turns[idx+1:]...)
	if s.state == StateAwaitingResponse {
		s.state = StateIdle
	}

	log.Debug().Str("user", s.username).Str("turn", turnID).Msg("turn aborted")
	return nil
}

// FinishPresenting marks the reveal as complete. No-op outside
// StatePresenting.
func (s *Session) FinishPresenting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePresenting {
		s.state = StateIdle
	}
}

// Restore loads the user's stored transcript into the session as resolved
// turns, so a returning user picks up their prior conversation. Replaces
// any in-memory turns.
func (s *Session) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.store.LoadHistory()
	if err != nil {
		return err
	}

	entries := history[s.username]
	turns := make([]Turn, 0, len(entries))
	for _, e := range entries {
		turns = append(turns, turnFromEntry(e))
	}
	s.turns = turns
	s.state = StateIdle

	log.Debug().Str("user", s.username).Int("turns", len(turns)).Msg("transcript restored")
	return nil
}

// Clear empties the conversation from any state, on screen and in the
// stored transcript. The store is emptied first; on failure the visible
// turns stay so nothing looks deleted that is not.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.store.LoadHistory()
	if err != nil {
		return err
	}
	history[s.username] = []store.Entry{}
	if err := s.store.SaveHistory(history); err != nil {
		return err
	}

	s.turns = nil
	s.state = StateIdle
	log.Debug().Str("user", s.username).Msg("conversation cleared")
	return nil
}

// findTurn returns the index of a pending turn by ID, or -1. Caller holds
// the lock.
func (s *Session) findTurn(turnID string) int {
	for i := range s.turns {
		if s.turns[i].ID == turnID && !s.turns[i].Resolved() {
			return i
		}
	}
	return -1
}

// persist writes a resolved turn into the stored transcript. Caller holds
// the lock.
func (s *Session) persist(t *Turn) error {
	history, err := s.store.LoadHistory()
	if err != nil {
		return err
	}

	entries := history[s.username]
	if n := len(entries); n > 0 && entries[n-1].Query == t.Query {
		entries[n-1] = t.entry()
	} else {
		entries = append(entries, t.entry())
	}
	history[s.username] = entries

	return s.store.SaveHistory(history)
}
