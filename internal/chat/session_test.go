// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"testing"

	"github.com/jeranaias/parley/internal/store"
)

// memTranscripts is an in-memory Transcripts for tests.
type memTranscripts struct {
	history map[string][]store.Entry
	loadErr error
	saveErr error
	saves   int
}

func newMemTranscripts() *memTranscripts {
	return &memTranscripts{history: make(map[string][]store.Entry)}
}

func (m *memTranscripts) LoadHistory() (map[string][]store.Entry, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string][]store.Entry, len(m.history))
	for k, v := range m.history {
		entries := make([]store.Entry, len(v))
		copy(entries, v)
		out[k] = entries
	}
	return out, nil
}

func (m *memTranscripts) SaveHistory(history map[string][]store.Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.history = history
	m.saves++
	return nil
}

func TestSubmitTransitionsToAwaiting(t *testing.T) {
	s := NewSession("alice", newMemTranscripts())

	turn, err := s.Submit("what is go")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if turn.ID == "" {
		t.Error("turn has no ID")
	}
	if turn.Resolved() {
		t.Error("new turn should be pending")
	}
	if s.State() != StateAwaitingResponse {
		t.Errorf("state = %v, want awaiting_response", s.State())
	}
}

func TestSubmitRejectedWhileAwaiting(t *testing.T) {
	s := NewSession("alice", newMemTranscripts())

	if _, err := s.Submit("first"); err != nil {
		t.Fatal(err)
	}
	_, err := s.Submit("second")
	if !errors.Is(err, ErrBusy) {
		t.Errorf("Submit while awaiting = %v, want ErrBusy", err)
	}
	if len(s.Turns()) != 1 {
		t.Errorf("turn count = %d, want 1", len(s.Turns()))
	}
}

func TestSubmitEmptyQuery(t *testing.T) {
	s := NewSession("alice", newMemTranscripts())

	for _, q := range []string{"", "   ", "\t\n"} {
		if _, err := s.Submit(q); !errors.Is(err, ErrEmptyQuery) {
			t.Errorf("Submit(%q) = %v, want ErrEmptyQuery", q, err)
		}
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
}

func TestResolvePersistsAndPresents(t *testing.T) {
	m := newMemTranscripts()
	s := NewSession("alice", m)

	turn, err := s.Submit("what is go")
	if err != nil {
		t.Fatal(err)
	}

	resolved, err := s.Resolve(turn.ID, TextResponse("a language"))
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !resolved.Resolved() {
		t.Error("turn should be resolved")
	}
	if resolved.Response.Text != "a language" {
		t.Errorf("answer = %q", resolved.Response.Text)
	}
	if s.State() != StatePresenting {
		t.Errorf("state = %v, want presenting", s.State())
	}

	entries := m.history["alice"]
	if len(entries) != 1 {
		t.Fatalf("persisted %d entries, want 1", len(entries))
	}
	if entries[0].Query != "what is go" || entries[0].Answer != "a language" {
		t.Errorf("persisted entry = %+v", entries[0])
	}
}

func TestResolveOverwritesMatchingLastEntry(t *testing.T) {
	m := newMemTranscripts()
	// Stored transcript already ends with the same query (e.g. a stale
	// answer from a prior partial write).
	m.history["alice"] = []store.Entry{
		{Query: "older question", Answer: "older answer"},
		{Query: "what is go", Answer: "stale"},
	}
	s := NewSession("alice", m)

	turn, err := s.Submit("what is go")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Resolve(turn.ID, TextResponse("fresh")); err != nil {
		t.Fatal(err)
	}

	entries := m.history["alice"]
	if len(entries) != 2 {
		t.Fatalf("persisted %d entries, want 2 (overwrite, not append)", len(entries))
	}
	if entries[1].Answer != "fresh" {
		t.Errorf("last entry answer = %q, want %q", entries[1].Answer, "fresh")
	}
	if entries[0].Answer != "older answer" {
		t.Errorf("earlier entry touched: %+v", entries[0])
	}
}

func TestResolveAppendsWhenLastEntryDiffers(t *testing.T) {
	m := newMemTranscripts()
	m.history["alice"] = []store.Entry{{Query: "other", Answer: "x"}}
	s := NewSession("alice", m)

	turn, _ := s.Submit("what is go")
	if _, err := s.Resolve(turn.ID, TextResponse("a language")); err != nil {
		t.Fatal(err)
	}

	entries := m.history["alice"]
	if len(entries) != 2 {
		t.Fatalf("persisted %d entries, want 2", len(entries))
	}
	if entries[1].Query != "what is go" {
		t.Errorf("appended entry = %+v", entries[1])
	}
}

func TestResolveUnknownTurn(t *testing.T) {
	s := NewSession("alice", newMemTranscripts())
	_, err := s.Resolve("nope", TextResponse("x"))
	if !errors.Is(err, ErrUnknownTurn) {
		t.Errorf("Resolve(unknown) = %v, want ErrUnknownTurn", err)
	}
}

func TestResolvePersistFailureKeepsTurnPending(t *testing.T) {
	m := newMemTranscripts()
	m.saveErr = errors.New("disk full")
	s := NewSession("alice", m)

	turn, _ := s.Submit("what is go")
	if _, err := s.Resolve(turn.ID, TextResponse("a language")); err == nil {
		t.Fatal("Resolve should propagate save failure")
	}

	if s.State() != StateAwaitingResponse {
		t.Errorf("state = %v, want awaiting_response (turn still pending)", s.State())
	}

	// Retry succeeds once the store recovers.
	m.saveErr = nil
	if _, err := s.Resolve(turn.ID, TextResponse("a language")); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(m.history["alice"]) != 1 {
		t.Errorf("persisted %d entries after retry, want 1", len(m.history["alice"]))
	}
}

func TestAbortReturnsToIdle(t *testing.T) {
	m := newMemTranscripts()
	s := NewSession("alice", m)

	turn, _ := s.Submit("what is go")
	if err := s.Abort(turn.ID); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}
	if len(s.Turns()) != 0 {
		t.Errorf("turn count = %d, want 0", len(s.Turns()))
	}
	if m.saves != 0 {
		t.Errorf("aborted turn caused %d saves, want 0", m.saves)
	}

	// Same query can be resubmitted.
	if _, err := s.Submit("what is go"); err != nil {
		t.Errorf("resubmit after abort failed: %v", err)
	}
}

func TestImageResponsePersistsImagePath(t *testing.T) {
	m := newMemTranscripts()
	s := NewSession("alice", m)

	turn, _ := s.Submit("draw a cat")
	if _, err := s.Resolve(turn.ID, ImageResponse("/data/images/cat.png")); err != nil {
		t.Fatal(err)
	}

	entries := m.history["alice"]
	if len(entries) != 1 {
		t.Fatalf("persisted %d entries, want 1", len(entries))
	}
	if entries[0].Kind != "image" || entries[0].ImagePath != "/data/images/cat.png" {
		t.Errorf("persisted entry = %+v", entries[0])
	}
}

func TestClearFromAnyState(t *testing.T) {
	states := []struct {
		name string
		prep func(s *Session)
	}{
		{"idle", func(s *Session) {}},
		{"awaiting", func(s *Session) { s.Submit("q") }},
		{"presenting", func(s *Session) {
			turn, _ := s.Submit("q")
			s.Resolve(turn.ID, TextResponse("a"))
		}},
	}

	for _, tt := range states {
		t.Run(tt.name, func(t *testing.T) {
			m := newMemTranscripts()
			m.history["alice"] = []store.Entry{{Query: "old", Answer: "gone"}}
			s := NewSession("alice", m)
			tt.prep(s)

			if err := s.Clear(); err != nil {
				t.Fatalf("Clear failed: %v", err)
			}
			if s.State() != StateIdle {
				t.Errorf("state after Clear = %v, want idle", s.State())
			}
			if len(s.Turns()) != 0 {
				t.Errorf("turns after Clear = %d, want 0", len(s.Turns()))
			}
			if len(m.history["alice"]) != 0 {
				t.Errorf("stored transcript has %d entries after Clear, want 0",
					len(m.history["alice"]))
			}
		})
	}
}

func TestClearOnlyEmptiesOwnTranscript(t *testing.T) {
	m := newMemTranscripts()
	m.history["alice"] = []store.Entry{{Query: "mine", Answer: "gone"}}
	m.history["bob"] = []store.Entry{{Query: "his", Answer: "kept"}}

	s := NewSession("alice", m)
	if err := s.Clear(); err != nil {
		t.Fatal(err)
	}
	if len(m.history["bob"]) != 1 {
		t.Errorf("another user's transcript changed: %+v", m.history["bob"])
	}
}

func TestClearSaveFailureKeepsTurns(t *testing.T) {
	m := newMemTranscripts()
	s := NewSession("alice", m)
	turn, _ := s.Submit("q")
	s.Resolve(turn.ID, TextResponse("a"))

	m.saveErr = errors.New("disk full")
	if err := s.Clear(); err == nil {
		t.Fatal("Clear should propagate save failure")
	}
	if len(s.Turns()) != 1 {
		t.Errorf("turns after failed Clear = %d, want 1 (nothing looks deleted)", len(s.Turns()))
	}
	if len(m.history["alice"]) != 1 {
		t.Errorf("stored transcript changed on failed save: %+v", m.history["alice"])
	}
}

func TestRestoreLoadsStoredTranscript(t *testing.T) {
	m := newMemTranscripts()
	m.history["alice"] = []store.Entry{
		{Query: "what is go", Answer: "a language"},
		{Query: "draw a cat", Kind: "image", ImagePath: "/data/images/cat.png"},
	}

	s := NewSession("alice", m)
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	turns := s.Turns()
	if len(turns) != 2 {
		t.Fatalf("restored %d turns, want 2", len(turns))
	}
	if !turns[0].Resolved() || turns[0].Response.Text != "a language" {
		t.Errorf("first restored turn = %+v", turns[0])
	}
	if turns[1].Response.Kind != ResponseImage || turns[1].Response.ImagePath != "/data/images/cat.png" {
		t.Errorf("second restored turn = %+v", turns[1])
	}
	if s.State() != StateIdle {
		t.Errorf("state after Restore = %v, want idle", s.State())
	}

	// A restored session accepts new questions and appends to the
	// transcript after the restored entries.
	turn, err := s.Submit("and rust")
	if err != nil {
		t.Fatalf("Submit after Restore failed: %v", err)
	}
	if _, err := s.Resolve(turn.ID, TextResponse("also a language")); err != nil {
		t.Fatal(err)
	}
	if len(m.history["alice"]) != 3 {
		t.Errorf("transcript has %d entries, want 3", len(m.history["alice"]))
	}
}

func TestRestoreEmptyTranscript(t *testing.T) {
	s := NewSession("alice", newMemTranscripts())
	if err := s.Restore(); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if len(s.Turns()) != 0 {
		t.Errorf("restored %d turns, want 0", len(s.Turns()))
	}
}

func TestRestoreLoadFailure(t *testing.T) {
	m := newMemTranscripts()
	m.loadErr = errors.New("corrupt file")
	s := NewSession("alice", m)
	if err := s.Restore(); err == nil {
		t.Fatal("Restore should propagate load failure")
	}
}

func TestFinishPresenting(t *testing.T) {
	s := NewSession("alice", newMemTranscripts())
	turn, _ := s.Submit("q")
	s.Resolve(turn.ID, TextResponse("a"))

	s.FinishPresenting()
	if s.State() != StateIdle {
		t.Errorf("state = %v, want idle", s.State())
	}

	// No-op when not presenting
	s.Submit("q2")
	s.FinishPresenting()
	if s.State() != StateAwaitingResponse {
		t.Errorf("state = %v, want awaiting_response", s.State())
	}
}
