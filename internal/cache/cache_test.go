// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"errors"
	"testing"

	"github.com/jeranaias/parley/internal/store"
)

// recordingAppender captures appended records and can be made to fail.
type recordingAppender struct {
	records []store.CacheRecord
	err     error
}

func (a *recordingAppender) AppendCacheRecord(rec store.CacheRecord) error {
	if a.err != nil {
		return a.err
	}
	a.records = append(a.records, rec)
	return nil
}

func TestLookupExactAndFuzzy(t *testing.T) {
	c := New(nil, 80)
	if err := c.Insert("what is the capital of france", "Paris"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	tests := []struct {
		name    string
		query   string
		want    string
		wantHit bool
	}{
		{"exact", "what is the capital of france", "Paris", true},
		{"case differs", "What is the Capital of France", "Paris", true},
		{"trailing punctuation", "what is the capital of france?", "Paris", true},
		{"unrelated", "how do i bake bread", "", false},
		{"empty query", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, hit := c.Lookup(tt.query)
			if hit != tt.wantHit {
				t.Fatalf("Lookup(%q) hit = %v, want %v", tt.query, hit, tt.wantHit)
			}
			if got != tt.want {
				t.Errorf("Lookup(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestLookupFirstMatchWins(t *testing.T) {
	c := New(nil, 80)
	// Two stored questions that both exceed the threshold for the query.
	if err := c.Insert("what is the capital of france", "first"); err != nil {
		t.Fatal(err)
	}
	if err := c.Insert("what is the capital of france!", "second"); err != nil {
		t.Fatal(err)
	}

	got, hit := c.Lookup("what is the capital of france")
	if !hit {
		t.Fatal("expected a hit")
	}
	if got != "first" {
		t.Errorf("Lookup returned %q, want the earliest inserted match %q", got, "first")
	}
}

func TestInsertAppendsBeforeVisibility(t *testing.T) {
	app := &recordingAppender{}
	c := New(app, 80)

	if err := c.Insert("hello", "hi"); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if len(app.records) != 1 {
		t.Fatalf("appended %d records, want 1", len(app.records))
	}
	if app.records[0] != (store.CacheRecord{Query: "hello", Answer: "hi"}) {
		t.Errorf("appended record = %+v", app.records[0])
	}
}

func TestInsertAppendFailureLeavesCacheUnchanged(t *testing.T) {
	app := &recordingAppender{err: errors.New("disk full")}
	c := New(app, 80)

	if err := c.Insert("hello", "hi"); err == nil {
		t.Fatal("Insert should propagate append failure")
	}
	if c.Len() != 0 {
		t.Errorf("cache size = %d after failed insert, want 0", c.Len())
	}
	if _, hit := c.Lookup("hello"); hit {
		t.Error("entry visible after failed append")
	}
}

func TestSeedDoesNotReappend(t *testing.T) {
	app := &recordingAppender{}
	c := New(app, 80)

	c.Seed([]store.CacheRecord{
		{Query: "q1", Answer: "a1"},
		{Query: "q2", Answer: "a2"},
		{Query: "q1", Answer: "a1-revised"}, // replay overwrite
	})

	if len(app.records) != 0 {
		t.Errorf("Seed appended %d records, want 0", len(app.records))
	}
	if c.Len() != 2 {
		t.Errorf("cache size = %d, want 2", c.Len())
	}
	got, hit := c.Lookup("q1")
	if !hit || got != "a1-revised" {
		t.Errorf("Lookup(q1) = %q, %v; want later record to win", got, hit)
	}
}

func TestStats(t *testing.T) {
	c := New(nil, 80)
	if err := c.Insert("hello there friend", "hi"); err != nil {
		t.Fatal(err)
	}

	c.Lookup("hello there friend")  // hit
	c.Lookup("completely different") // miss
	c.Lookup("hello there friend!")  // hit

	stats := c.Stats()
	if stats.Size != 1 {
		t.Errorf("Size = %d, want 1", stats.Size)
	}
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
}

func TestMergeFoldsNewRecords(t *testing.T) {
	c := New(nil, 80)
	c.Seed([]store.CacheRecord{{Query: "q1", Answer: "a1"}})

	c.merge([]store.CacheRecord{
		{Query: "q1", Answer: "a1"}, // already known, no-op
		{Query: "q2", Answer: "a2"},
	})

	if c.Len() != 2 {
		t.Errorf("cache size = %d after merge, want 2", c.Len())
	}
	got, hit := c.Lookup("q2")
	if !hit || got != "a2" {
		t.Errorf("Lookup(q2) = %q, %v", got, hit)
	}
}

func TestThresholdBoundaryIsStrict(t *testing.T) {
	// Score of exactly the threshold must not match.
	c := New(nil, 100)
	if err := c.Insert("hello", "hi"); err != nil {
		t.Fatal(err)
	}
	if _, hit := c.Lookup("hello"); hit {
		t.Error("score equal to threshold should not match")
	}

	c2 := New(nil, 99)
	if err := c2.Insert("hello", "hi"); err != nil {
		t.Fatal(err)
	}
	if _, hit := c2.Lookup("hello"); !hit {
		t.Error("score above threshold should match")
	}
}
