// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewWithDir(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestLoadCredentialsMissingFile(t *testing.T) {
	s := newTestStore(t)

	creds, err := s.LoadCredentials()
	require.NoError(t, err)
	assert.NotNil(t, creds)
	assert.Empty(t, creds)
}

func TestSaveLoadCredentials(t *testing.T) {
	s := newTestStore(t)

	want := map[string]string{"alice": "wonderland", "bob": "builder"}
	require.NoError(t, s.SaveCredentials(want))

	got, err := s.LoadCredentials()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadCredentialsMalformed(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.CredentialsPath(), []byte("{not json"), 0644))

	_, err := s.LoadCredentials()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFormat), "want ErrFormat, got %v", err)
	assert.False(t, errors.Is(err, ErrIO))

	// Malformed file must be left in place for inspection
	data, readErr := os.ReadFile(s.CredentialsPath())
	require.NoError(t, readErr)
	assert.Equal(t, "{not json", string(data))
}

func TestLoadCredentialsIOError(t *testing.T) {
	s := newTestStore(t)
	// A directory at the file path forces a read error that is not not-exist
	require.NoError(t, os.Mkdir(s.CredentialsPath(), 0755))

	_, err := s.LoadCredentials()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO), "want ErrIO, got %v", err)
}

func TestSaveLoadHistory(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	want := map[string][]Entry{
		"alice": {
			{Query: "what is go", Answer: "a language", Timestamp: now},
			{Query: "draw a cat", Answer: "done", Kind: "image", ImagePath: "/tmp/cat.png", Timestamp: now},
		},
	}
	require.NoError(t, s.SaveHistory(want))

	got, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadHistoryMissingFile(t *testing.T) {
	s := newTestStore(t)

	history, err := s.LoadHistory()
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestAppendAndLoadCacheLog(t *testing.T) {
	s := newTestStore(t)

	recs := []CacheRecord{
		{Query: "hello", Answer: "hi there"},
		{Query: "what is rust", Answer: "also a language"},
	}
	for _, r := range recs {
		require.NoError(t, s.AppendCacheRecord(r))
	}

	got, err := s.LoadCacheLog()
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestLoadCacheLogMissingFile(t *testing.T) {
	s := newTestStore(t)

	got, err := s.LoadCacheLog()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadCacheLogSkipsMalformedLines(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.AppendCacheRecord(CacheRecord{Query: "q1", Answer: "a1"}))

	// Simulate a torn append from a crash
	f, err := os.OpenFile(s.CacheLogPath(), os.O_WRONLY|os.O_APPEND, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("{\"query\":\"torn\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.AppendCacheRecord(CacheRecord{Query: "q2", Answer: "a2"}))

	got, err := s.LoadCacheLog()
	require.NoError(t, err)
	assert.Equal(t, []CacheRecord{{Query: "q1", Answer: "a1"}, {Query: "q2", Answer: "a2"}}, got)
}

func TestSaveHistoryAtomicOverwrite(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.SaveHistory(map[string][]Entry{"alice": {{Query: "a", Answer: "b"}}}))
	require.NoError(t, s.SaveHistory(map[string][]Entry{"bob": {{Query: "c", Answer: "d"}}}))

	got, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "bob")

	// No temp files left behind
	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp-")
	}
}
