// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"bufio"
	"encoding/json"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/parley/internal/util"
)

// =============================================================================
// CACHE LOG
// =============================================================================
// The cache log is append-only JSONL: one record per line, never rewritten.
// Appends are cheap and crash-safe; a torn final line from a crash mid-append
// is skipped on the next load instead of poisoning the whole file.

// AppendCacheRecord durably appends one record to the cache log. The record
// is synced to disk before the call returns.
func (s *Store) AppendCacheRecord(rec CacheRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return formatError(s.CacheLogPath(), "failed to encode cache record", err)
	}
	if err := util.AppendLine(s.CacheLogPath(), line); err != nil {
		return ioError(s.CacheLogPath(), "failed to append cache record", err)
	}
	return nil
}

// LoadCacheLog reads all records from the cache log in append order.
// Malformed lines are skipped with a warning rather than failing the load:
// one corrupt record must not take down the whole cache.
func (s *Store) LoadCacheLog() ([]CacheRecord, error) {
	f, err := os.Open(s.CacheLogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, ioError(s.CacheLogPath(), "failed to open cache log", err)
	}
	defer f.Close()

	var records []CacheRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec CacheRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Warn().
				Str("path", s.CacheLogPath()).
				Int("line", lineNo).
				Err(err).
				Msg("skipping malformed cache record")
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, ioError(s.CacheLogPath(), "failed to scan cache log", err)
	}
	return records, nil
}
