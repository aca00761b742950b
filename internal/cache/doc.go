// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache provides the fuzzy question-to-answer cache for parley.
//
// Questions are matched by Levenshtein similarity ratio (0-100) against
// every cached question; a lookup hits when the best score is strictly
// greater than the configured threshold. Ties and multiple matches resolve
// to the oldest cached question.
//
// # Key Types
//
//   - FuzzyCache: In-memory cache backed by an append-only log
//   - LogWatcher: Merges records appended to the log by other processes
//   - Stats: Hit/miss counters for status displays
//
// # Durability
//
// Insert appends to the log before the answer becomes visible in memory,
// so a crash can lose an answer but never invent one. Seed replays the log
// at startup.
package cache
