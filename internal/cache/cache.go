// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/parley/internal/store"
)

// =============================================================================
// APPENDER INTERFACE
// =============================================================================

// Appender persists cache records durably. Satisfied by *store.Store.
type Appender interface {
	AppendCacheRecord(rec store.CacheRecord) error
}

// =============================================================================
// FUZZY CACHE
// =============================================================================

// FuzzyCache is an in-memory query->answer map with fuzzy lookup, backed by
// an append-only log. All methods are safe for concurrent use.
type FuzzyCache struct {
	mu      sync.RWMutex
	entries map[string]string
	keys    []string // insertion order, drives deterministic first-match

	threshold int
	appender  Appender

	hits   int64
	misses int64
}

// Stats reports cache effectiveness.
type Stats struct {
	Size   int
	Hits   int64
	Misses int64
}

// New creates a fuzzy cache. Lookups match when similarity exceeds threshold
// (0-100). appender may be nil for an ephemeral cache.
func New(appender Appender, threshold int) *FuzzyCache {
	return &FuzzyCache{
		entries:   make(map[string]string),
		threshold: threshold,
		appender:  appender,
	}
}

// Seed loads previously persisted records into memory without re-appending
// them. Later records for the same query overwrite earlier ones, matching
// replay order of the log.
func (c *FuzzyCache) Seed(records []store.CacheRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		c.put(rec.Query, rec.Answer)
	}
}

// Lookup returns the cached answer for the first stored question (in
// insertion order) whose similarity to query exceeds the threshold.
func (c *FuzzyCache) Lookup(query string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.keys {
		if Ratio(key, query) > c.threshold {
			c.hits++
			return c.entries[key], true
		}
	}
	c.misses++
	return "", false
}

// Insert persists the pair to the log first, then makes it visible in
// memory. If the append fails the entry is not added: an answer must never
// be served from a cache state that would not survive a restart.
func (c *FuzzyCache) Insert(query, answer string) error {
	if c.appender != nil {
		if err := c.appender.AppendCacheRecord(store.CacheRecord{Query: query, Answer: answer}); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(query, answer)
	return nil
}

// put adds or overwrites an entry. Caller holds the lock.
func (c *FuzzyCache) put(query, answer string) {
	if _, exists := c.entries[query]; !exists {
		c.keys = append(c.keys, query)
	}
	c.entries[query] = answer
}

// Stats returns a snapshot of cache counters.
func (c *FuzzyCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{Size: len(c.keys), Hits: c.hits, Misses: c.misses}
}

// Len returns the number of distinct cached questions.
func (c *FuzzyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// merge folds records into memory, logging the count of new entries.
// Used by the log watcher when another process appends to the log.
func (c *FuzzyCache) merge(records []store.CacheRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, rec := range records {
		if _, exists := c.entries[rec.Query]; !exists {
			added++
		}
		c.put(rec.Query, rec.Answer)
	}
	if added > 0 {
		log.Debug().Int("added", added).Msg("merged external cache records")
	}
}
