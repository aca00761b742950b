// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/jeranaias/parley/internal/store"
)

// =============================================================================
// LOG WATCHER
// =============================================================================
// Another parley process (for example the image command running alongside an
// open chat) may append to the same cache log. The watcher folds those
// records in so this process serves them too.

// LogSource re-reads the persisted cache log. Satisfied by *store.Store.
type LogSource interface {
	LoadCacheLog() ([]store.CacheRecord, error)
	CacheLogPath() string
}

// LogWatcher watches the cache log file and merges externally appended
// records into a FuzzyCache.
type LogWatcher struct {
	cache    *FuzzyCache
	source   LogSource
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending time.Time // zero when no reload is queued

	ctx    context.Context
	cancel context.CancelFunc
}

// NewLogWatcher creates a watcher for the cache log.
func NewLogWatcher(cache *FuzzyCache, source LogSource, debounce time.Duration) (*LogWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &LogWatcher{
		cache:    cache,
		source:   source,
		watcher:  watcher,
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Watch starts watching for log appends.
func (lw *LogWatcher) Watch() error {
	// Watch the directory, not the file: the file may not exist yet, and
	// watching the parent also survives rename-based rewrites.
	if err := lw.watcher.Add(filepath.Dir(lw.source.CacheLogPath())); err != nil {
		return err
	}

	go lw.processEvents()
	go lw.processPending()

	return nil
}

func (lw *LogWatcher) processEvents() {
	for {
		select {
		case <-lw.ctx.Done():
			return

		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			if event.Name != lw.source.CacheLogPath() {
				continue
			}
			if event.Op&fsnotify.Write == fsnotify.Write ||
				event.Op&fsnotify.Create == fsnotify.Create {
				lw.mu.Lock()
				lw.pending = time.Now()
				lw.mu.Unlock()
			}

		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("cache log watcher error")
		}
	}
}

func (lw *LogWatcher) processPending() {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-lw.ctx.Done():
			return

		case <-ticker.C:
			lw.mu.Lock()
			ready := !lw.pending.IsZero() && time.Since(lw.pending) >= lw.debounce
			if ready {
				lw.pending = time.Time{}
			}
			lw.mu.Unlock()

			if ready {
				lw.reload()
			}
		}
	}
}

// reload re-reads the whole log and merges it. Replaying records already in
// memory is a no-op, so a full re-read is simpler than tracking offsets and
// costs little at the log sizes involved.
func (lw *LogWatcher) reload() {
	records, err := lw.source.LoadCacheLog()
	if err != nil {
		log.Warn().Err(err).Msg("failed to reload cache log")
		return
	}
	lw.cache.merge(records)
}

// Close stops watching and releases resources.
func (lw *LogWatcher) Close() error {
	lw.cancel()
	return lw.watcher.Close()
}
