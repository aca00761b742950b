// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared bootstrap for parley CLI commands.
//
// Every command that touches the data directory builds the same stack:
// config, store, seeded cache, Ollama client, responder. The TUI reuses it
// through BuildApp.

package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/parley/internal/cache"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/imagegen"
	"github.com/jeranaias/parley/internal/ollama"
	"github.com/jeranaias/parley/internal/responder"
	"github.com/jeranaias/parley/internal/store"
	"github.com/jeranaias/parley/internal/voice"
)

// AppContext bundles the wired collaborators behind a command.
type AppContext struct {
	Cfg       *config.Config
	Store     *store.Store
	Cache     *cache.FuzzyCache
	Ollama    *ollama.Client
	Responder *responder.Responder
	Images    *imagegen.Client
	Voice     *voice.Client

	watcher *cache.LogWatcher
}

// BuildApp loads configuration and wires the full stack. The model argument
// overrides the configured model when non-empty.
func BuildApp(model string) (*AppContext, error) {
	cfg := config.Global()

	dir, err := cfg.DataDir()
	if err != nil {
		return nil, fmt.Errorf("resolving data directory: %w", err)
	}
	st, err := store.NewWithDir(dir)
	if err != nil {
		return nil, fmt.Errorf("opening data directory: %w", err)
	}

	// A disabled cache still records answers; the threshold of 100 just
	// keeps Lookup from ever matching (the comparison is strictly greater).
	threshold := cfg.Cache.Threshold
	if !cfg.Cache.Enabled {
		threshold = 100
	}
	fc := cache.New(st, threshold)

	records, err := st.LoadCacheLog()
	if err != nil {
		return nil, fmt.Errorf("reading cache log: %w", err)
	}
	fc.Seed(records)

	if model == "" {
		model = cfg.Local.OllamaModel
	}
	client := ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Local.OllamaURL,
		Model:        model,
		SystemPrompt: cfg.Local.SystemPrompt,
		Timeout:      time.Duration(cfg.Local.TimeoutSecs) * time.Second,
	})

	app := &AppContext{
		Cfg:       cfg,
		Store:     st,
		Cache:     fc,
		Ollama:    client,
		Responder: responder.New(fc, client, time.Duration(cfg.Local.TimeoutSecs)*time.Second),
	}

	if cfg.Image.Endpoint != "" {
		app.Images = imagegen.NewClient(imagegen.ClientConfig{
			Endpoint:          cfg.Image.Endpoint,
			Token:             cfg.Image.Token,
			OutputDir:         st.ImagesDir(),
			RequestsPerMinute: cfg.Image.RequestsPerMinute,
		})
	}
	if cfg.Voice.Endpoint != "" {
		app.Voice = voice.NewClient(voice.ClientConfig{
			Endpoint: cfg.Voice.Endpoint,
			Token:    cfg.Voice.Token,
		})
	}

	if cfg.Cache.Enabled && cfg.Cache.WatchLog {
		watcher, werr := cache.NewLogWatcher(fc, st, 100*time.Millisecond)
		if werr != nil {
			log.Warn().Err(werr).Msg("cache log watcher unavailable")
		} else if werr := watcher.Watch(); werr != nil {
			log.Warn().Err(werr).Msg("cache log watcher failed to start")
		} else {
			app.watcher = watcher
		}
	}

	return app, nil
}

// Close releases background resources held by the context.
func (a *AppContext) Close() {
	if a.watcher != nil {
		if err := a.watcher.Close(); err != nil {
			log.Warn().Err(err).Msg("closing cache log watcher")
		}
	}
}
