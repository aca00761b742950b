// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package responder answers submitted turns: cached answers are served
// directly, everything else goes to the model and the new answer is cached
// before it reaches the transcript.
package responder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jeranaias/parley/internal/cache"
	"github.com/jeranaias/parley/internal/chat"
)

// =============================================================================
// GENERATOR INTERFACE
// =============================================================================

// Generator produces an answer for a query. Satisfied by *ollama.Client.
type Generator interface {
	Generate(ctx context.Context, query string) (string, error)
}

// =============================================================================
// ERRORS
// =============================================================================

// GenerationError reports a failed answer attempt. The turn it belonged to
// has been aborted, so resubmitting the same query is safe.
type GenerationError struct {
	Query    string
	TimedOut bool
	Cause    error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("answer generation timed out for %q", e.Query)
	}
	return fmt.Sprintf("answer generation failed for %q: %v", e.Query, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// RESPONDER
// =============================================================================

// Responder routes queries through the fuzzy cache and the model.
type Responder struct {
	cache   *cache.FuzzyCache
	gen     Generator
	timeout time.Duration
}

// New creates a responder. timeout bounds each model call; zero means no
// bound beyond the caller's context.
func New(c *cache.FuzzyCache, gen Generator, timeout time.Duration) *Responder {
	return &Responder{cache: c, gen: gen, timeout: timeout}
}

// AnswerTurn produces the answer for a pending turn and resolves it on the
// session.
//
// A cache hit resolves immediately: the generator is not called and nothing
// is written to the cache. On a miss the model answer is appended to the
// cache log before the transcript is updated, so a crash between the two
// writes loses the transcript entry but never the cached answer that the
// transcript would have referenced.
//
// On any failure the turn is aborted and no state is mutated; the caller may
// resubmit the same query.
func (r *Responder) AnswerTurn(ctx context.Context, session *chat.Session, turn chat.Turn) (chat.Turn, error) {
	if answer, ok := r.cache.Lookup(turn.Query); ok {
		log.Info().Str("turn", turn.ID).Msg("cache hit")
		return session.Resolve(turn.ID, chat.TextResponse(answer))
	}
	log.Debug().Str("turn", turn.ID).Msg("cache miss")

	answer, err := r.generate(ctx, turn.Query)
	if err != nil {
		r.abort(session, turn.ID)
		return chat.Turn{}, &GenerationError{
			Query:    turn.Query,
			TimedOut: errors.Is(err, context.DeadlineExceeded),
			Cause:    err,
		}
	}

	if err := r.cache.Insert(turn.Query, answer); err != nil {
		r.abort(session, turn.ID)
		return chat.Turn{}, &GenerationError{Query: turn.Query, Cause: err}
	}

	return session.Resolve(turn.ID, chat.TextResponse(answer))
}

// generate calls the model with the configured timeout.
func (r *Responder) generate(ctx context.Context, query string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.gen.Generate(ctx, query)
}

func (r *Responder) abort(session *chat.Session, turnID string) {
	if err := session.Abort(turnID); err != nil {
		log.Warn().Str("turn", turnID).Err(err).Msg("failed to abort turn")
	}
}

// CacheStats exposes the underlying cache counters.
func (r *Responder) CacheStats() cache.Stats {
	return r.cache.Stats()
}
