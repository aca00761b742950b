// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat holds the conversation model for parley: turns, responses,
// and the single-user session state machine that mediates between the UI
// and the persisted transcript.
package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/parley/internal/store"
)

// =============================================================================
// RESPONSE
// =============================================================================

// ResponseKind discriminates the payload of a Response.
type ResponseKind int

const (
	// ResponsePending means the answer has not arrived yet.
	ResponsePending ResponseKind = iota

	// ResponseText carries a text answer.
	ResponseText

	// ResponseImage carries the path of a generated image.
	ResponseImage
)

// String returns a human-readable kind name.
func (k ResponseKind) String() string {
	switch k {
	case ResponsePending:
		return "pending"
	case ResponseText:
		return "text"
	case ResponseImage:
		return "image"
	default:
		return "unknown"
	}
}

// Response is the answer to a turn. Exactly one payload field is meaningful
// for a given kind.
type Response struct {
	Kind      ResponseKind
	Text      string
	ImagePath string
}

// TextResponse builds a text response.
func TextResponse(text string) Response {
	return Response{Kind: ResponseText, Text: text}
}

// ImageResponse builds an image response.
func ImageResponse(path string) Response {
	return Response{Kind: ResponseImage, ImagePath: path}
}

// =============================================================================
// TURN
// =============================================================================

// Turn is one question and its (possibly pending) answer.
type Turn struct {
	ID         string
	Query      string
	Response   Response
	CreatedAt  time.Time
	ResolvedAt time.Time // zero while pending
}

// NewTurn creates a pending turn for a query.
func NewTurn(query string) Turn {
	return Turn{
		ID:        uuid.NewString(),
		Query:     query,
		Response:  Response{Kind: ResponsePending},
		CreatedAt: time.Now(),
	}
}

// Resolved reports whether the turn has an answer.
func (t *Turn) Resolved() bool {
	return t.Response.Kind != ResponsePending
}

// turnFromEntry rebuilds a resolved turn from its persisted form.
func turnFromEntry(e store.Entry) Turn {
	resp := TextResponse(e.Answer)
	if e.Kind == "image" {
		resp = ImageResponse(e.ImagePath)
	}
	return Turn{
		ID:         uuid.NewString(),
		Query:      e.Query,
		Response:   resp,
		CreatedAt:  e.Timestamp,
		ResolvedAt: e.Timestamp,
	}
}

// entry converts a resolved turn to its persisted form.
func (t *Turn) entry() store.Entry {
	e := store.Entry{
		Query:     t.Query,
		Answer:    t.Response.Text,
		Timestamp: t.ResolvedAt,
	}
	if t.Response.Kind == ResponseImage {
		e.Kind = "image"
		e.ImagePath = t.Response.ImagePath
	}
	return e
}
