// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

// =============================================================================
// REQUEST / RESPONSE TYPES
// =============================================================================

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatRequest is the request body for /api/chat.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// ChatResponse is the non-streaming response from /api/chat.
type ChatResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`

	// Statistics (nanoseconds / counts)
	TotalDuration int64 `json:"total_duration,omitempty"`
	EvalCount     int   `json:"eval_count,omitempty"`
	EvalDuration  int64 `json:"eval_duration,omitempty"`
}

// StreamChunk is one decoded line of a streaming response.
type StreamChunk struct {
	Content string
	Done    bool
	Model   string
	Error   error
}

// APIError is the error body Ollama returns on failures.
type APIError struct {
	Error string `json:"error"`
}
