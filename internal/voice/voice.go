// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package voice transcribes recorded audio into query text via a hosted
// speech-to-text endpoint.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// TranscribeError represents a failed transcription attempt.
type TranscribeError struct {
	Message string
	Cause   error
}

func (e *TranscribeError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *TranscribeError) Unwrap() error {
	return e.Cause
}

// =============================================================================
// CLIENT
// =============================================================================

// ClientConfig holds configuration for the transcription client.
type ClientConfig struct {
	// Endpoint is the speech-to-text inference URL.
	Endpoint string

	// Token authenticates to the endpoint (sent as a Bearer token).
	Token string

	// Timeout bounds each request (default: 60s)
	Timeout time.Duration
}

// Client sends audio to the transcription endpoint.
// Thread-safe for concurrent use.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

// NewClient creates a transcription client.
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// Enabled reports whether the client is configured to make requests.
func (c *Client) Enabled() bool {
	return c.config.Endpoint != ""
}

// transcribeResponse is the JSON body returned by the endpoint.
type transcribeResponse struct {
	Text string `json:"text"`
}

// Transcribe converts recorded audio to text. Audio that contains no
// recognizable speech yields an empty string, not an error: silence is a
// valid recording, just not a usable query.
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	if !c.Enabled() {
		return "", &TranscribeError{Message: "transcription is not configured"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(audio))
	if err != nil {
		return "", &TranscribeError{Message: "failed to create request", Cause: err}
	}
	if contentType == "" {
		contentType = "audio/wav"
	}
	req.Header.Set("Content-Type", contentType)
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TranscribeError{Message: "transcription request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &TranscribeError{Message: "transcription service returned " + resp.Status}
	}

	var result transcribeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &TranscribeError{Message: "failed to decode transcription", Cause: err}
	}

	return strings.TrimSpace(result.Text), nil
}
