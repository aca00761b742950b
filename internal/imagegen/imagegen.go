// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package imagegen turns text prompts into image files via a hosted
// text-to-image inference endpoint.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/jeranaias/parley/internal/util"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes image generation errors.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeAuth
	ErrTypeRemote
	ErrTypeNotImage
	ErrTypeRateLimited
	ErrTypeIO
)

// ImageError represents a failed image generation.
type ImageError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ImageError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ImageError) Unwrap() error {
	return e.Cause
}

// Sentinel errors for easy checking.
var (
	ErrAuth        = &ImageError{Type: ErrTypeAuth, Message: "image service rejected credentials"}
	ErrNotImage    = &ImageError{Type: ErrTypeNotImage, Message: "image service returned a non-image response"}
	ErrRateLimited = &ImageError{Type: ErrTypeRateLimited, Message: "image generation rate limit reached"}
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration for the image generation client.
type ClientConfig struct {
	// Endpoint is the text-to-image inference URL.
	Endpoint string

	// Token authenticates to the endpoint (sent as a Bearer token).
	Token string

	// OutputDir is where generated images are written.
	OutputDir string

	// Timeout bounds each request (default: 120s; image models are slow)
	Timeout time.Duration

	// RequestsPerMinute throttles calls to the hosted service (default: 6).
	// Hosted inference endpoints bill per call; a local limiter fails fast
	// instead of queueing up charges.
	RequestsPerMinute int
}

// =============================================================================
// CLIENT
// =============================================================================

// Client generates images from prompts and saves them to disk.
// Thread-safe for concurrent use.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates an image generation client.
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 120 * time.Second
	}
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 6
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}
}

// Enabled reports whether the client is configured to make requests.
func (c *Client) Enabled() bool {
	return c.config.Endpoint != ""
}

// generateRequest is the JSON body sent to the inference endpoint.
type generateRequest struct {
	Inputs string `json:"inputs"`
}

// Generate produces an image for the prompt and returns the saved file path.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		return "", &ImageError{Type: ErrTypeUnknown, Message: "image generation is not configured"}
	}

	if !c.limiter.Allow() {
		return "", ErrRateLimited
	}

	body, err := json.Marshal(generateRequest{Inputs: prompt})
	if err != nil {
		return "", &ImageError{Type: ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &ImageError{Type: ErrTypeRemote, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ImageError{Type: ErrTypeRemote, Message: "image request failed", Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", ErrAuth
	case resp.StatusCode != http.StatusOK:
		return "", &ImageError{
			Type:    ErrTypeRemote,
			Message: "image service returned " + resp.Status,
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return "", &ImageError{Type: ErrTypeRemote, Message: "failed to read image body", Cause: err}
	}

	path := filepath.Join(c.config.OutputDir, uuid.NewString()+extensionFor(contentType))
	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", &ImageError{Type: ErrTypeIO, Message: "failed to save image", Cause: err}
	}

	log.Info().
		Str("path", path).
		Int("bytes", buf.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("image generated")
	return path, nil
}

// extensionFor maps a content type to a file extension.
func extensionFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp"
	default:
		return ".img"
	}
}

// IsRateLimited checks if an error is a local rate limit rejection.
func IsRateLimited(err error) bool {
	var imgErr *ImageError
	if errors.As(err, &imgErr) {
		return imgErr.Type == ErrTypeRateLimited
	}
	return false
}

// CleanOutputDir removes generated images older than maxAge. Returns the
// number of files removed.
func (c *Client) CleanOutputDir(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(c.config.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.IsDir() {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(c.config.OutputDir, entry.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}
