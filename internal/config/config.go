// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for parley.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.parley/config.toml
//   - ~/.parley/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/parley/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parley configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version"`

	// Local (Ollama) configuration
	Local LocalConfig `toml:"local" json:"local"`

	// Cache configuration
	Cache CacheConfig `toml:"cache" json:"cache"`

	// Image generation configuration
	Image ImageConfig `toml:"image" json:"image"`

	// Voice transcription configuration
	Voice VoiceConfig `toml:"voice" json:"voice"`

	// Storage configuration
	Storage StorageConfig `toml:"storage" json:"storage"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// LocalConfig contains local Ollama configuration.
type LocalConfig struct {
	// OllamaURL is the URL of the Ollama server
	OllamaURL string `toml:"ollama_url" json:"ollama_url"`
	// OllamaModel is the model used to answer queries
	OllamaModel string `toml:"ollama_model" json:"ollama_model"`
	// SystemPrompt is the assistant persona (empty = built-in default)
	SystemPrompt string `toml:"system_prompt" json:"system_prompt"`
	// TimeoutSecs bounds each generation call
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// CacheConfig contains answer cache configuration.
type CacheConfig struct {
	// Enabled controls whether the fuzzy answer cache is consulted
	Enabled bool `toml:"enabled" json:"enabled"`
	// Threshold is the similarity score (0-100) a stored question must
	// exceed to be served. Higher means stricter matching.
	Threshold int `toml:"threshold" json:"threshold"`
	// WatchLog folds in cache records appended by other parley processes
	WatchLog bool `toml:"watch_log" json:"watch_log"`
}

// ImageConfig contains image generation configuration.
type ImageConfig struct {
	// Endpoint is the text-to-image inference URL (empty = disabled)
	Endpoint string `toml:"endpoint" json:"endpoint"`
	// Token authenticates to the endpoint
	Token string `toml:"token" json:"token"`
	// RequestsPerMinute throttles calls to the hosted service
	RequestsPerMinute int `toml:"requests_per_minute" json:"requests_per_minute"`
}

// VoiceConfig contains speech-to-text configuration.
type VoiceConfig struct {
	// Endpoint is the transcription inference URL (empty = disabled)
	Endpoint string `toml:"endpoint" json:"endpoint"`
	// Token authenticates to the endpoint
	Token string `toml:"token" json:"token"`
}

// StorageConfig contains data directory configuration.
type StorageConfig struct {
	// DataDir holds users.json, history.json, cache.jsonl and images/
	// (empty = ~/.parley)
	DataDir string `toml:"data_dir" json:"data_dir"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// TypingIntervalMs is the delay between revealed words when presenting
	// an answer. 0 disables the reveal and prints answers whole.
	TypingIntervalMs int `toml:"typing_interval_ms" json:"typing_interval_ms"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Local: LocalConfig{
			OllamaURL:   "http://127.0.0.1:11434",
			OllamaModel: "llama3",
			TimeoutSecs: 120,
		},

		Cache: CacheConfig{
			Enabled:   true,
			Threshold: 80,
			WatchLog:  false,
		},

		Image: ImageConfig{
			RequestsPerMinute: 6,
		},

		UI: UIConfig{
			Theme:            "dark",
			TypingIntervalMs: 40,
			CompactMode:      false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the parley configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".parley"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API tokens.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}

	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err = finish(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finish applies env overrides, defaults and validation in load order.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Log warning but don't fail - permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# parley configuration file")
	fmt.Fprintln(file, "# Generated by parley - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Local.OllamaURL != "" {
		if _, err := url.Parse(c.Local.OllamaURL); err != nil {
			errs = append(errs, ValidationError{
				Field:   "local.ollama_url",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	if c.Local.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "local.timeout_secs",
			Message: "must be non-negative",
		})
	}

	if c.Cache.Threshold < 0 || c.Cache.Threshold > 100 {
		errs = append(errs, ValidationError{
			Field:   "cache.threshold",
			Message: fmt.Sprintf("must be 0-100, got %d", c.Cache.Threshold),
		})
	}

	if c.Image.Endpoint != "" {
		if _, err := url.Parse(c.Image.Endpoint); err != nil {
			errs = append(errs, ValidationError{
				Field:   "image.endpoint",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}
	if c.Image.RequestsPerMinute < 0 {
		errs = append(errs, ValidationError{
			Field:   "image.requests_per_minute",
			Message: "must be non-negative",
		})
	}

	if c.Voice.Endpoint != "" {
		if _, err := url.Parse(c.Voice.Endpoint); err != nil {
			errs = append(errs, ValidationError{
				Field:   "voice.endpoint",
				Message: fmt.Sprintf("invalid URL: %v", err),
			})
		}
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.TypingIntervalMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "ui.typing_interval_ms",
			Message: "must be non-negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Local.OllamaURL == "" {
		c.Local.OllamaURL = defaults.Local.OllamaURL
	}
	if c.Local.OllamaModel == "" {
		c.Local.OllamaModel = defaults.Local.OllamaModel
	}
	if c.Local.TimeoutSecs == 0 {
		c.Local.TimeoutSecs = defaults.Local.TimeoutSecs
	}

	// Cache.Threshold keeps whatever was loaded: every load path decodes
	// over Default(), so a zero here was set explicitly (threshold = 0
	// means any stored question scoring above zero is served).

	if c.Image.RequestsPerMinute == 0 {
		c.Image.RequestsPerMinute = defaults.Image.RequestsPerMinute
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// DataDir resolves the storage directory, defaulting to the config directory.
func (c *Config) DataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	return ConfigDir()
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PARLEY_OLLAMA_URL: overrides local.ollama_url
//   - PARLEY_MODEL: overrides local.ollama_model
//   - PARLEY_SYSTEM_PROMPT: overrides local.system_prompt
//   - PARLEY_CACHE_THRESHOLD: overrides cache.threshold
//   - PARLEY_CACHE_DISABLED: set to "1" or "true" to bypass the answer cache
//   - PARLEY_IMAGE_ENDPOINT: overrides image.endpoint
//   - PARLEY_IMAGE_TOKEN: overrides image.token
//   - PARLEY_VOICE_ENDPOINT: overrides voice.endpoint
//   - PARLEY_VOICE_TOKEN: overrides voice.token
//   - PARLEY_DATA_DIR: overrides storage.data_dir
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("PARLEY_OLLAMA_URL"); v != "" {
		c.Local.OllamaURL = v
	}
	if v := os.Getenv("PARLEY_MODEL"); v != "" {
		c.Local.OllamaModel = v
	}
	if v := os.Getenv("PARLEY_SYSTEM_PROMPT"); v != "" {
		c.Local.SystemPrompt = v
	}
	if v := os.Getenv("PARLEY_CACHE_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.Threshold = n
		}
	}
	if v := os.Getenv("PARLEY_CACHE_DISABLED"); v != "" {
		c.Cache.Enabled = !(v == "1" || strings.ToLower(v) == "true")
	}
	if v := os.Getenv("PARLEY_IMAGE_ENDPOINT"); v != "" {
		c.Image.Endpoint = v
	}
	if v := os.Getenv("PARLEY_IMAGE_TOKEN"); v != "" {
		c.Image.Token = v
	}
	if v := os.Getenv("PARLEY_VOICE_ENDPOINT"); v != "" {
		c.Voice.Endpoint = v
	}
	if v := os.Getenv("PARLEY_VOICE_TOKEN"); v != "" {
		c.Voice.Token = v
	}
	if v := os.Getenv("PARLEY_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
}

// =============================================================================
// STRING / REDACTION
// =============================================================================

// String returns a string representation of the config for debugging.
// SECURITY: Redacts API tokens to prevent accidental exposure in logs.
func (c *Config) String() string {
	safe := *c
	if safe.Image.Token != "" {
		safe.Image.Token = "[REDACTED]"
	}
	if safe.Voice.Token != "" {
		safe.Voice.Token = "[REDACTED]"
	}

	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		globalConfigMu.RLock()
		preset := globalConfig != nil // SetGlobal was called before first access
		globalConfigMu.RUnlock()
		if preset {
			return
		}

		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg, _ = finish(Default())
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
