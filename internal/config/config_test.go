// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Local.OllamaURL != "http://127.0.0.1:11434" {
		t.Errorf("OllamaURL = %q", cfg.Local.OllamaURL)
	}
	if cfg.Local.OllamaModel != "llama3" {
		t.Errorf("OllamaModel = %q", cfg.Local.OllamaModel)
	}
	if !cfg.Cache.Enabled {
		t.Error("cache should be enabled by default")
	}
	if cfg.Cache.Threshold != 80 {
		t.Errorf("Threshold = %d, want 80", cfg.Cache.Threshold)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{"valid", func(cfg *Config) {}, ""},
		{"threshold too high", func(cfg *Config) { cfg.Cache.Threshold = 101 }, "cache.threshold"},
		{"threshold negative", func(cfg *Config) { cfg.Cache.Threshold = -1 }, "cache.threshold"},
		{"bad theme", func(cfg *Config) { cfg.UI.Theme = "solarized" }, "ui.theme"},
		{"negative typing interval", func(cfg *Config) { cfg.UI.TypingIntervalMs = -5 }, "ui.typing_interval_ms"},
		{"negative timeout", func(cfg *Config) { cfg.Local.TimeoutSecs = -1 }, "local.timeout_secs"},
		{"negative rpm", func(cfg *Config) { cfg.Image.RequestsPerMinute = -1 }, "image.requests_per_minute"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromPathTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[local]
ollama_model = "llama3:70b"

[cache]
enabled = true
threshold = 90

[ui]
theme = "light"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Local.OllamaModel != "llama3:70b" {
		t.Errorf("OllamaModel = %q", cfg.Local.OllamaModel)
	}
	if cfg.Cache.Threshold != 90 {
		t.Errorf("Threshold = %d", cfg.Cache.Threshold)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	// Unspecified values filled from defaults
	if cfg.Local.OllamaURL != "http://127.0.0.1:11434" {
		t.Errorf("OllamaURL = %q, want default", cfg.Local.OllamaURL)
	}
}

func TestLoadFromPathThresholdZeroSurvives(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[cache]\nthreshold = 0\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Cache.Threshold != 0 {
		t.Errorf("Threshold = %d, want explicit 0 kept", cfg.Cache.Threshold)
	}
}

func TestEnvThresholdZeroSurvives(t *testing.T) {
	t.Setenv("PARLEY_CACHE_THRESHOLD", "0")

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()

	if cfg.Cache.Threshold != 0 {
		t.Errorf("Threshold = %d, want explicit 0 kept", cfg.Cache.Threshold)
	}
}

func TestLoadFromPathInvalidThreshold(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[cache]\nthreshold = 500\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err == nil {
		t.Error("LoadFromPath should reject threshold 500")
	}
}

func TestSaveLoadJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := Default()
	cfg.Local.OllamaModel = "llama3:70b"
	cfg.Cache.Threshold = 85
	if err := SaveJSON(cfg, path); err != nil {
		t.Fatalf("SaveJSON failed: %v", err)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if loaded.Local.OllamaModel != "llama3:70b" {
		t.Errorf("OllamaModel = %q", loaded.Local.OllamaModel)
	}
	if loaded.Cache.Threshold != 85 {
		t.Errorf("Threshold = %d", loaded.Cache.Threshold)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("PARLEY_MODEL", "llama3:8b")
	t.Setenv("PARLEY_CACHE_THRESHOLD", "70")
	t.Setenv("PARLEY_CACHE_DISABLED", "1")
	t.Setenv("PARLEY_DATA_DIR", "/srv/parley")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Local.OllamaModel != "llama3:8b" {
		t.Errorf("OllamaModel = %q", cfg.Local.OllamaModel)
	}
	if cfg.Cache.Threshold != 70 {
		t.Errorf("Threshold = %d", cfg.Cache.Threshold)
	}
	if cfg.Cache.Enabled {
		t.Error("cache should be disabled by env override")
	}
	if cfg.Storage.DataDir != "/srv/parley" {
		t.Errorf("DataDir = %q", cfg.Storage.DataDir)
	}
}

func TestStringRedactsTokens(t *testing.T) {
	cfg := Default()
	cfg.Image.Token = "secret-image-token"
	cfg.Voice.Token = "secret-voice-token"

	s := cfg.String()
	if strings.Contains(s, "secret-image-token") || strings.Contains(s, "secret-voice-token") {
		t.Error("String() leaked a token")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("String() should mark redacted fields")
	}
}

func TestGlobalSingleton(t *testing.T) {
	ResetGlobalForTesting()
	defer ResetGlobalForTesting()

	cfg := Default()
	cfg.Local.OllamaModel = "pinned"
	SetGlobal(cfg)

	if got := Global(); got.Local.OllamaModel != "pinned" {
		t.Errorf("Global().OllamaModel = %q", got.Local.OllamaModel)
	}
}
