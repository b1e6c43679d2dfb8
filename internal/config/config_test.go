// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolateHome points the config directory at a fresh temp dir and clears
// the environment overrides.
func isolateHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	for _, key := range []string{"DEEPCOG_TEXT_URL", "DEEPCOG_IMAGE_URL", "DEEPCOG_OCR_URL", "DEEPCOG_MODEL", "DEEPCOG_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	return dir
}

// TestConfig_Default tests that Default() returns a valid config with defaults.
func TestConfig_Default(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config should validate: %v", err)
	}
	if cfg.Stream.SuppressErrors {
		t.Error("Stream errors should be delivered by default")
	}
	if cfg.Stream.Reconnect {
		t.Error("Reconnect should be off by default")
	}
	if cfg.Stream.IdleTimeout() != 60*time.Second {
		t.Errorf("IdleTimeout() = %v, want 60s", cfg.Stream.IdleTimeout())
	}
	if cfg.UI.PlaceholderDelay() != time.Second {
		t.Errorf("PlaceholderDelay() = %v, want 1s", cfg.UI.PlaceholderDelay())
	}
	if cfg.Backends.TextURL != "" || cfg.Backends.ImageURL != "" {
		t.Error("Backends should be unconfigured by default")
	}
}

// TestConfig_Validate tests configuration validation.
func TestConfig_Validate(t *testing.T) {
	with := func(mutate func(c *Config)) *Config {
		c := Default()
		mutate(c)
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{"valid default config", Default(), ""},
		{"bare host text url", with(func(c *Config) { c.Backends.TextURL = "10.0.0.5:8000" }), ""},
		{"https image url", with(func(c *Config) { c.Backends.ImageURL = "https://img.example.com/gen" }), ""},
		{"ws text url", with(func(c *Config) { c.Backends.TextURL = "ws://host/ws" }), ""},
		{"ftp scheme", with(func(c *Config) { c.Backends.OCRURL = "ftp://host" }), "backends.ocr_url"},
		{"missing host", with(func(c *Config) { c.Backends.ImageURL = "http://" }), "backends.image_url"},
		{"temperature too high", with(func(c *Config) { c.Models.Temperature = 3 }), "models.temperature"},
		{"zero max tokens", with(func(c *Config) { c.Models.MaxTokens = 0 }), "models.max_tokens"},
		{"negative idle timeout", with(func(c *Config) { c.Stream.IdleTimeoutSecs = -1 }), "stream.idle_timeout_secs"},
		{"invalid log level", with(func(c *Config) { c.Log.Level = "loud" }), "log.level"},
		{"invalid theme", with(func(c *Config) { c.UI.Theme = "invalid" }), "ui.theme"},
		{"invalid default mode", with(func(c *Config) { c.UI.DefaultMode = "voice" }), "ui.default_mode"},
		{"invalid export format", with(func(c *Config) { c.UI.ExportFormat = "pdf" }), "ui.export_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error mentioning %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want field %q", err, tt.wantErr)
			}
		})
	}
}

// TestConfig_GetSet tests Get and Set methods with dot notation.
func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("ui.default_mode")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if val != "top" {
		t.Errorf("Get('ui.default_mode') = %v, want 'top'", val)
	}

	if err := cfg.Set("backends.text_url", "http://host:8000"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if cfg.Backends.TextURL != "http://host:8000" {
		t.Errorf("TextURL after Set = %q", cfg.Backends.TextURL)
	}

	if err := cfg.Set("stream.suppress_errors", "true"); err != nil {
		t.Fatalf("Set(bool) error = %v", err)
	}
	if !cfg.Stream.SuppressErrors {
		t.Error("SuppressErrors should be true after Set")
	}

	if err := cfg.Set("models.temperature", "0.25"); err != nil {
		t.Fatalf("Set(float) error = %v", err)
	}
	if cfg.Models.Temperature != 0.25 {
		t.Errorf("Temperature = %v, want 0.25", cfg.Models.Temperature)
	}

	if err := cfg.Set("stream.idle_timeout_secs", 5); err != nil {
		t.Fatalf("Set(int) error = %v", err)
	}
	if cfg.Stream.IdleTimeoutSecs != 5 {
		t.Errorf("IdleTimeoutSecs = %d, want 5", cfg.Stream.IdleTimeoutSecs)
	}

	for _, bad := range []struct{ key, value string }{
		{"invalid.key", "x"},
		{"backends", "x"},
		{"backends.text_url.extra", "x"},
		{"stream.reconnect", "maybe"},
		{"models.max_tokens", "many"},
		{"", "x"},
	} {
		if err := cfg.Set(bad.key, bad.value); err == nil {
			t.Errorf("Set(%q, %q) should fail", bad.key, bad.value)
		}
	}
}

// TestConfig_AllKeysResolve ensures every advertised key is reachable.
func TestConfig_AllKeysResolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
}

// TestConfig_SaveLoadRoundTrip writes a config and reads it back.
func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	dir := isolateHome(t)

	cfg := Default()
	cfg.Backends.TextURL = "http://host:8000"
	cfg.Backends.ImageURL = "http://host:9000/generate"
	cfg.Models.Top = "llama"
	cfg.Stream.Reconnect = true
	path := filepath.Join(dir, "config.toml")
	if err := SaveTOML(cfg, path); err != nil {
		t.Fatalf("SaveTOML() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("config file missing: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config file mode = %o, want 600", info.Mode().Perm())
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got %s\nwant %s", loaded, cfg)
	}
}

// TestConfig_LoadFillsDefaults checks a sparse file keeps defaults.
func TestConfig_LoadFillsDefaults(t *testing.T) {
	dir := isolateHome(t)
	path := filepath.Join(dir, "config.toml")
	content := "[backends]\ntext_url = \"host:8000\"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Backends.TextURL != "host:8000" {
		t.Errorf("TextURL = %q", cfg.Backends.TextURL)
	}
	if cfg.Models.Top != "top" || cfg.HTTP.ReadTimeoutSecs != 60 || cfg.UI.WordWrap != 80 {
		t.Errorf("defaults not filled: %s", cfg)
	}
}

// TestConfig_LoadRejectsInvalid checks invalid files surface an error.
func TestConfig_LoadRejectsInvalid(t *testing.T) {
	dir := isolateHome(t)
	path := filepath.Join(dir, "config.toml")

	if err := os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("Load() should reject an invalid theme")
	}

	if err := os.WriteFile(path, []byte("not = [valid"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Error("Load() should reject malformed TOML")
	}
}

// TestConfig_EnvOverrides tests DEEPCOG_* environment variables.
func TestConfig_EnvOverrides(t *testing.T) {
	isolateHome(t)
	t.Setenv("DEEPCOG_TEXT_URL", "https://text.example.com")
	t.Setenv("DEEPCOG_IMAGE_URL", "http://img:9000")
	t.Setenv("DEEPCOG_OCR_URL", "ocr:7000")
	t.Setenv("DEEPCOG_MODEL", "mistral")
	t.Setenv("DEEPCOG_LOG_LEVEL", "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Backends.TextURL != "https://text.example.com" {
		t.Errorf("TextURL = %q", cfg.Backends.TextURL)
	}
	if cfg.Backends.ImageURL != "http://img:9000" {
		t.Errorf("ImageURL = %q", cfg.Backends.ImageURL)
	}
	if cfg.Backends.OCRURL != "ocr:7000" {
		t.Errorf("OCRURL = %q", cfg.Backends.OCRURL)
	}
	if cfg.Models.Top != "mistral" || cfg.Models.Bottom != "mistral" {
		t.Errorf("models = %+v", cfg.Models)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
}

// TestConfig_Paths tests the derived file locations.
func TestConfig_Paths(t *testing.T) {
	dir := isolateHome(t)
	cfg := Default()

	logPath, err := cfg.LogPath()
	if err != nil || logPath != filepath.Join(dir, "deepcog.log") {
		t.Errorf("LogPath() = %q, %v", logPath, err)
	}
	dbPath, err := cfg.StoragePath()
	if err != nil || dbPath != filepath.Join(dir, "events.db") {
		t.Errorf("StoragePath() = %q, %v", dbPath, err)
	}

	cfg.Storage.Path = "/tmp/custom.db"
	if p, _ := cfg.StoragePath(); p != "/tmp/custom.db" {
		t.Errorf("StoragePath() override = %q", p)
	}
}

// TestConfig_Clone tests that Clone creates an independent copy.
func TestConfig_Clone(t *testing.T) {
	original := Default()
	original.Version = "original"

	clone := original.Clone()
	clone.Version = "cloned"
	clone.Backends.TextURL = "host:1"

	if original.Version != "original" || original.Backends.TextURL != "" {
		t.Error("Clone should create an independent copy")
	}
}
