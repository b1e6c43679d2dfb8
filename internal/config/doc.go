// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for deepcog.
//
// Settings are stored as TOML, with sensible defaults, environment variable
// overrides, validation and a file watcher for live reloads.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - BackendsConfig: Base URL per backend kind (text, image, OCR, search)
//   - StreamConfig: Text stream error delivery, idle timeout and reconnects
//   - Watcher: Reloads the file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DEEPCOG_*)
//   - ~/.deepcog/config.toml (directory overridable with DEEPCOG_HOME)
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Change a value by key and persist it:
//
//	if err := cfg.Set("backends.text_url", "http://10.0.0.5:8000"); err != nil {
//	    return err
//	}
//	err = config.SaveTOML(cfg, path)
package config
