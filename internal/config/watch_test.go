// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_ReloadsOnSave(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	changes := make(chan *Config, 4)
	w, err := Watch(path, 50*time.Millisecond, zerolog.Nop(), func(c *Config) { changes <- c })
	require.NoError(t, err)
	defer w.Close()

	cfg := Default()
	cfg.Backends.TextURL = "http://reloaded:8000"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case got := <-changes:
		assert.Equal(t, "http://reloaded:8000", got.Backends.TextURL)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not report the change")
	}
}

func TestWatch_SkipsInvalidAndOtherFiles(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	changes := make(chan *Config, 4)
	w, err := Watch(path, 50*time.Millisecond, zerolog.Nop(), func(c *Config) { changes <- c })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0600))
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600))

	select {
	case got := <-changes:
		t.Fatalf("unexpected reload: %s", got)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatch_CloseStops(t *testing.T) {
	dir := t.TempDir()
	w, err := Watch(filepath.Join(dir, "config.toml"), 0, zerolog.Nop(), nil)
	require.NoError(t, err)
	assert.NoError(t, w.Close())
}
