// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// =============================================================================
// CONFIG FILE WATCHER
// =============================================================================

// DefaultWatchDebounce collapses the burst of events an editor or an atomic
// rename produces into one reload.
const DefaultWatchDebounce = 200 * time.Millisecond

// Watcher reloads a config file when it changes on disk.
//
// The parent directory is watched rather than the file itself, because
// SaveTOML replaces the file by rename and a file watch would be lost.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   zerolog.Logger
	onChange func(*Config)

	mu      sync.Mutex
	pending time.Time

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Watch starts watching path and calls onChange with each successfully
// reloaded config. Invalid files are logged and skipped.
func Watch(path string, debounce time.Duration, logger zerolog.Logger, onChange func(*Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:     filepath.Clean(path),
		watcher:  fsw,
		debounce: debounce,
		logger:   logger,
		onChange: onChange,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	go w.processEvents()
	return w, nil
}

// Close stops watching and releases resources.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) processEvents() {
	defer close(w.done)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("config watcher error")

		case <-ticker.C:
			w.mu.Lock()
			due := !w.pending.IsZero() && time.Since(w.pending) >= w.debounce
			if due {
				w.pending = time.Time{}
			}
			w.mu.Unlock()
			if due {
				w.reload()
			}
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.logger.Warn().Err(err).Str("path", w.path).Msg("ignoring config change")
		return
	}
	w.logger.Info().Str("path", w.path).Msg("config reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
