// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the zerolog logger shared by deepcog.
//
// The TUI owns the terminal, so logs go to a file by default. Line-mode
// commands can ask for human-readable output on stderr instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls where log lines go.
type Options struct {
	// Level is a zerolog level name; empty means "info".
	Level string
	// File receives JSON lines when Console is false.
	File string
	// Console writes human-readable lines to Stderr instead of File.
	Console bool
	// Stderr overrides os.Stderr for Console output.
	Stderr io.Writer
}

// ParseLevel maps a config level name to a zerolog level.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return lvl, nil
}

// Setup builds a logger from opts. The returned close function flushes and
// closes the log file; it is safe to call when nothing was opened.
func Setup(opts Options) (zerolog.Logger, func() error, error) {
	noop := func() error { return nil }

	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), noop, err
	}
	if lvl == zerolog.Disabled {
		return zerolog.Nop(), noop, nil
	}

	if opts.Console {
		out := opts.Stderr
		if out == nil {
			out = os.Stderr
		}
		w := zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
		return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), noop, nil
	}

	if opts.File == "" {
		return zerolog.Nop(), noop, fmt.Errorf("no log file configured")
	}
	if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
		return zerolog.Nop(), noop, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return zerolog.Nop(), noop, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := zerolog.New(f).Level(lvl).With().Timestamp().Str("pid", fmt.Sprint(os.Getpid())).Logger()
	return logger, f.Close, nil
}

// Component returns a child logger tagged with a component name.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
