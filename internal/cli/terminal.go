// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40
)

// GetTerminalWidth returns the current terminal width, or
// DefaultTerminalWidth when it cannot be determined.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// ColorEnabled reports whether ANSI colors should be written to stdout.
// NO_COLOR disables them, as does a non-terminal stdout.
func ColorEnabled() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return IsStdoutTTY() && termenv.ColorProfile() != termenv.Ascii
}

// renderTo reports whether Markdown should be rendered for w: only the real
// stdout of a color terminal qualifies.
func renderTo(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && f == os.Stdout && ColorEnabled()
}

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders markdown for terminal display. It returns the
// original content when rendering is unavailable or fails.
func renderMarkdown(content string, width int) string {
	if width <= 0 {
		width = DefaultTerminalWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n") + "\n"
}

// displayResponse formats a reply for stdout. Markdown is rendered only when
// render is set, so piped output stays plain.
func displayResponse(response string, wordWrap int, render bool) string {
	if !render {
		if strings.HasSuffix(response, "\n") {
			return response
		}
		return response + "\n"
	}
	width := GetTerminalWidth()
	if wordWrap > 0 && wordWrap < width {
		width = wordWrap
	}
	return renderMarkdown(response, width)
}
