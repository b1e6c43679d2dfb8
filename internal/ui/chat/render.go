// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdown renders assistant replies with glamour, caching per message and
// rebuilding the renderer when the wrap width changes.
type markdown struct {
	width    int
	style    string
	renderer *glamour.TermRenderer
	cache    map[string]string
}

func newMarkdown(dark bool) *markdown {
	style := "light"
	if dark {
		style = "dark"
	}
	return &markdown{style: style, cache: make(map[string]string)}
}

func (md *markdown) setWidth(width int) {
	if width == md.width {
		return
	}
	md.width = width
	md.renderer = nil
	md.cache = make(map[string]string)
}

// render returns the rendered text. id may be empty for uncached content
// such as the in-progress reply. Failures fall back to the raw text.
func (md *markdown) render(id, text string) string {
	if id != "" {
		if out, ok := md.cache[id]; ok {
			return out
		}
	}
	if md.renderer == nil && md.width > 0 {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(md.style),
			glamour.WithWordWrap(md.width),
		)
		if err == nil {
			md.renderer = r
		}
	}
	if md.renderer == nil {
		return text
	}

	out, err := md.renderer.Render(text)
	if err != nil {
		return text
	}
	out = strings.Trim(out, "\n")
	if id != "" {
		md.cache[id] = out
	}
	return out
}
