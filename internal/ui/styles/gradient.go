// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

// Blend returns n colors evenly spaced along the stops, interpolated in
// the Lab color space. Unparseable stops are treated as black.
func Blend(n int, stops ...string) []lipgloss.Color {
	if n <= 0 || len(stops) == 0 {
		return nil
	}
	parsed := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			c = colorful.Color{}
		}
		parsed[i] = c
	}
	if len(parsed) == 1 || n == 1 {
		out := make([]lipgloss.Color, n)
		for i := range out {
			out[i] = lipgloss.Color(parsed[0].Hex())
		}
		return out
	}

	out := make([]lipgloss.Color, n)
	segments := float64(len(parsed) - 1)
	for i := 0; i < n; i++ {
		pos := float64(i) / float64(n-1) * segments
		seg := int(pos)
		if seg >= len(parsed)-1 {
			seg = len(parsed) - 2
		}
		t := pos - float64(seg)
		switch {
		case t <= 0:
			out[i] = lipgloss.Color(parsed[seg].Hex())
		case t >= 1:
			out[i] = lipgloss.Color(parsed[seg+1].Hex())
		default:
			out[i] = lipgloss.Color(parsed[seg].BlendLab(parsed[seg+1], t).Clamped().Hex())
		}
	}
	return out
}

// GradientText colors each rune of s along the stops.
func GradientText(s string, bold bool, stops ...string) string {
	runes := []rune(s)
	colors := Blend(len(runes), stops...)
	var b strings.Builder
	for i, r := range runes {
		b.WriteString(lipgloss.NewStyle().Foreground(colors[i]).Bold(bold).Render(string(r)))
	}
	return b.String()
}

// ShadeRows paints each line with a background stepping through the stops
// from the first line to the last, padding lines to width.
func ShadeRows(lines []string, width int, stops ...string) []string {
	colors := Blend(len(lines), stops...)
	out := make([]string, len(lines))
	for i, line := range lines {
		if pad := width - lipgloss.Width(line); pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		out[i] = lipgloss.NewStyle().Background(colors[i]).Render(line)
	}
	return out
}

// Bar renders a fixed-width meter filled to percent (0-100).
func Bar(width int, percent float64, fill lipgloss.TerminalColor) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	full := int(float64(width) * percent / 100)
	filled := lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("█", full))
	empty := lipgloss.NewStyle().Foreground(Overlay).Render(strings.Repeat("░", width-full))
	return filled + empty
}

// Chip renders a short colored label such as an agent tag.
func Chip(label string, bg lipgloss.TerminalColor) string {
	if runewidth.StringWidth(label) == 0 {
		return ""
	}
	return lipgloss.NewStyle().
		Background(bg).
		Foreground(lipgloss.Color("#FFFFFF")).
		Bold(true).
		Padding(0, 1).
		Render(label)
}
