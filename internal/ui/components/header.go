// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
)

// Brand is the title shown in the header.
const Brand = "DeepCognitive"

// Header renders the title and the screen tabs.
type Header struct {
	theme  *styles.Theme
	width  int
	tabs   []string
	active int
}

// NewHeader creates a header with the given tab labels.
func NewHeader(theme *styles.Theme, tabs ...string) *Header {
	return &Header{theme: theme, tabs: tabs}
}

// SetWidth sets the render width.
func (h *Header) SetWidth(width int) { h.width = width }

// SetActive highlights tab i.
func (h *Header) SetActive(i int) {
	if i >= 0 && i < len(h.tabs) {
		h.active = i
	}
}

// Active returns the highlighted tab.
func (h *Header) Active() int { return h.active }

// View renders the header line.
func (h *Header) View() string {
	title := styles.GradientText(Brand, true, styles.GradientIndigo, styles.GradientBlue, styles.GradientSky)

	tabs := make([]string, len(h.tabs))
	for i, t := range h.tabs {
		if i == h.active {
			tabs[i] = h.theme.TabActive.Render(t)
		} else {
			tabs[i] = h.theme.Tab.Render(t)
		}
	}
	right := strings.Join(tabs, " ")

	gap := h.width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	line := title + strings.Repeat(" ", gap) + right
	return h.theme.Header.Width(max(h.width, 0)).Render(line)
}
