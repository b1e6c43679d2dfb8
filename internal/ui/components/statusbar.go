// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/deepcognitive/deepcog-tui/internal/service"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
)

// StatusBar shows the stream state, the selected mode and key hints.
type StatusBar struct {
	theme    *styles.Theme
	width    int
	state    service.State
	mode     string
	endpoint string
	notice   string
	hints    []key.Binding
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// SetWidth sets the render width.
func (s *StatusBar) SetWidth(width int) { s.width = width }

// SetState sets the text stream state.
func (s *StatusBar) SetState(state service.State) { s.state = state }

// SetMode sets the mode label.
func (s *StatusBar) SetMode(mode string) { s.mode = mode }

// SetEndpoint sets the text backend address.
func (s *StatusBar) SetEndpoint(endpoint string) { s.endpoint = endpoint }

// SetNotice shows a transient message in place of the endpoint.
func (s *StatusBar) SetNotice(notice string) { s.notice = notice }

// SetHints sets the key bindings advertised on the right.
func (s *StatusBar) SetHints(hints ...key.Binding) { s.hints = hints }

// View renders the bar.
func (s *StatusBar) View() string {
	var conn string
	if s.state == service.StateOpen {
		conn = s.theme.Connected.Render("● " + s.state.String())
	} else {
		conn = s.theme.Disconnected.Render("○ " + s.state.String())
	}

	left := []string{conn}
	if s.mode != "" {
		left = append(left, s.theme.ModeBadge.Render(s.mode))
	}
	switch {
	case s.notice != "":
		left = append(left, s.notice)
	case s.endpoint != "" && s.theme.GetLayoutMode() != styles.LayoutNarrow:
		left = append(left, s.theme.ShortcutDesc.Render(s.endpoint))
	}
	leftView := strings.Join(left, " ")

	var right []string
	if s.theme.GetLayoutMode() == styles.LayoutWide {
		for _, h := range s.hints {
			help := h.Help()
			if help.Key == "" {
				continue
			}
			right = append(right, s.theme.ShortcutKey.Render(help.Key)+" "+s.theme.ShortcutDesc.Render(help.Desc))
		}
	}
	rightView := strings.Join(right, "  ")

	gap := s.width - lipgloss.Width(leftView) - lipgloss.Width(rightView) - 2
	if gap < 1 {
		gap = 1
		rightView = ""
	}
	return s.theme.StatusBar.Width(max(s.width, 0)).Render(leftView + strings.Repeat(" ", gap) + rightView)
}
