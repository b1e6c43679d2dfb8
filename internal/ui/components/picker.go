// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the deepcog TUI.
package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
)

// =============================================================================
// PICKER
// =============================================================================

// PickedMsg is emitted when the user confirms a picker item.
type PickedMsg struct {
	ID    string
	Index int
	Label string
}

// Picker is an overlay list with a single selection, used for the mode
// menu and the attachment menu.
type Picker struct {
	id       string
	title    string
	items    []string
	selected int
	visible  bool
	theme    *styles.Theme
	keys     pickerKeys
}

type pickerKeys struct {
	Up      key.Binding
	Down    key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

// NewPicker creates a hidden picker. id is echoed in PickedMsg so one parent
// can host several pickers.
func NewPicker(id, title string, items []string, theme *styles.Theme) *Picker {
	return &Picker{
		id:    id,
		title: title,
		items: items,
		theme: theme,
		keys: pickerKeys{
			Up:      key.NewBinding(key.WithKeys("up", "k", "shift+tab")),
			Down:    key.NewBinding(key.WithKeys("down", "j", "tab")),
			Confirm: key.NewBinding(key.WithKeys("enter")),
			Cancel:  key.NewBinding(key.WithKeys("esc", "q")),
		},
	}
}

// Show makes the picker visible with the given item selected.
func (p *Picker) Show(selected int) {
	if selected < 0 || selected >= len(p.items) {
		selected = 0
	}
	p.selected = selected
	p.visible = true
}

// Hide closes the picker.
func (p *Picker) Hide() { p.visible = false }

// Visible reports whether the picker is open.
func (p *Picker) Visible() bool { return p.visible }

// Selected returns the highlighted index.
func (p *Picker) Selected() int { return p.selected }

// Update handles key presses while visible.
func (p *Picker) Update(msg tea.Msg) (*Picker, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}

	switch {
	case key.Matches(keyMsg, p.keys.Cancel):
		p.Hide()
	case key.Matches(keyMsg, p.keys.Up):
		p.selected = (p.selected - 1 + len(p.items)) % len(p.items)
	case key.Matches(keyMsg, p.keys.Down):
		p.selected = (p.selected + 1) % len(p.items)
	case key.Matches(keyMsg, p.keys.Confirm):
		p.Hide()
		picked := PickedMsg{ID: p.id, Index: p.selected, Label: p.items[p.selected]}
		return p, func() tea.Msg { return picked }
	}
	return p, nil
}

// View renders the overlay, or "" when hidden.
func (p *Picker) View() string {
	if !p.visible {
		return ""
	}
	var b strings.Builder
	b.WriteString(p.theme.OverlayTitle.Render(p.title))
	b.WriteString("\n")
	for i, item := range p.items {
		if i == p.selected {
			b.WriteString(p.theme.OverlaySelected.Render("> " + item))
		} else {
			b.WriteString(p.theme.OverlayItem.Render("  " + item))
		}
		b.WriteString("\n")
	}
	b.WriteString(p.theme.OverlayHint.Render("enter select  esc close"))
	return p.theme.OverlayBox.Render(b.String())
}
