// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
)

// =============================================================================
// PROMPT DIALOG
// =============================================================================

// PromptSubmittedMsg is emitted when the user confirms a prompt dialog.
type PromptSubmittedMsg struct {
	ID    string
	Value string
}

// Prompt is a one-line input dialog: the attachment path, the backend
// address.
type Prompt struct {
	id      string
	title   string
	hint    string
	input   textinput.Model
	visible bool
	err     string
	theme   *styles.Theme

	// Validate, when set, rejects a value by returning a message.
	Validate func(string) error
}

// NewPrompt creates a hidden prompt dialog.
func NewPrompt(id, title, hint string, theme *styles.Theme) *Prompt {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 1024
	ti.Width = 50
	ti.PromptStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)

	return &Prompt{id: id, title: title, hint: hint, input: ti, theme: theme}
}

// Show opens the dialog with an initial value.
func (p *Prompt) Show(value string) tea.Cmd {
	p.input.SetValue(value)
	p.input.CursorEnd()
	p.err = ""
	p.visible = true
	return p.input.Focus()
}

// SetTitle changes the dialog title.
func (p *Prompt) SetTitle(title string) { p.title = title }

// SetPlaceholder sets the empty-input hint.
func (p *Prompt) SetPlaceholder(s string) { p.input.Placeholder = s }

// Hide closes the dialog.
func (p *Prompt) Hide() {
	p.visible = false
	p.input.Blur()
}

// Visible reports whether the dialog is open.
func (p *Prompt) Visible() bool { return p.visible }

// Value returns the current text.
func (p *Prompt) Value() string { return p.input.Value() }

// Err returns the last validation message.
func (p *Prompt) Err() string { return p.err }

// Update handles input while visible.
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyEsc:
			p.Hide()
			return p, nil
		case tea.KeyEnter:
			value := strings.TrimSpace(p.input.Value())
			if p.Validate != nil {
				if err := p.Validate(value); err != nil {
					p.err = err.Error()
					return p, nil
				}
			}
			p.Hide()
			submitted := PromptSubmittedMsg{ID: p.id, Value: value}
			return p, func() tea.Msg { return submitted }
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

// View renders the dialog, or "" when hidden.
func (p *Prompt) View() string {
	if !p.visible {
		return ""
	}
	parts := []string{
		p.theme.OverlayTitle.Render(p.title),
		p.input.View(),
	}
	if p.err != "" {
		parts = append(parts, p.theme.ErrorText.Render(p.err))
	}
	hint := "enter confirm  esc cancel"
	if p.hint != "" {
		hint = p.hint + "\n" + hint
	}
	parts = append(parts, p.theme.OverlayHint.Render(hint))
	return p.theme.OverlayBox.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
