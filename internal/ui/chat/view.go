// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	core "github.com/deepcognitive/deepcog-tui/internal/chat"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
	"github.com/deepcognitive/deepcog-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

func (m Model) render() string {
	body := m.viewport.View()
	if ov := m.overlay(); ov != "" {
		body = m.centered(ov)
	} else if m.showHelp {
		body = m.centered(m.theme.OverlayBox.Render(m.help.FullHelpView(m.keys.FullHelp())))
	}

	if m.opts.State != nil {
		m.statusBar.SetState(m.opts.State())
	}
	if m.opts.Session != nil {
		m.statusBar.SetEndpoint(m.opts.Session.Endpoints().Text)
	}
	m.statusBar.SetNotice(m.notice)

	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		m.renderInput(),
		m.statusBar.View(),
	)
}

func (m Model) renderInput() string {
	w := m.width - 2
	if w < 10 {
		w = 10
	}
	return m.theme.InputContainer.Width(w).Render(m.input.View())
}

// renderLog renders every message plus the in-progress reply.
func (m Model) renderLog() string {
	if len(m.messages) == 0 && m.partial == "" && !m.busy {
		return m.renderEmpty()
	}

	blocks := make([]string, 0, len(m.messages)+1)
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg))
	}
	switch {
	case m.partial != "":
		bubble := m.theme.AssistantBubble.MaxWidth(m.theme.BubbleWidth()).
			Render(m.md.render("", m.partial) + " " + m.spinner.View())
		blocks = append(blocks, m.alignLeft(bubble))
	case m.busy:
		blocks = append(blocks, m.alignLeft(m.spinner.View()+" "+m.theme.ThinkingText.Render(m.mode.String()+" is thinking...")))
	}

	content := strings.Join(blocks, "\n")
	if !m.theme.HasTrueColor || m.width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	return strings.Join(styles.ShadeRows(lines, m.width, styles.ChatSand, styles.ChatOlive), "\n")
}

func (m Model) renderEmpty() string {
	title := styles.GradientText("How can I help you today?", true,
		styles.GradientIndigo, styles.GradientBlue, styles.GradientSky)
	hint := m.theme.ShortcutDesc.Render("Mode: " + m.mode.String() + "  ·  Ctrl+O to switch")
	block := lipgloss.JoinVertical(lipgloss.Center, title, hint)
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, block)
}

func (m Model) renderMessage(msg core.Message) string {
	maxWidth := m.theme.BubbleWidth()

	if msg.IsUser() {
		text := msg.Text
		if msg.Attach != nil {
			text = "📎 " + text
		}
		return m.alignRight(m.theme.UserBubble.MaxWidth(maxWidth).Render(wrap(text, maxWidth-4)))
	}

	if strings.HasPrefix(msg.Text, core.ErrorPrefix) {
		return m.alignLeft(m.theme.ErrorBubble.MaxWidth(maxWidth).Render(wrap(msg.Text, maxWidth-4)))
	}

	body := m.md.render(msg.ID, msg.Text)
	if msg.ImagePath != "" {
		body += "\n" + m.theme.ImageCaption.Render("🖼  "+util.TruncateWidth(msg.ImagePath, maxWidth-8))
	}
	return m.alignLeft(m.theme.AssistantBubble.MaxWidth(maxWidth).Render(body))
}

func (m Model) alignRight(s string) string {
	if m.width <= 0 {
		return s
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, s)
}

func (m Model) alignLeft(s string) string {
	if m.width <= 0 {
		return s
	}
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, s)
}

// wrap soft-wraps plain text to width columns.
func wrap(s string, width int) string {
	if width <= 0 {
		return s
	}
	return wordwrap.String(s, width)
}
