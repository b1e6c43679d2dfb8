// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	core "github.com/deepcognitive/deepcog-tui/internal/chat"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// SessionUpdateMsg carries one session change into the update loop.
type SessionUpdateMsg struct {
	Update core.Update
}

// SessionClosedMsg is sent once the session's update channel closes.
type SessionClosedMsg struct{}

// SubmitDoneMsg reports the outcome of a submission.
type SubmitDoneMsg struct {
	Err error
}

// BackendSavedMsg reports the outcome of a backend address change.
type BackendSavedMsg struct {
	URL string
	Err error
}

// ExportDoneMsg reports where the transcript was written.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// waitForUpdate blocks on the session channel and delivers the next update.
func waitForUpdate(ch <-chan core.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return SessionClosedMsg{}
		}
		return SessionUpdateMsg{Update: u}
	}
}
