// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui assembles the full-screen TUI: a header with tabs over the
// chat screen and the dashboard screen.
package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deepcognitive/deepcog-tui/internal/ui/chat"
	"github.com/deepcognitive/deepcog-tui/internal/ui/components"
	"github.com/deepcognitive/deepcog-tui/internal/ui/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
)

// Screen identifies a tab.
type Screen int

const (
	ScreenChat Screen = iota
	ScreenDashboard
)

var screenTitles = []string{"Chat", "Dashboard"}

// App is the root Bubble Tea model.
type App struct {
	theme     *styles.Theme
	header    *components.Header
	chat      chat.Model
	dashboard dashboard.Model
	screen    Screen

	switchKey key.Binding
	quitKey   key.Binding

	width  int
	height int
}

// NewApp creates the root model from its two screens.
func NewApp(theme *styles.Theme, chatModel chat.Model, dash dashboard.Model) App {
	return App{
		theme:     theme,
		header:    components.NewHeader(theme, screenTitles...),
		chat:      chatModel,
		dashboard: dash,
		switchKey: key.NewBinding(key.WithKeys("ctrl+t", "f2"), key.WithHelp("C-t", "switch screen")),
		quitKey:   key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")),
	}
}

// Screen returns the visible tab.
func (a App) Screen() Screen { return a.screen }

// Init starts both screens.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.chat.Init(), a.dashboard.Init())
}

// Update routes messages to the screens.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.header.SetWidth(msg.Width)
		body := msg.Height - 1
		a.chat.SetSize(msg.Width, body)
		a.dashboard.SetSize(msg.Width, body)
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.quitKey) {
			a.chat.Close()
			return a, tea.Quit
		}
		if key.Matches(msg, a.switchKey) && !a.chat.Overlaying() {
			return a.switchScreen()
		}
		return a.updateActive(msg)

	case dashboard.EventsLoadedMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.Update(msg)
		return a, cmd
	}

	// Everything else (session feed, spinner, ticks) goes to both screens.
	var cmds []tea.Cmd
	next, cmd := a.chat.Update(msg)
	a.chat = next.(chat.Model)
	cmds = append(cmds, cmd)
	a.dashboard, cmd = a.dashboard.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a App) switchScreen() (tea.Model, tea.Cmd) {
	if a.screen == ScreenChat {
		a.screen = ScreenDashboard
	} else {
		a.screen = ScreenChat
	}
	a.header.SetActive(int(a.screen))
	if a.screen == ScreenDashboard {
		return a, a.dashboard.Reload()
	}
	return a, nil
}

func (a App) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if a.screen == ScreenDashboard {
		a.dashboard, cmd = a.dashboard.Update(msg)
		return a, cmd
	}
	next, cmd := a.chat.Update(msg)
	a.chat = next.(chat.Model)
	return a, cmd
}

// View renders the header and the active screen.
func (a App) View() string {
	body := a.chat.View()
	if a.screen == ScreenDashboard {
		body = a.dashboard.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, a.header.View(), body)
}
