// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	core "github.com/deepcognitive/deepcog-tui/internal/chat"
	dash "github.com/deepcognitive/deepcog-tui/internal/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/service"
	"github.com/deepcognitive/deepcog-tui/internal/ui/chat"
	"github.com/deepcognitive/deepcog-tui/internal/ui/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
)

type nopBackend struct{}

func (nopBackend) GenerateImage(context.Context, string) (*service.GeneratedImage, error) {
	return nil, service.ErrEmptyResponse
}
func (nopBackend) SetImageURL(string) {}
func (nopBackend) Connect(context.Context, service.Endpoint, service.Listener) error {
	return nil
}
func (nopBackend) Send(context.Context, service.PromptRequest) error { return nil }
func (nopBackend) Disconnect()                                      {}
func (nopBackend) State() service.State                             { return service.StateUnconnected }

func newTestApp(t *testing.T) App {
	t.Helper()
	theme := styles.NewTheme(styles.ThemeDark)
	session := core.NewSession(core.SessionConfig{}, nopBackend{})
	t.Cleanup(session.Close)

	chatModel := chat.New(theme, chat.Options{Session: session, State: nopBackend{}.State})
	dashModel := dashboard.New(theme, func(ctx context.Context) ([]dash.Event, error) {
		return dash.SampleEvents(), nil
	}, nil)

	app := NewApp(theme, chatModel, dashModel)
	next, _ := app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(App)
}

func TestApp_SwitchScreens(t *testing.T) {
	app := newTestApp(t)
	assert.Equal(t, ScreenChat, app.Screen())
	assert.Contains(t, app.View(), "unconnected")

	next, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	app = next.(App)
	assert.Equal(t, ScreenDashboard, app.Screen())
	require.NotNil(t, cmd, "switching to the dashboard reloads events")

	next, _ = app.Update(cmd())
	app = next.(App)
	assert.Contains(t, app.View(), "Resources")
	assert.Contains(t, app.View(), "Date ▲")

	next, _ = app.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	assert.Equal(t, ScreenChat, next.(App).Screen())
}

func TestApp_KeysGoToActiveScreen(t *testing.T) {
	app := newTestApp(t)
	next, _ := app.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	app = next.(App)

	before := app.dashboard.SortConfig()
	next, _ = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = next.(App)
	assert.NotEqual(t, before.Ascending, app.dashboard.SortConfig().Ascending)
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	assert.True(t, ok)
}

func TestApp_HeaderShowsBrand(t *testing.T) {
	app := newTestApp(t)
	assert.Contains(t, app.View(), "Dashboard")
}
