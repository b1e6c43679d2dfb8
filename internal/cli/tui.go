// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/deepcognitive/deepcog-tui/internal/ui"
	uichat "github.com/deepcognitive/deepcog-tui/internal/ui/chat"
	uidash "github.com/deepcognitive/deepcog-tui/internal/ui/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
)

// runTUI starts the full-screen interface and blocks until it exits.
func runTUI(ctx context.Context, g *globalOptions) error {
	rt, err := g.runtime(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := rt.CurrentConfig()
	theme := styles.NewTheme(cfg.UI.Theme)

	// A failed connect leaves the stream closed; the status bar shows it and
	// the settings dialog can fix the address.
	if err := startSession(ctx, rt); err != nil {
		rt.Logger.Warn().Err(err).Msg("initial connect failed")
	}
	rt.Sampler.Sample()

	chatModel := uichat.New(theme, uichat.Options{
		Session:       rt.Session,
		State:         rt.Service.State,
		SaveBackend:   rt.SaveBackend,
		ExportFormat:  exportFormat(cfg.UI.ExportFormat),
		ExportOptions: exportOptions(cfg.UI.Theme),
	})
	dashModel := uidash.New(theme, rt.LoadEvents, rt.Sampler)

	p := tea.NewProgram(ui.NewApp(theme, chatModel, dashModel), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
