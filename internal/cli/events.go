// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/deepcognitive/deepcog-tui/internal/config"
	"github.com/deepcognitive/deepcog-tui/internal/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/storage"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
	"github.com/deepcognitive/deepcog-tui/internal/util"
)

var tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Primary)

// eventColumns are the printed widths of Time, Date, Question, Agents and
// Resources.
var eventColumns = [...]int{9, 11, 40, 26, 20}

func newEventsCommand(g *globalOptions) *cobra.Command {
	var (
		sortBy string
		desc   bool
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recorded questions",
		Long: `List the questions recorded by the chat, the same history the dashboard shows.
Sort keys: time, date, question, agents, resources (resources sorts by RAM).`,
		Example: `  $ deepcog events
  $ deepcog events --sort ram --desc --limit 10`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sortCfg := dashboard.DefaultSortConfig()
			if sortBy != "" {
				key, err := parseEventSort(sortBy)
				if err != nil {
					return usageErrorf("%v", err)
				}
				sortCfg = dashboard.SortConfig{Key: key, Ascending: true}
			}
			if desc {
				sortCfg.Ascending = false
			}

			cfg, _, err := loadConfig(g.configPath)
			if err != nil {
				return err
			}
			events, err := loadEvents(cmd.Context(), cfg, limit)
			if err != nil {
				return commandError("events", "list", err)
			}
			events = dashboard.Sort(events, sortCfg)

			if asJSON {
				return writeEventsJSON(cmd.OutOrStdout(), events)
			}
			writeEventTable(cmd.OutOrStdout(), events, sortCfg)
			return nil
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort column (time, date, question, agents, resources or ram)")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of events to load (0 = storage.history_limit)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

// parseEventSort accepts the column names plus "ram" for resources.
func parseEventSort(s string) (dashboard.SortKey, error) {
	if strings.EqualFold(strings.TrimSpace(s), "ram") {
		return dashboard.SortResources, nil
	}
	return dashboard.ParseSortKey(s)
}

func loadEvents(ctx context.Context, cfg *config.Config, limit int) ([]dashboard.Event, error) {
	path, err := cfg.StoragePath()
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	if cfg.Storage.SeedSamples {
		if _, err := store.SeedIfEmpty(ctx, dashboard.SampleEvents()); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = cfg.Storage.HistoryLimit
	}
	return store.List(ctx, limit)
}

func writeEventTable(out io.Writer, events []dashboard.Event, cfg dashboard.SortConfig) {
	if len(events) == 0 {
		fmt.Fprintln(out, "No events recorded yet.")
		return
	}

	var header strings.Builder
	for i, key := range dashboard.SortKeys() {
		title := key.Title()
		if key == cfg.Key {
			if cfg.Ascending {
				title += " ▲"
			} else {
				title += " ▼"
			}
		}
		header.WriteString(util.PadRight(title, eventColumns[i]))
		header.WriteString(" ")
	}
	fmt.Fprintln(out, tableHeaderStyle.Render(strings.TrimRight(header.String(), " ")))

	for _, e := range events {
		cells := []string{e.Time, e.Date, e.Question, strings.Join(e.AgentLabels(), ", "), e.Resources}
		var row strings.Builder
		for i, cell := range cells {
			row.WriteString(util.PadRight(cell, eventColumns[i]))
			row.WriteString(" ")
		}
		fmt.Fprintln(out, strings.TrimRight(row.String(), " "))
	}
}

// eventJSON is the printed form of an event, with agent labels.
type eventJSON struct {
	Time      string   `json:"time"`
	Date      string   `json:"date"`
	Question  string   `json:"question"`
	Agents    []string `json:"agents"`
	Resources string   `json:"resources"`
}

func writeEventsJSON(out io.Writer, events []dashboard.Event) error {
	rows := make([]eventJSON, len(events))
	for i, e := range events {
		rows[i] = eventJSON{
			Time:      e.Time,
			Date:      e.Date,
			Question:  e.Question,
			Agents:    e.AgentLabels(),
			Resources: e.Resources,
		}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
