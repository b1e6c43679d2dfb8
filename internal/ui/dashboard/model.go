// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dashboard provides the dashboard screen of the TUI: the resource
// boxes and the sortable table of recorded events.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	core "github.com/deepcognitive/deepcog-tui/internal/dashboard"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
	"github.com/deepcognitive/deepcog-tui/internal/util"
)

// DefaultGaugeInterval is how often the resource boxes resample.
const DefaultGaugeInterval = 2 * time.Second

// Loader fetches the events to display.
type Loader func(ctx context.Context) ([]core.Event, error)

// EventsLoadedMsg delivers the result of a Loader call.
type EventsLoadedMsg struct {
	Events []core.Event
	Err    error
}

type gaugeTickMsg time.Time

// KeyMap defines the dashboard bindings.
type KeyMap struct {
	Left   key.Binding
	Right  key.Binding
	Toggle key.Binding
	Up     key.Binding
	Down   key.Binding
	Reload key.Binding
}

// DefaultKeyMap returns the default dashboard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Left:   key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/→", "column")),
		Right:  key.NewBinding(key.WithKeys("right", "l")),
		Toggle: key.NewBinding(key.WithKeys("enter", " ", "s"), key.WithHelp("enter", "sort")),
		Up:     key.NewBinding(key.WithKeys("up", "k")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↑/↓", "scroll")),
		Reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

// Model is the Bubble Tea model for the dashboard screen.
type Model struct {
	theme    *styles.Theme
	load     Loader
	sampler  *core.Sampler
	interval time.Duration
	keys     KeyMap

	width  int
	height int

	events []core.Event
	rows   []core.Event
	sort   core.SortConfig
	column core.SortKey
	offset int
	gauges core.Gauges
	err    error
}

// New creates the dashboard screen. sampler may be nil for static baselines.
func New(theme *styles.Theme, load Loader, sampler *core.Sampler) Model {
	m := Model{
		theme:    theme,
		load:     load,
		sampler:  sampler,
		interval: DefaultGaugeInterval,
		keys:     DefaultKeyMap(),
		sort:     core.DefaultSortConfig(),
		gauges:   core.BaselineGauges(),
	}
	m.column = m.sort.Key
	if sampler != nil {
		m.gauges = sampler.Last()
	}
	return m
}

// Init loads events and starts the gauge ticker.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.Reload()}
	if m.sampler != nil {
		cmds = append(cmds, m.tick())
	}
	return tea.Batch(cmds...)
}

// Reload returns a command that fetches events.
func (m Model) Reload() tea.Cmd {
	load := m.load
	if load == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		events, err := load(ctx)
		return EventsLoadedMsg{Events: events, Err: err}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return gaugeTickMsg(t) })
}

// SetSize resizes the screen.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.clampOffset()
}

// SortConfig returns the active sort.
func (m Model) SortConfig() core.SortConfig { return m.sort }

// Rows returns the events in display order.
func (m Model) Rows() []core.Event { return m.rows }

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case EventsLoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.events = msg.Events
			m.resort()
		}

	case gaugeTickMsg:
		if m.sampler != nil {
			m.gauges = m.sampler.Sample()
		}
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Left):
			m.column = (m.column - 1 + core.SortKey(len(core.SortKeys()))) % core.SortKey(len(core.SortKeys()))
		case key.Matches(msg, m.keys.Right):
			m.column = (m.column + 1) % core.SortKey(len(core.SortKeys()))
		case key.Matches(msg, m.keys.Toggle):
			m.sort = core.Toggle(m.sort, m.column)
			m.resort()
		case key.Matches(msg, m.keys.Up):
			m.offset--
			m.clampOffset()
		case key.Matches(msg, m.keys.Down):
			m.offset++
			m.clampOffset()
		case key.Matches(msg, m.keys.Reload):
			return m, m.Reload()
		default:
			if k := msg.String(); len(k) == 1 && k[0] >= '1' && k[0] <= '5' {
				m.column = core.SortKey(k[0] - '1')
				m.sort = core.Toggle(m.sort, m.column)
				m.resort()
			}
		}
	}
	return m, nil
}

func (m *Model) resort() {
	m.rows = core.Sort(m.events, m.sort)
	m.clampOffset()
}

func (m *Model) visibleRows() int {
	// resource boxes (4) + gap + header (2) + footer hint
	n := m.height - 8
	if n < 1 {
		n = 1
	}
	return n
}

func (m *Model) clampOffset() {
	maxOffset := len(m.rows) - m.visibleRows()
	if m.offset > maxOffset {
		m.offset = maxOffset
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the screen.
func (m Model) View() string {
	parts := []string{m.renderResources(), m.renderTable()}
	if m.err != nil {
		parts = append(parts, styles.RenderError(m.err.Error()))
	}
	parts = append(parts, m.renderHint())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderResources() string {
	boxWidth := (m.width - 6) / 3
	if boxWidth < 14 {
		boxWidth = 14
	}
	box := func(label, value string, percent float64, color lipgloss.TerminalColor) string {
		content := lipgloss.JoinVertical(lipgloss.Center,
			m.theme.ResourceLabel.Render(label),
			m.theme.ResourceValue.Render(value),
			styles.Bar(boxWidth-6, percent, color),
		)
		return m.theme.ResourceBox.Width(boxWidth).Render(content)
	}
	g := m.gauges
	return lipgloss.JoinHorizontal(lipgloss.Top,
		box("CPU", g.CPU(), float64(g.CPUPercent), styles.Primary),
		box("GPU", g.GPU(), float64(g.GPUGB)/float64(core.BaselineGPUGB*2)*100, styles.Tertiary),
		box("RAM", g.RAM(), float64(g.RAMPercent), styles.Secondary),
	)
}

// columnWidths splits the width across the five columns, giving the
// question column whatever is left.
func (m Model) columnWidths() []int {
	widths := []int{10, 12, 0, 28, 20}
	fixed := 0
	for _, w := range widths {
		fixed += w + 1
	}
	widths[2] = m.width - fixed
	if widths[2] < 16 {
		widths[2] = 16
	}
	return widths
}

func (m Model) renderTable() string {
	widths := m.columnWidths()

	headers := make([]string, 0, len(widths))
	for i, k := range core.SortKeys() {
		title := k.Title()
		if k == m.sort.Key {
			if m.sort.Ascending {
				title += " ▲"
			} else {
				title += " ▼"
			}
		}
		style := m.theme.TableHeader
		if k == m.column {
			style = m.theme.TableHeaderActive
		}
		headers = append(headers, style.Render(util.PadRight(title, widths[i])))
	}
	lines := []string{strings.Join(headers, " ")}

	if len(m.rows) == 0 {
		lines = append(lines, m.theme.ShortcutDesc.Render("No events recorded yet."))
		return strings.Join(lines, "\n")
	}

	end := m.offset + m.visibleRows()
	if end > len(m.rows) {
		end = len(m.rows)
	}
	for i := m.offset; i < end; i++ {
		e := m.rows[i]
		style := m.theme.TableRow
		if i%2 == 1 {
			style = m.theme.TableRowAlt
		}
		cells := []string{
			style.Render(util.PadRight(e.Time, widths[0])),
			style.Render(util.PadRight(e.Date, widths[1])),
			style.Render(util.PadRight(e.Question, widths[2])),
			renderAgents(e.Agents, widths[3]),
			style.Render(util.PadRight(e.Resources, widths[4])),
		}
		lines = append(lines, strings.Join(cells, " "))
	}
	return strings.Join(lines, "\n")
}

// renderAgents draws agent chips, dropping those that do not fit.
func renderAgents(agents []core.AgentType, width int) string {
	var b strings.Builder
	used := 0
	for _, a := range agents {
		chip := styles.Chip(a.Label(), styles.AgentColor(a))
		w := lipgloss.Width(chip)
		if used+w > width {
			break
		}
		b.WriteString(chip)
		used += w
		if used < width {
			b.WriteString(" ")
			used++
		}
	}
	if used < width {
		b.WriteString(strings.Repeat(" ", width-used))
	}
	return b.String()
}

func (m Model) renderHint() string {
	shown := len(m.rows)
	return m.theme.ShortcutDesc.Render(fmt.Sprintf(
		"%d events · sorted by %s %s · ←/→ column · enter sort · 1-5 quick sort · r reload",
		shown, m.sort.Key, direction(m.sort.Ascending)))
}

func direction(asc bool) string {
	if asc {
		return "asc"
	}
	return "desc"
}
