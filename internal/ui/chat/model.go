// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	core "github.com/deepcognitive/deepcog-tui/internal/chat"
	"github.com/deepcognitive/deepcog-tui/internal/config"
	"github.com/deepcognitive/deepcog-tui/internal/export"
	"github.com/deepcognitive/deepcog-tui/internal/service"
	"github.com/deepcognitive/deepcog-tui/internal/ui/components"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
	"github.com/deepcognitive/deepcog-tui/internal/util"
)

// Overlay identifiers echoed in picker and prompt messages.
const (
	pickerMode   = "mode"
	pickerAttach = "attach"
	promptAttach = "attach-path"
	promptServer = "server"
)

// Options wires the chat screen to the rest of the application.
type Options struct {
	// Session owns the conversation. Required.
	Session *core.Session
	// State reports the text stream state for the status bar.
	State func() service.State
	// SaveBackend persists a new text backend address and applies it.
	SaveBackend func(url string) error
	// ExportDir is where Ctrl+E writes transcripts; "" means the working
	// directory.
	ExportDir string
	// ExportFormat is the transcript format Ctrl+E writes.
	ExportFormat export.Format
	// ExportOptions tunes the transcript; nil uses export.DefaultOptions.
	ExportOptions *export.Options
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	theme *styles.Theme
	opts  Options

	width  int
	height int

	// Session feed
	updates     <-chan core.Update
	unsubscribe func()
	messages    []core.Message
	partial     string
	busy        bool
	mode        core.Mode

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	help     help.Model
	keys     KeyMap
	md       *markdown

	modePicker   *components.Picker
	attachPicker *components.Picker
	attachPrompt *components.Prompt
	serverPrompt *components.Prompt
	statusBar    *components.StatusBar
	attachKind   core.AttachmentKind

	showHelp bool
	notice   string
}

// New creates the chat screen.
func New(theme *styles.Theme, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.PromptStyle = theme.InputPrompt
	ti.Focus()

	vp := viewport.New(80, 20)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	modeLabels := make([]string, 0, len(core.Modes()))
	for _, m := range core.Modes() {
		modeLabels = append(modeLabels, m.String())
	}
	attachLabels := make([]string, 0, len(core.AttachmentKinds()))
	for _, k := range core.AttachmentKinds() {
		attachLabels = append(attachLabels, attachMenuLabel(k))
	}

	serverPrompt := components.NewPrompt(promptServer, "Change API IP Address",
		"http(s)://host:port or host:port", theme)
	serverPrompt.SetPlaceholder("192.168.1.10:8000")
	serverPrompt.Validate = validateServerURL

	attachPrompt := components.NewPrompt(promptAttach, "Attach file", "", theme)
	attachPrompt.Validate = func(v string) error {
		if v == "" {
			return errors.New("enter a file path")
		}
		return nil
	}

	keys := DefaultKeyMap()
	statusBar := components.NewStatusBar(theme)
	statusBar.SetHints(keys.ShortHelp()...)

	m := Model{
		theme:        theme,
		opts:         opts,
		viewport:     vp,
		input:        ti,
		spinner:      sp,
		help:         help.New(),
		keys:         keys,
		md:           newMarkdown(theme.IsDark),
		modePicker:   components.NewPicker(pickerMode, "Select AI", modeLabels, theme),
		attachPicker: components.NewPicker(pickerAttach, "Attach", attachLabels, theme),
		attachPrompt: attachPrompt,
		serverPrompt: serverPrompt,
		statusBar:    statusBar,
	}
	if opts.Session != nil {
		m.updates, m.unsubscribe = opts.Session.Subscribe()
		m.messages = opts.Session.Messages()
		m.mode = opts.Session.Mode()
		m.partial = opts.Session.Partial()
		m.busy = opts.Session.Busy()
	}
	m.statusBar.SetMode(m.mode.String())
	return m
}

func attachMenuLabel(k core.AttachmentKind) string {
	switch k {
	case core.AttachImage:
		return "Image"
	case core.AttachPhoto:
		return "Photo"
	case core.AttachText:
		return "Text file"
	case core.AttachJSON:
		return "JSON file"
	case core.AttachPDF:
		return "PDF file"
	case core.AttachAudio:
		return "Audio file"
	}
	return k.String()
}

func validateServerURL(v string) error {
	if v == "" {
		return errors.New("address is required")
	}
	if err := config.ValidateEndpoint(v); err != nil {
		return err
	}
	return nil
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts the cursor blink and the session feed.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if m.updates != nil {
		cmds = append(cmds, waitForUpdate(m.updates))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case SessionUpdateMsg:
		m.syncSession()
		m.refresh()
		return m, waitForUpdate(m.updates)

	case SessionClosedMsg:
		m.updates = nil
		return m, nil

	case SubmitDoneMsg:
		if errors.Is(msg.Err, core.ErrStreamInProgress) {
			m.notice = "Still receiving the previous reply"
		}
		return m, nil

	case components.PickedMsg:
		return m.handlePicked(msg)

	case components.PromptSubmittedMsg:
		return m.handlePromptSubmitted(msg)

	case BackendSavedMsg:
		if msg.Err != nil {
			m.notice = styles.RenderError(msg.Err.Error())
		} else {
			m.notice = styles.RenderSuccess("Server set to " + msg.URL)
		}
		return m, nil

	case ExportDoneMsg:
		if msg.Err != nil {
			m.notice = styles.RenderError("export failed: " + msg.Err.Error())
		} else {
			m.notice = styles.RenderSuccess("Saved " + msg.Path)
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy {
			m.refresh()
		}
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// View renders the chat screen.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// STATE
// =============================================================================

// SetSize resizes the screen.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.theme.SetSize(width, height)

	inputHeight := 3
	statusHeight := 1
	vpHeight := height - inputHeight - statusHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Width = width
	m.viewport.Height = vpHeight
	m.input.Width = width - 6
	m.statusBar.SetWidth(width)
	m.md.setWidth(m.theme.BubbleWidth() - 4)
	m.refresh()
}

// Overlaying reports whether a picker or dialog has focus.
func (m Model) Overlaying() bool {
	return m.modePicker.Visible() || m.attachPicker.Visible() ||
		m.attachPrompt.Visible() || m.serverPrompt.Visible()
}

// Close ends the session subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// syncSession copies the log, reply, busy flag and mode from the session.
func (m *Model) syncSession() {
	s := m.opts.Session
	if s == nil {
		return
	}
	// A full subscription buffer drops updates, so any update triggers a
	// full resync instead of trusting its payload.
	if n := s.MessageCount(); n != len(m.messages) {
		m.messages = s.Messages()
		m.notice = ""
	}
	m.partial = s.Partial()
	m.busy = s.Busy()
	if mode := s.Mode(); mode != m.mode {
		m.mode = mode
		m.statusBar.SetMode(mode.String())
	}
}

// refresh re-renders the log into the viewport, keeping the bottom pinned
// when it already was.
func (m *Model) refresh() {
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.renderLog())
	if atBottom {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.modePicker.Visible():
		m.modePicker, cmd = m.modePicker.Update(msg)
		return m, cmd
	case m.attachPicker.Visible():
		m.attachPicker, cmd = m.attachPicker.Update(msg)
		return m, cmd
	case m.attachPrompt.Visible():
		m.attachPrompt, cmd = m.attachPrompt.Update(msg)
		return m, cmd
	case m.serverPrompt.Visible():
		m.serverPrompt, cmd = m.serverPrompt.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.Mode):
		m.modePicker.Show(int(m.mode))
		return m, nil
	case key.Matches(msg, m.keys.Attach):
		m.attachPicker.Show(0)
		return m, nil
	case key.Matches(msg, m.keys.Settings):
		current := ""
		if m.opts.Session != nil {
			current = m.opts.Session.Endpoints().Text
		}
		return m, m.serverPrompt.Show(current)
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
		return m, nil
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if m.opts.Session == nil {
		return m, nil
	}
	m.input.Reset()
	session := m.opts.Session
	return m, func() tea.Msg {
		return SubmitDoneMsg{Err: session.Submit(context.Background(), text)}
	}
}

func (m Model) handlePicked(msg components.PickedMsg) (tea.Model, tea.Cmd) {
	switch msg.ID {
	case pickerMode:
		modes := core.Modes()
		if msg.Index >= 0 && msg.Index < len(modes) && m.opts.Session != nil {
			if err := m.opts.Session.SelectMode(modes[msg.Index]); err != nil {
				m.notice = styles.RenderError(err.Error())
			}
		}
		return m, nil
	case pickerAttach:
		kinds := core.AttachmentKinds()
		if msg.Index < 0 || msg.Index >= len(kinds) {
			return m, nil
		}
		m.attachKind = kinds[msg.Index]
		m.attachPrompt.SetTitle("Attach " + attachMenuLabel(m.attachKind))
		return m, m.attachPrompt.Show("")
	}
	return m, nil
}

func (m Model) handlePromptSubmitted(msg components.PromptSubmittedMsg) (tea.Model, tea.Cmd) {
	switch msg.ID {
	case promptAttach:
		if m.opts.Session == nil {
			return m, nil
		}
		if _, err := m.opts.Session.Attach(m.attachKind, util.ExpandHome(msg.Value)); err != nil {
			m.notice = styles.RenderError(err.Error())
		}
		return m, nil
	case promptServer:
		save := m.opts.SaveBackend
		if save == nil {
			return m, nil
		}
		url := msg.Value
		return m, func() tea.Msg {
			return BackendSavedMsg{URL: url, Err: save(url)}
		}
	}
	return m, nil
}

func (m Model) exportCmd() tea.Cmd {
	session := m.opts.Session
	if session == nil {
		return nil
	}
	dir, format, opts := m.opts.ExportDir, m.opts.ExportFormat, m.opts.ExportOptions
	return func() tea.Msg {
		path, err := export.ToDir(export.FromSession(session, time.Now()), dir, format, opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

// overlay returns the visible picker or dialog, if any.
func (m Model) overlay() string {
	for _, v := range []string{
		m.modePicker.View(),
		m.attachPicker.View(),
		m.attachPrompt.View(),
		m.serverPrompt.View(),
	} {
		if v != "" {
			return v
		}
	}
	return ""
}

// centered places content in the middle of the screen.
func (m Model) centered(content string) string {
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, content)
}
