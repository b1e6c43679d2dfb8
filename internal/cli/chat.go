// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/deepcognitive/deepcog-tui/internal/chat"
	"github.com/deepcognitive/deepcog-tui/internal/config"
	"github.com/deepcognitive/deepcog-tui/internal/export"
	"github.com/deepcognitive/deepcog-tui/internal/service"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
	"github.com/deepcognitive/deepcog-tui/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle  = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(styles.TextMuted)
	commandStyle = lipgloss.NewStyle().Foreground(styles.Secondary)
	errorStyle   = lipgloss.NewStyle().Foreground(styles.Error).Bold(true)
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// lineReader reads one line of input.
type lineReader interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// LineEditor provides input history and line editing for the REPL.
type LineEditor struct {
	line        *liner.State
	historyFile string
}

// NewLineEditor creates a LineEditor and loads the saved history.
func NewLineEditor() *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}
	e := &LineEditor{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	if f, err := os.Open(e.historyFile); err == nil {
		e.line.ReadHistory(f)
		f.Close()
	}
	return e
}

// ReadInput reads a line of input with the given prompt.
func (e *LineEditor) ReadInput(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (e *LineEditor) Close() {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			e.line.WriteHistory(f)
			f.Close()
		}
	}
	e.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// repl drives a chat session from line input.
type repl struct {
	session     *chat.Session
	state       func() service.State
	saveBackend func(url string) error
	out         io.Writer
	errOut      io.Writer
	wordWrap    int
	markdown    bool
	exportDir   string

	exportFormat  export.Format
	exportOptions *export.Options

	updates <-chan chat.Update
	delta   *deltaWriter
	x       *exchange
}

func newREPL(session *chat.Session, out, errOut io.Writer) *repl {
	updates, _ := session.Subscribe()
	r := &repl{
		session: session,
		out:     out,
		errOut:  errOut,
		updates: updates,
		delta:   &deltaWriter{out: out},
	}
	r.x = &exchange{session: session, updates: updates, onPartial: r.delta.write}
	return r
}

// run reads lines until /quit, EOF or Ctrl+C.
func (r *repl) run(ctx context.Context, in lineReader) error {
	fmt.Fprintf(r.out, "%s %s\n", promptStyle.Render("deepcog"),
		infoStyle.Render("Mode: "+r.session.Mode().String()+"  (type /help for commands)"))

	for {
		line, err := in.ReadInput(r.session.Mode().Key() + "> ")
		if err != nil {
			// Ctrl+C, Ctrl+D or a closed input all end the session.
			fmt.Fprintln(r.out)
			return nil
		}
		more, err := r.handleLine(ctx, line)
		if err != nil {
			fmt.Fprintf(r.errOut, "%s %v\n", errorStyle.Render("[Error]"), err)
		}
		if !more {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// handleLine processes one input line and reports whether to keep reading.
func (r *repl) handleLine(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return true, nil
	}
	if strings.HasPrefix(line, "/") {
		return r.handleCommand(ctx, line)
	}

	reply, err := r.x.run(ctx, line)
	if reply.ID == "" {
		r.delta.reset()
		return true, err
	}
	if !r.delta.finish(reply.Text) {
		fmt.Fprint(r.out, formatReply(reply, r.wordWrap, r.markdown))
	}
	// A failed submit already put its error in the reply.
	return true, nil
}

func (r *repl) handleCommand(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/quit", "/q", "/exit":
		return false, nil
	case "/help", "/h":
		r.printHelp()
	case "/mode", "/m":
		return true, r.modeCommand(args)
	case "/attach", "/a":
		return true, r.attachCommand(args)
	case "/server":
		return true, r.serverCommand(args)
	case "/export":
		return true, r.exportCommand(args)
	case "/status", "/s":
		r.printStatus()
	default:
		return true, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return true, nil
}

func (r *repl) modeCommand(args []string) error {
	if len(args) == 0 {
		current := r.session.Mode()
		for _, m := range r.session.Modes() {
			marker := "  "
			if m == current {
				marker = promptStyle.Render("▸ ")
			}
			fmt.Fprintf(r.out, "%s%-8s %s\n", marker, m.Key(), infoStyle.Render(m.String()))
		}
		return nil
	}
	mode, err := chat.ParseMode(strings.Join(args, " "))
	if err != nil {
		return err
	}
	if err := r.session.SelectMode(mode); err != nil {
		return err
	}
	fmt.Fprintln(r.out, infoStyle.Render("Mode: "+mode.String()))
	return nil
}

// attachCommand accepts "/attach <path>" or "/attach <kind> <path>".
func (r *repl) attachCommand(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: /attach [kind] <path>")
	}

	var (
		kind chat.AttachmentKind
		path string
	)
	if len(args) > 1 {
		k, err := chat.ParseAttachmentKind(args[0])
		if err == nil {
			kind, path = k, strings.Join(args[1:], " ")
		}
	}
	if path == "" {
		path = strings.Join(args, " ")
		k, ok := chat.GuessAttachmentKind(path)
		if !ok {
			return fmt.Errorf("cannot tell the kind of %s; use /attach <kind> <path>", path)
		}
		kind = k
	}

	msg, err := r.session.Attach(kind, util.ExpandHome(path))
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, infoStyle.Render(msg.Text))
	return nil
}

func (r *repl) serverCommand(args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(r.out, "Text backend: "+displayEndpoint(r.session.Endpoints().Text))
		return nil
	}
	if r.saveBackend == nil {
		return errors.New("changing the backend is not available")
	}
	if err := r.saveBackend(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(r.out, infoStyle.Render("Text backend set to "+args[0]))
	return nil
}

func (r *repl) exportCommand(args []string) error {
	now := time.Now()
	path := filepath.Join(r.exportDir, export.FileName(r.exportFormat, now))
	if len(args) > 0 {
		path = util.ExpandHome(strings.Join(args, " "))
	}
	if err := export.WriteFile(export.FromSession(r.session, now), path, r.exportOptions); err != nil {
		return err
	}
	fmt.Fprintln(r.out, infoStyle.Render("Exported to "+path))
	return nil
}

func (r *repl) printStatus() {
	state := service.StateUnconnected
	if r.state != nil {
		state = r.state()
	}
	fmt.Fprintf(r.out, "Mode:     %s\n", r.session.Mode())
	fmt.Fprintf(r.out, "Stream:   %s\n", state)
	fmt.Fprintf(r.out, "Backend:  %s\n", displayEndpoint(r.session.Endpoints().Text))
	fmt.Fprintf(r.out, "Messages: %d\n", len(r.session.Messages()))
}

func (r *repl) printHelp() {
	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/mode [name]", "Show or switch mode (top, bottom, image, ocr, search)"},
		{"/attach [kind] <path>", "Attach a file (image, photo, text, json, pdf, audio)"},
		{"/server [url]", "Show or change the text backend"},
		{"/export [file]", "Save the conversation (.md, .json or .html)"},
		{"/status, /s", "Show session status"},
		{"/quit, /q", "Exit chat"},
	}
	fmt.Fprintln(r.out)
	for _, c := range commands {
		fmt.Fprintf(r.out, "  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-22s", c.cmd)),
			infoStyle.Render(c.desc))
	}
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, infoStyle.Render("Tip: Ctrl+C or Ctrl+D exits"))
}

func displayEndpoint(url string) string {
	if url == "" {
		return "(not configured)"
	}
	return url
}

// =============================================================================
// COMMAND
// =============================================================================

func newChatCommand(g *globalOptions) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in a line-oriented REPL",
		Long: `Start an interactive chat without the full-screen interface.
Input history is kept in the config directory.`,
		Example: `  $ deepcog chat
  $ deepcog chat --mode bottom`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := g.runtime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := selectMode(rt.Session, mode); err != nil {
				return err
			}
			if err := connectSession(ctx, rt); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", errorStyle.Render("[Warning]"), err)
			}

			r := newREPL(rt.Session, cmd.OutOrStdout(), cmd.ErrOrStderr())
			r.state = rt.Service.State
			r.saveBackend = rt.SaveBackend
			cfg := rt.CurrentConfig()
			r.wordWrap = cfg.UI.WordWrap
			r.exportFormat = exportFormat(cfg.UI.ExportFormat)
			r.exportOptions = exportOptions(cfg.UI.Theme)
			r.markdown = renderTo(cmd.OutOrStdout())

			editor := NewLineEditor()
			defer editor.Close()
			return r.run(ctx, editor)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "mode to start in (top, bottom, image, ocr, search)")
	return cmd
}

// selectMode switches to the named mode when one is given.
func selectMode(s *chat.Session, name string) error {
	if name == "" {
		return nil
	}
	mode, err := chat.ParseMode(name)
	if err != nil {
		return usageErrorf("%v", err)
	}
	return s.SelectMode(mode)
}

// startSession connects the text stream in the background. ctx must live as
// long as the session; the dialer bounds the handshake itself.
func startSession(ctx context.Context, rt *Runtime) error {
	return rt.Session.Start(ctx)
}

// connectSession starts the session and waits for the text stream to open.
// It returns at once when no text backend is configured.
func connectSession(ctx context.Context, rt *Runtime) error {
	if err := startSession(ctx, rt); err != nil {
		return err
	}
	if strings.TrimSpace(rt.Session.Endpoints().Text) == "" {
		return nil
	}
	timeout := rt.CurrentConfig().Stream.HandshakeTimeout() + time.Second
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return rt.Service.WaitOpen(waitCtx)
}

// exportFormat maps a validated config value to an export format.
func exportFormat(name string) export.Format {
	f, err := export.ParseFormat(name)
	if err != nil {
		return export.FormatMarkdown
	}
	return f
}

// exportOptions styles HTML transcripts like the terminal theme.
func exportOptions(theme string) *export.Options {
	opts := export.DefaultOptions()
	opts.Theme = theme
	return opts
}
