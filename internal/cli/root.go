// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Version information, set by main from build flags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	verbose    bool
	stderr     io.Writer
}

// runtime builds the shared collaborators. Full-screen commands never log
// to the console and watch the config file for changes.
func (g *globalOptions) runtime(ctx context.Context, fullscreen bool) (*Runtime, error) {
	return newRuntime(ctx, g.configPath, runtimeOptions{
		Console:  g.verbose && !fullscreen,
		LogLevel: g.logLevel,
		Watch:    fullscreen,
		Stderr:   g.stderr,
	})
}

// NewRootCommand builds the deepcog command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:     "deepcog",
		Short:   "DeepCognitive terminal client",
		Version: Version,
		Long: `A terminal client for the DeepCognitive backends. Chat with the streaming
text models, generate images, and review past questions on the dashboard.`,
		Example: `  # Start the full-screen interface
  $ deepcog

  # Ask one question and print the answer
  $ deepcog ask "What is a transformer?"

  # Point the client at a backend
  $ deepcog config set backends.text_url http://10.0.0.5:8000

  # Show the most RAM-hungry questions first
  $ deepcog events --sort ram --desc`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), g)
		},
	}
	root.SetVersionTemplate(formatVersion())
	root.CompletionOptions.DisableDefaultCmd = true
	root.SilenceErrors = true

	flags := root.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "config file (default ~/.deepcog/config.toml)")
	flags.StringVar(&g.logLevel, "log-level", "", "log level (trace, debug, info, warn, error, disabled)")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log to stderr instead of the log file")

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		g.stderr = cmd.ErrOrStderr()
	}

	root.AddCommand(
		newChatCommand(g),
		newAskCommand(g),
		newImageCommand(g),
		newConfigCommand(g),
		newEventsCommand(g),
		newMetricsCommand(g),
	)

	root.SetUsageTemplate(usageTemplate())
	root.SetHelpTemplate(usageTemplate())
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Error:"), err)
		return ExitCode(err)
	}
	return ExitSuccess
}

var headingStyle = lipgloss.NewStyle().Bold(true)

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + headingStyle.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + headingStyle.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + headingStyle.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + headingStyle.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}` + headingStyle.Render("GLOBAL OPTIONS") + `
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}

func formatVersion() string {
	return fmt.Sprintf("deepcog version %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
}
