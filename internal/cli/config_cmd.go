// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/deepcognitive/deepcog-tui/internal/config"
	"github.com/deepcognitive/deepcog-tui/internal/ui/styles"
)

var (
	configKeyStyle     = lipgloss.NewStyle().Foreground(styles.Secondary)
	configSuccessStyle = lipgloss.NewStyle().Foreground(styles.Success).Bold(true)
)

func newConfigCommand(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Example: `  $ deepcog config show
  $ deepcog config get backends.text_url
  $ deepcog config set backends.text_url 10.0.0.5:8000
  $ deepcog config path`,
	}

	var asJSON bool
	show := &cobra.Command{
		Use:          "show",
		Short:        "Print the effective configuration",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(g.configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				fmt.Fprintln(out, cfg.String())
				return nil
			}
			return printConfig(out, cfg)
		},
	}
	show.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	get := &cobra.Command{
		Use:          "get <key>",
		Short:        "Print one setting",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(g.configPath)
			if err != nil {
				return err
			}
			value, err := cfg.Get(args[0])
			if err != nil {
				return usageErrorf("%v", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	set := &cobra.Command{
		Use:          "set <key> <value>",
		Short:        "Change one setting and save the file",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := g.resolveConfigPath()
			if err != nil {
				return err
			}
			if err := setConfigValue(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s = %s\n",
				configSuccessStyle.Render("[OK]"), args[0], args[1])
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := g.resolveConfigPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(show, get, set, path)
	return cmd
}

// resolveConfigPath returns --config or the default file location.
func (g *globalOptions) resolveConfigPath() (string, error) {
	if g.configPath != "" {
		return g.configPath, nil
	}
	return config.ConfigPathTOML()
}

// setConfigValue updates key in the file at path. Environment overrides are
// not applied so they never leak into the saved file.
func setConfigValue(path, key, value string) error {
	cfg := config.Default()
	if _, err := os.Stat(path); err == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return commandError("config", "load", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return commandError("config", "load", err)
	}

	if err := cfg.Set(key, value); err != nil {
		return usageErrorf("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return commandError("config", "save", err)
	}
	return commandError("config", "save", config.SaveTOML(cfg, path))
}

func printConfig(out io.Writer, cfg *config.Config) error {
	for _, key := range config.GetAllKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %v\n", configKeyStyle.Render(fmt.Sprintf("%-34s", key)), value)
	}
	return nil
}
