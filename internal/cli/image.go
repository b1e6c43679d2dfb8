// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepcognitive/deepcog-tui/internal/chat"
	"github.com/deepcognitive/deepcog-tui/internal/util"
)

func newImageCommand(g *globalOptions) *cobra.Command {
	var (
		output  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "image <prompt>",
		Short: "Generate an image and print where it was saved",
		Example: `  $ deepcog image "a lighthouse at dusk"
  $ deepcog image -o lighthouse.png "a lighthouse at dusk"`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.TrimSpace(strings.Join(args, " "))
			if prompt == "" {
				return usageErrorf("prompt is empty")
			}

			ctx := cmd.Context()
			rt, err := g.runtime(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Session.SelectMode(chat.ModeImage); err != nil {
				return err
			}
			rt.Service.SetImageURL(rt.CurrentConfig().Backends.ImageURL)

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			updates, unsubscribe := rt.Session.Subscribe()
			defer unsubscribe()
			x := &exchange{session: rt.Session, updates: updates}
			reply, err := x.run(ctx, prompt)
			if err != nil {
				return commandError("image", "generate", err)
			}
			if reply.ImagePath == "" {
				return commandError("image", "generate", errors.New(reply.Text))
			}

			path := reply.ImagePath
			if output != "" {
				path = util.ExpandHome(output)
				if err := copyFile(reply.ImagePath, path); err != nil {
					return commandError("image", "save", err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "copy the image to this path")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "give up waiting after this long")
	return cmd
}

// copyFile copies src to dst with owner-only permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
