// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/deepcognitive/deepcog-tui/internal/chat"
)

// defaultAskTimeout bounds a one-shot question when the stream has no idle
// timeout of its own.
const defaultAskTimeout = 5 * time.Minute

func newAskCommand(g *globalOptions) *cobra.Command {
	var (
		mode    string
		stream  bool
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "ask <prompt>",
		Short: "Ask one question and print the answer",
		Long: `Send a single prompt to the selected mode and print the reply.
Replies are rendered as Markdown when stdout is a color terminal.`,
		Example: `  $ deepcog ask "Summarize the CAP theorem"
  $ deepcog ask --mode bottom --stream "Write a haiku"
  $ echo "$(deepcog ask 'list three colors')" > colors.txt`,
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

			if err := selectMode(rt.Session, mode); err != nil {
				return err
			}
			if rt.Session.Mode().IsText() {
				if err := connectSession(ctx, rt); err != nil {
					return commandError("ask", "connect", err)
				}
			}

			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			out := cmd.OutOrStdout()
			updates, unsubscribe := rt.Session.Subscribe()
			defer unsubscribe()
			delta := &deltaWriter{out: out}
			x := &exchange{session: rt.Session, updates: updates}
			if stream {
				x.onPartial = delta.write
			}

			reply, err := x.run(ctx, prompt)
			if reply.ID == "" {
				delta.reset()
				return commandError("ask", "", err)
			}
			if !delta.finish(reply.Text) {
				fmt.Fprint(out, formatReply(reply, rt.CurrentConfig().UI.WordWrap, renderTo(out)))
			}
			if err == nil && strings.HasPrefix(reply.Text, chat.ErrorPrefix) {
				err = fmt.Errorf("%s", strings.TrimPrefix(reply.Text, chat.ErrorPrefix))
			}
			return commandError("ask", "", err)
		},
	}
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "mode to ask (top, bottom, image, ocr, search)")
	cmd.Flags().BoolVarP(&stream, "stream", "s", false, "print tokens as they arrive")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultAskTimeout, "give up waiting after this long")
	return cmd
}
