// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/deepcognitive/deepcog-tui/internal/chat"
)

// replyPollInterval bounds how long a dropped update can delay a reply.
const replyPollInterval = 250 * time.Millisecond

// exchange submits one prompt and waits for the assistant's reply.
type exchange struct {
	session *chat.Session
	updates <-chan chat.Update

	// onPartial receives the streamed reply as it grows.
	onPartial func(partial string)
}

// run submits text and returns the assistant message that answers it.
// Submit failures that already produced an error entry in the log are
// returned as that entry so the caller shows what the chat would show.
func (x *exchange) run(ctx context.Context, text string) (chat.Message, error) {
	x.drain()
	since := len(x.session.Messages())
	err := x.session.Submit(ctx, text)
	switch {
	case errors.Is(err, chat.ErrStreamInProgress),
		errors.Is(err, chat.ErrSessionClosed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return chat.Message{}, err
	}
	if strings.TrimSpace(text) == "" {
		return chat.Message{}, nil
	}

	reply, waitErr := x.await(ctx, since)
	if waitErr != nil {
		return chat.Message{}, waitErr
	}
	return reply, err
}

// await blocks until an assistant message appears at or after index since.
func (x *exchange) await(ctx context.Context, since int) (chat.Message, error) {
	ticker := time.NewTicker(replyPollInterval)
	defer ticker.Stop()

	for {
		if msg, ok := x.replyAfter(since); ok {
			return msg, nil
		}
		select {
		case <-ctx.Done():
			return chat.Message{}, ctx.Err()
		case u, ok := <-x.updates:
			if !ok {
				return chat.Message{}, chat.ErrSessionClosed
			}
			if u.Kind == chat.UpdatePartial && x.onPartial != nil {
				x.onPartial(u.Partial)
			}
		case <-ticker.C:
		}
	}
}

// drain discards updates left over from the previous exchange.
func (x *exchange) drain() {
	for {
		select {
		case _, ok := <-x.updates:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

func (x *exchange) replyAfter(since int) (chat.Message, bool) {
	msgs := x.session.Messages()
	for i := since; i < len(msgs); i++ {
		if !msgs[i].IsUser() {
			return msgs[i], true
		}
	}
	return chat.Message{}, false
}

// deltaWriter prints only the new suffix of a growing reply.
type deltaWriter struct {
	out     io.Writer
	printed string
}

func (d *deltaWriter) write(partial string) {
	if partial == "" {
		return
	}
	if !strings.HasPrefix(partial, d.printed) {
		// The stream was reset; start over on a fresh line.
		if d.printed != "" {
			fmt.Fprintln(d.out)
		}
		d.printed = ""
	}
	fmt.Fprint(d.out, partial[len(d.printed):])
	d.printed = partial
}

// finish prints the part of final not streamed yet and ends the line. It
// reports false, printing nothing, when no tokens were streamed.
func (d *deltaWriter) finish(final string) bool {
	if d.printed == "" {
		return false
	}
	if strings.HasPrefix(final, d.printed) {
		fmt.Fprint(d.out, final[len(d.printed):])
	} else {
		fmt.Fprint(d.out, "\n"+final)
	}
	fmt.Fprintln(d.out)
	d.printed = ""
	return true
}

// reset forgets a partial reply that never completed.
func (d *deltaWriter) reset() {
	if d.printed != "" {
		fmt.Fprintln(d.out)
	}
	d.printed = ""
}

// formatReply renders an assistant message for a terminal.
func formatReply(msg chat.Message, wordWrap int, render bool) string {
	text := displayResponse(msg.Text, wordWrap, render)
	if msg.ImagePath != "" {
		text += "Saved to " + msg.ImagePath + "\n"
	}
	return text
}
