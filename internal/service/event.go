// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package service

// EventKind discriminates stream events.
type EventKind int

const (
	// EventToken carries one text fragment.
	EventToken EventKind = iota
	// EventComplete carries the full accumulated response.
	EventComplete
	// EventError carries the failure in Err.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventToken:
		return "token"
	case EventComplete:
		return "complete"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a decoded inbound stream event.
type Event struct {
	Kind EventKind
	Text string
	Err  error
}

// TokenEvent returns an EventToken.
func TokenEvent(text string) Event {
	return Event{Kind: EventToken, Text: text}
}

// CompleteEvent returns an EventComplete with the accumulated response.
func CompleteEvent(text string) Event {
	return Event{Kind: EventComplete, Text: text}
}

// ErrorEvent returns an EventError.
func ErrorEvent(err error) Event {
	return Event{Kind: EventError, Err: err}
}

// Listener receives stream events. It is called from the stream's read
// goroutine and must not block.
type Listener func(Event)
