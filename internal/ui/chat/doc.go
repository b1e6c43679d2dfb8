// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat screen of the TUI.
//
// The screen is a view over a chat.Session from the core package: it
// subscribes to the session's updates and renders the log, the streamed
// reply and a spinner while a request is pending. Submissions run as
// tea.Cmds so image and placeholder requests never block the update loop.
//
// # Key Types
//
//   - Model: Bubble Tea model with the viewport, input and overlays
//   - Options: Session, stream state, backend address persistence
//   - KeyMap: Keyboard bindings (Ctrl+O mode, Ctrl+A attach, Ctrl+S server)
package chat
