// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat owns the state of one conversation session.
//
// A Session holds the append-only message log, the selected backend mode and
// the in-progress streamed reply. It routes each submission to the right
// backend and turns stream events into log entries.
//
// # Key Types
//
//   - Session: conversation state and routing
//   - Message: one log entry (user or assistant)
//   - Mode: selectable backend (Top AI, Bottom AI, Image Gen AI, OCR, Web Search)
//   - Backend: the network operations a Session needs
//   - Update: change notification delivered to subscribers
//
// # Invariants
//
// Messages are only ever appended. The partial reply is cleared exactly when
// the stream completes or fails, and becomes a Message only on completion.
//
// # Usage
//
//	sess := chat.NewSession(cfg, svc, chat.WithRecorder(store))
//	sess.Start(ctx)
//	defer sess.Close()
//
//	updates, cancel := sess.Subscribe()
//	defer cancel()
//	err := sess.Submit(ctx, "Explain websockets")
package chat
