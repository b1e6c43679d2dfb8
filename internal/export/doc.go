// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes chat transcripts to files.
//
// # Key Types
//
//   - Transcript: Snapshot of a session's log plus its mode and backend
//   - Exporter: Renders a transcript in one format
//   - Options: Metadata, timestamps and HTML theme
//
// # Supported Formats
//
//   - Markdown: Human-readable with YAML frontmatter
//   - JSON: Every message field, for tooling
//   - HTML: Standalone page with embedded CSS
//
// # Usage
//
//	t := export.FromSession(session, time.Now())
//	path, err := export.ToDir(t, dir, export.FormatMarkdown, nil)
//
// WriteFile picks the format from the target's extension:
//
//	err := export.WriteFile(t, "chat.html", nil)
package export
