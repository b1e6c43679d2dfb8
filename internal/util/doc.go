// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the deepcog packages.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, PadRight: Column-aware truncation and padding for tables
//   - FirstLine: First non-empty line, for one-line previews
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//   - ExpandHome: "~/" expansion for user-supplied paths
//
// # Usage
//
//	display := util.TruncateRunes(longText, 50)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
