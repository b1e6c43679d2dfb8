// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the deepcog command tree.
//
// The default command runs the full-screen TUI. The other commands reuse the
// same Runtime (config, logging, service, event store and chat session) for
// line-oriented use:
//
//	deepcog chat                     line REPL with history
//	deepcog ask "prompt"             one answer to stdout
//	deepcog image "prompt"           generate an image, print its path
//	deepcog config show|get|set|path
//	deepcog events --sort ram --desc
//	deepcog metrics --addr :9090
//
// # Exit Codes
//
// ExitCode maps errors to process exit codes: usage errors exit 2, config
// errors 3, network failures 5 and timeouts 8. Anything else exits 1.
package cli
