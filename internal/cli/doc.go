// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the gemchat command line: argument parsing,
// the one-shot ask command, the plain-terminal chat REPL, and the
// auth/config/search/export utility commands. The full-screen TUI
// lives in internal/ui/chat; this package is the non-TUI surface.
package cli
