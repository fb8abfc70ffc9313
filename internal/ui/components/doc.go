// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides reusable UI components for the gemchat TUI:
// the streaming spinner, the status bar, syntax-highlighted code blocks,
// and the markdown renderer.
package components
