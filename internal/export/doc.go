// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversations to files in portable formats.
// Markdown keeps reasoning traces in collapsible sections; JSON is the
// verbatim cached representation.
package export
