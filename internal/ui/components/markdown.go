// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer wraps a glamour terminal renderer. A nil renderer is
// usable and falls back to returning the raw markdown unchanged.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownRenderer creates a renderer for the given wrap width.
// Rendering degrades gracefully when glamour initialization fails
// (e.g. unusual TERM settings).
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	if width < 20 {
		width = 20
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r = nil
	}

	return &MarkdownRenderer{renderer: r, width: width}
}

// Width returns the wrap width the renderer was created with.
func (m *MarkdownRenderer) Width() int {
	return m.width
}

// Render renders markdown for terminal display. Falls back to raw text
// when no renderer is available or rendering fails.
func (m *MarkdownRenderer) Render(markdown string) string {
	if m == nil || m.renderer == nil {
		return markdown
	}

	out, err := m.renderer.Render(markdown)
	if err != nil {
		return markdown
	}

	// Glamour pads with leading/trailing blank lines; trim them so the
	// output composes cleanly with surrounding chrome.
	return strings.Trim(out, "\n")
}
