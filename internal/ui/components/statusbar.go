// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/gemchat-tui/internal/model"
	"github.com/jeranaias/gemchat-tui/internal/ui/styles"
	"github.com/jeranaias/gemchat-tui/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// ConnectionState describes the client's view of the server connection.
type ConnectionState int

const (
	ConnIdle ConnectionState = iota
	ConnStreaming
	ConnError
)

// StatusBar renders the single-line footer: connection state, model,
// token usage from the last exchange, pending uploads, and key hints.
type StatusBar struct {
	theme *styles.Theme

	Width          int
	Connection     ConnectionState
	Model          string
	Usage          *model.Usage
	PendingUploads int
	Message        string
}

// NewStatusBar creates a status bar bound to the theme.
func NewStatusBar(theme *styles.Theme) StatusBar {
	return StatusBar{theme: theme, Width: 80}
}

// View renders the status bar to fit s.Width.
func (s StatusBar) View() string {
	var left []string

	switch s.Connection {
	case ConnStreaming:
		left = append(left, s.theme.StatusOK.Render("streaming"))
	case ConnError:
		left = append(left, s.theme.StatusError.Render("error"))
	default:
		left = append(left, s.theme.StatusOK.Render("ready"))
	}

	if s.Model != "" {
		left = append(left, s.theme.StatusTokens.Render(s.Model))
	}

	if s.Usage != nil && !s.Usage.IsZero() {
		left = append(left, s.theme.StatusTokens.Render(s.Usage.Format()))
	}

	if s.PendingUploads > 0 {
		left = append(left, s.theme.Attachment.Render(
			util.IntToString(s.PendingUploads)+" upload(s) pending"))
	}

	if s.Message != "" {
		left = append(left, s.theme.StatusTokens.Render(s.Message))
	}

	hints := s.theme.ShortcutKey.Render("Esc") + s.theme.ShortcutDesc.Render(" cancel ") +
		s.theme.ShortcutKey.Render("/help") + s.theme.ShortcutDesc.Render(" commands")

	line := strings.Join(left, s.theme.StatusTokens.Render(" | "))

	// Right-align hints when there is room; drop them on narrow terminals.
	lineWidth := util.StringWidth(stripANSI(line))
	hintWidth := util.StringWidth(stripANSI(hints))
	gap := s.Width - lineWidth - hintWidth - 2
	if gap > 0 {
		line += strings.Repeat(" ", gap) + hints
	}

	return s.theme.StatusBar.MaxWidth(s.Width).Render(line)
}

// stripANSI removes CSI escape sequences for width measurement.
func stripANSI(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inEscape := false
	for _, r := range s {
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		if r == '\x1b' {
			inEscape = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
