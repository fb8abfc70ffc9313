// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/jeranaias/gemchat-tui/internal/model"
	"github.com/jeranaias/gemchat-tui/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

// =============================================================================
// SPINNER TESTS
// =============================================================================

func TestSpinnerLifecycle(t *testing.T) {
	s := NewSpinner(testTheme())

	if s.IsActive() {
		t.Error("new spinner should be inactive")
	}
	if s.View() != "" {
		t.Error("inactive spinner should render nothing")
	}

	cmd := s.Start()
	if cmd == nil {
		t.Error("Start should return a tick command")
	}
	if !s.IsActive() {
		t.Error("spinner should be active after Start")
	}

	s.SetMessage("Thinking")
	if !strings.Contains(s.View(), "Thinking") {
		t.Error("view should contain the phase message")
	}
	if !strings.Contains(s.View(), "Esc to cancel") {
		t.Error("view should show the cancel hint")
	}

	s.Stop()
	if s.IsActive() {
		t.Error("spinner should be inactive after Stop")
	}
}

// =============================================================================
// CODE BLOCK TESTS
// =============================================================================

func TestCodeBlockRender(t *testing.T) {
	cb := NewCodeBlock("go", "func main() {}", "monokai")
	out := cb.Render()
	if out == "" {
		t.Fatal("rendered code block is empty")
	}
	if !strings.Contains(out, "main") {
		t.Error("rendered output lost the code text")
	}
}

func TestCodeBlockUnknownLanguage(t *testing.T) {
	cb := NewCodeBlock("nosuchlang", "hello world", "monokai")
	if !strings.Contains(cb.Render(), "hello world") {
		t.Error("fallback lexer should preserve text")
	}
}

func TestRenderCodeBlocksMixedContent(t *testing.T) {
	text := "before\n```go\nx := 1\n```\nafter"
	out := RenderCodeBlocks(text, 80, "monokai")

	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Error("prose around the fence should survive")
	}
	if strings.Contains(out, "```") {
		t.Error("fence markers should be consumed")
	}
	// Highlighting interleaves escape sequences between tokens; compare the
	// plain text.
	if !strings.Contains(stripANSI(out), "x := 1") {
		t.Error("code content should survive")
	}
}

func TestRenderCodeBlocksUnclosedFence(t *testing.T) {
	// Streaming answers routinely end mid-fence.
	text := "```python\nprint('hi')"
	out := RenderCodeBlocks(text, 80, "monokai")
	if !strings.Contains(out, "print") {
		t.Error("partial code block should still render")
	}
}

// =============================================================================
// MARKDOWN RENDERER TESTS
// =============================================================================

func TestMarkdownRendererFallback(t *testing.T) {
	var m *MarkdownRenderer
	if m.Render("# hi") != "# hi" {
		t.Error("nil renderer should return input unchanged")
	}

	m = &MarkdownRenderer{}
	if m.Render("plain") != "plain" {
		t.Error("renderer without glamour should return input unchanged")
	}
}

func TestMarkdownRendererOutput(t *testing.T) {
	m := NewMarkdownRenderer(60)
	out := m.Render("hello **world**")
	if !strings.Contains(out, "hello") || !strings.Contains(out, "world") {
		t.Error("rendered markdown lost text")
	}
	if m.Width() != 60 {
		t.Errorf("Width() = %d, want 60", m.Width())
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBarStates(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.Width = 120
	sb.Model = "gemini-2.5-flash"

	sb.Connection = ConnIdle
	if !strings.Contains(sb.View(), "ready") {
		t.Error("idle bar should say ready")
	}

	sb.Connection = ConnStreaming
	if !strings.Contains(sb.View(), "streaming") {
		t.Error("streaming bar should say streaming")
	}

	sb.Connection = ConnError
	if !strings.Contains(sb.View(), "error") {
		t.Error("error bar should say error")
	}

	if !strings.Contains(sb.View(), "gemini-2.5-flash") {
		t.Error("bar should show the active model")
	}
}

func TestStatusBarUsageAndUploads(t *testing.T) {
	sb := NewStatusBar(testTheme())
	sb.Width = 120
	sb.Usage = &model.Usage{PromptTokens: 10, ThoughtsTokens: 3, CompletionTokens: 7}
	sb.PendingUploads = 2

	out := sb.View()
	if !strings.Contains(out, sb.Usage.Format()) {
		t.Error("bar should show token usage")
	}
	if !strings.Contains(out, "2 upload(s) pending") {
		t.Error("bar should show pending uploads")
	}

	sb.Usage = &model.Usage{}
	if strings.Contains(sb.View(), "tokens:") {
		t.Error("zero usage should be hidden")
	}
}

func TestStripANSI(t *testing.T) {
	in := "\x1b[31mred\x1b[0m text"
	if got := stripANSI(in); got != "red text" {
		t.Errorf("stripANSI = %q, want %q", got, "red text")
	}
}
