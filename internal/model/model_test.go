// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"testing"
)

// =============================================================================
// USAGE TESTS
// =============================================================================

func TestUsageFormat(t *testing.T) {
	tests := []struct {
		name  string
		usage Usage
		want  string
	}{
		{"zero", Usage{}, "tokens: 0/0/0"},
		{"typical", Usage{PromptTokens: 10, ThoughtsTokens: 5, CompletionTokens: 1}, "tokens: 10/5/1"},
		{"large", Usage{PromptTokens: 12345, ThoughtsTokens: 0, CompletionTokens: 678}, "tokens: 12345/0/678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.usage.Format(); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUsageIsZero(t *testing.T) {
	if !(Usage{}).IsZero() {
		t.Error("zero usage should report IsZero")
	}
	if (Usage{CompletionTokens: 1}).IsZero() {
		t.Error("non-zero usage should not report IsZero")
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestMessageStreamingAppend(t *testing.T) {
	msg := NewAssistantMessage("gemini-2.5-flash")

	msg.AppendReasoning("Let me ")
	msg.AppendReasoning("think.\n")
	msg.AppendContent("42")

	if got := msg.DisplayReasoning(); got != "Let me think.\n" {
		t.Errorf("DisplayReasoning() = %q", got)
	}
	if got := msg.DisplayContent(); got != "42" {
		t.Errorf("DisplayContent() = %q", got)
	}

	msg.FinalizeStream()

	if msg.IsStreaming {
		t.Error("message still streaming after FinalizeStream")
	}
	if msg.Reasoning != "Let me think.\n" || msg.Content != "42" {
		t.Errorf("finalized fields = %q / %q", msg.Reasoning, msg.Content)
	}

	// Appends after finalization must be ignored
	msg.AppendContent("more")
	if msg.Content != "42" {
		t.Errorf("append after finalize mutated content: %q", msg.Content)
	}
}

func TestMessageFinalizeIdempotent(t *testing.T) {
	msg := NewAssistantMessage("")
	msg.AppendContent("hello")
	msg.FinalizeStream()
	msg.FinalizeStream()
	if msg.Content != "hello" {
		t.Errorf("Content = %q after double finalize", msg.Content)
	}
}

func TestMessageSnapshotIsolatedFromStream(t *testing.T) {
	msg := NewAssistantMessage("gemini-2.5-flash")
	msg.AppendReasoning("Let me think.\n")
	msg.AppendContent("4")

	snap := msg.Snapshot()
	msg.AppendContent("2")

	if got := snap.DisplayContent(); got != "4" {
		t.Errorf("snapshot content = %q, want the text at snapshot time", got)
	}
	if got := snap.DisplayReasoning(); got != "Let me think.\n" {
		t.Errorf("snapshot reasoning = %q", got)
	}
	if !snap.IsStreaming {
		t.Error("snapshot lost the streaming flag")
	}
	if got := msg.DisplayContent(); got != "42" {
		t.Errorf("original content = %q after snapshot", got)
	}
}

func TestMessagePreview(t *testing.T) {
	msg := NewUserMessage(strings.Repeat("a", 100), nil)
	preview := msg.Preview(10)
	if len([]rune(preview)) != 10 {
		t.Errorf("Preview length = %d, want 10", len([]rune(preview)))
	}
	if !strings.HasSuffix(preview, "...") {
		t.Errorf("Preview %q missing ellipsis", preview)
	}
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestConversationRemoveLastTurns(t *testing.T) {
	conv := NewConversation(DefaultModel)
	conv.AddUserMessage("first", nil)
	reply := conv.AddAssistantMessage(DefaultModel)
	reply.AppendContent("answer one")
	reply.FinalizeStream()

	conv.AddUserMessage("second", nil)
	conv.AddAssistantMessage(DefaultModel)

	conv.RemoveLastTurns(2)

	if conv.MessageCount() != 2 {
		t.Fatalf("MessageCount = %d, want 2", conv.MessageCount())
	}
	if conv.GetLastMessage().Role != RoleAssistant {
		t.Errorf("last message role = %s", conv.GetLastMessage().Role)
	}
	if conv.GetLastUserMessage().Content != "first" {
		t.Errorf("last user message = %q", conv.GetLastUserMessage().Content)
	}
}

func TestConversationRemoveLastTurnsBounds(t *testing.T) {
	conv := NewConversation(DefaultModel)
	conv.AddUserMessage("only", nil)

	conv.RemoveLastTurns(0)
	if conv.MessageCount() != 1 {
		t.Errorf("RemoveLastTurns(0) changed count to %d", conv.MessageCount())
	}

	conv.RemoveLastTurns(5)
	if conv.MessageCount() != 0 {
		t.Errorf("RemoveLastTurns(5) left %d messages", conv.MessageCount())
	}
}

func TestConversationClone(t *testing.T) {
	conv := NewConversation(DefaultModel)
	conv.ID = "conv_1"
	conv.AddUserMessage("hello", nil)

	clone := conv.Clone()
	clone.Messages[0].Content = "mutated"

	if conv.Messages[0].Content != "hello" {
		t.Error("Clone shares message storage with original")
	}
}

func TestConversationMeta(t *testing.T) {
	conv := NewConversation(DefaultModel)
	conv.ID = "conv_2"
	conv.AddUserMessage("what is the answer", nil)

	meta := conv.GetMeta()
	if meta.ID != "conv_2" || meta.MessageCount != 1 {
		t.Errorf("meta = %+v", meta)
	}
	if meta.Title != "New Conversation" {
		t.Errorf("untitled conversation meta title = %q", meta.Title)
	}
}

// =============================================================================
// MODEL REGISTRY TESTS
// =============================================================================

func TestGetModelInfo(t *testing.T) {
	if _, ok := GetModelInfo("gemini-2.5-pro"); !ok {
		t.Error("exact ID lookup failed")
	}
	if info, ok := GetModelInfo("pro"); !ok || info.ID != "gemini-2.5-pro" {
		t.Errorf("fragment lookup = %+v, %v", info, ok)
	}
	if _, ok := GetModelInfo("gpt-99"); ok {
		t.Error("unknown model reported found")
	}
}

func TestIsKnownModel(t *testing.T) {
	if !IsKnownModel(DefaultModel) {
		t.Error("default model not in registry")
	}
	if IsKnownModel("pro") {
		t.Error("fragment must not match IsKnownModel")
	}
}
