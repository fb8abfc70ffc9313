// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/jeranaias/gemchat-tui/internal/model"
)

func sampleConversation() *model.Conversation {
	conv := model.NewConversation("gemini-2.5-flash")
	conv.ID = "conv-1"
	conv.Title = "Roses"
	conv.AddUserMessage("how do I prune roses?", []model.Attachment{
		{FileID: "f1", Name: "garden.jpg", MimeType: "image/jpeg", URI: "files/f1"},
	})
	reply := conv.AddAssistantMessage(conv.Model)
	reply.AppendReasoning("The user wants pruning basics.")
	reply.AppendContent("Cut just above an outward facing bud.")
	reply.SetUsage(model.Usage{PromptTokens: 12, ThoughtsTokens: 4, CompletionTokens: 9})
	reply.FinalizeStream()
	return conv
}

func TestMarkdownExport(t *testing.T) {
	content, err := NewMarkdownExporter(nil).Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	md := string(content)

	for _, want := range []string{
		"title: Roses",
		"model: gemini-2.5-flash",
		"### [User]",
		"### [Assistant]",
		"attached: `garden.jpg`",
		"<details><summary>Reasoning</summary>",
		"The user wants pruning basics.",
		"Cut just above an outward facing bud.",
		"tokens: 12/4/9",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestMarkdownWithoutReasoning(t *testing.T) {
	opts := DefaultOptions()
	opts.IncludeReasoning = false

	content, err := NewMarkdownExporter(opts).Export(sampleConversation())
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(content), "Reasoning") {
		t.Error("reasoning included despite IncludeReasoning=false")
	}
}

func TestMarkdownRejectsEmptyConversation(t *testing.T) {
	conv := model.NewConversation("gemini-2.5-flash")
	if _, err := NewMarkdownExporter(nil).Export(conv); err == nil {
		t.Fatal("expected error for empty conversation")
	}
	if _, err := NewMarkdownExporter(nil).Export(nil); err == nil {
		t.Fatal("expected error for nil conversation")
	}
}

func TestJSONExportRoundTrip(t *testing.T) {
	content, err := NewJSONExporter().Export(sampleConversation())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var decoded model.Conversation
	if err := json.Unmarshal(content, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Title != "Roses" || len(decoded.Messages) != 2 {
		t.Errorf("decoded = %q with %d messages", decoded.Title, len(decoded.Messages))
	}
	if decoded.Messages[1].Usage.PromptTokens != 12 {
		t.Errorf("usage = %+v", decoded.Messages[1].Usage)
	}
}

func TestToFileWritesToOutputDir(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()

	path, err := Markdown(sampleConversation(), opts)
	if err != nil {
		t.Fatalf("Markdown: %v", err)
	}
	if !strings.HasSuffix(path, ".md") {
		t.Errorf("path = %q", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("exported file missing: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Simple Title", "Simple_Title"},
		{"a/b\\c:d", "a-b-c-d"},
		{"", "conversation"},
		{"what? *really*", "what-_-really-"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
