// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// USAGE TYPE
// =============================================================================

// Usage is a cumulative token-count snapshot reported by the server.
// Snapshots replace each other wholesale; fields are never merged.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	ThoughtsTokens   int `json:"thoughts_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// IsZero reports whether no snapshot has been recorded.
func (u Usage) IsZero() bool {
	return u.PromptTokens == 0 && u.ThoughtsTokens == 0 && u.CompletionTokens == 0
}

// Total returns the sum of all token counts.
func (u Usage) Total() int {
	return u.PromptTokens + u.ThoughtsTokens + u.CompletionTokens
}

// Format returns the display form "tokens: prompt/thoughts/completion".
func (u Usage) Format() string {
	return "tokens: " + formatInt(u.PromptTokens) + "/" +
		formatInt(u.ThoughtsTokens) + "/" + formatInt(u.CompletionTokens)
}

// =============================================================================
// ATTACHMENT TYPE
// =============================================================================

// Attachment describes a file already uploaded to the server and referenced
// by a user message. The client treats the URI and file ID as opaque.
type Attachment struct {
	FileID   string `json:"file_id"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	URI      string `json:"path"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation. Assistant messages
// carry a reasoning trace alongside the answer text; both accumulate through
// builders while streaming and are merged into the persisted fields on
// finalization.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`

	// Attachments on user messages
	Attachments []Attachment `json:"attachments,omitempty"`

	// Assistant metadata
	Model  string `json:"model,omitempty"`
	Usage  Usage  `json:"usage,omitempty"`
	Failed bool   `json:"failed,omitempty"`

	// Streaming state (not persisted)
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	IsStreaming     bool            `json:"-"`
	streamReasoning strings.Builder `json:"-"`
	streamContent   strings.Builder `json:"-"`
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string, attachments []Attachment) *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleUser,
		Content:     content,
		Attachments: attachments,
		Timestamp:   time.Now(),
	}
}

// NewAssistantMessage creates a new streaming assistant message.
func NewAssistantMessage(model string) *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Model:       model,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendReasoning appends a reasoning fragment to a streaming message.
func (m *Message) AppendReasoning(fragment string) {
	if m.IsStreaming {
		m.streamReasoning.WriteString(fragment)
	}
}

// AppendContent appends an answer fragment to a streaming message.
func (m *Message) AppendContent(fragment string) {
	if m.IsStreaming {
		m.streamContent.WriteString(fragment)
	}
}

// SetUsage replaces the token-usage snapshot wholesale.
func (m *Message) SetUsage(u Usage) {
	m.Usage = u
}

// FinalizeStream merges the streamed builders into the persisted fields.
func (m *Message) FinalizeStream() {
	if !m.IsStreaming {
		return
	}
	m.Reasoning = m.streamReasoning.String()
	m.Content = m.streamContent.String()
	m.streamReasoning.Reset()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// DisplayReasoning returns the reasoning text to render (streaming or final).
func (m *Message) DisplayReasoning() string {
	if m.IsStreaming {
		return m.streamReasoning.String()
	}
	return m.Reasoning
}

// DisplayContent returns the answer text to render (streaming or final).
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// HasReasoning reports whether any reasoning text has accumulated.
func (m *Message) HasReasoning() bool {
	if m.IsStreaming {
		return m.streamReasoning.Len() > 0
	}
	return m.Reasoning != ""
}

// Snapshot returns a copy that is safe to read while the original keeps
// streaming. Streamed text is copied into the snapshot's own builders, so
// later appends to the original never touch memory the snapshot reads.
func (m *Message) Snapshot() *Message {
	s := &Message{
		ID:          m.ID,
		Role:        m.Role,
		Timestamp:   m.Timestamp,
		Content:     m.Content,
		Reasoning:   m.Reasoning,
		Attachments: m.Attachments,
		Model:       m.Model,
		Usage:       m.Usage,
		Failed:      m.Failed,
		IsStreaming: m.IsStreaming,
	}
	if m.IsStreaming {
		s.streamReasoning.WriteString(m.streamReasoning.String())
		s.streamContent.WriteString(m.streamContent.String())
	}
	return s
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no answer content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}

// formatInt formats a non-negative integer without using fmt.
func formatInt(n int) string {
	if n <= 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
