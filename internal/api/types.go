// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"time"

	"github.com/jeranaias/gemchat-tui/internal/model"
)

// =============================================================================
// CONVERSATION RESOURCES
// =============================================================================

// ConversationSummary is one entry of the conversation listing.
type ConversationSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Model     string    `json:"model,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MessageRecord is one historical message as the server returns it.
type MessageRecord struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Reasoning string            `json:"reasoning,omitempty"`
	Usage     *model.Usage      `json:"usage,omitempty"`
	Files     []AttachmentEntry `json:"files,omitempty"`
}

// ConversationDetail is a full conversation with history.
type ConversationDetail struct {
	ConversationSummary
	Messages []MessageRecord `json:"messages"`
}

// ToModel converts a server conversation into the client's working form.
func (d *ConversationDetail) ToModel() *model.Conversation {
	conv := &model.Conversation{
		ID:        d.ID,
		Title:     d.Title,
		Model:     d.Model,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		Messages:  make([]*model.Message, 0, len(d.Messages)),
	}
	for _, rec := range d.Messages {
		role := model.RoleAssistant
		if rec.Role == "user" {
			role = model.RoleUser
		}
		msg := &model.Message{
			Role:      role,
			Content:   rec.Content,
			Reasoning: rec.Reasoning,
		}
		if rec.Usage != nil {
			msg.Usage = *rec.Usage
		}
		for _, f := range rec.Files {
			msg.Attachments = append(msg.Attachments, model.Attachment{
				FileID:   f.FileID,
				Name:     f.Name,
				MimeType: f.MimeType,
				URI:      f.Path,
			})
		}
		conv.Messages = append(conv.Messages, msg)
	}
	return conv
}

// =============================================================================
// CHAT REQUEST
// =============================================================================

// AttachmentEntry is the wire form of one pre-uploaded file descriptor,
// serialized into the chat request's pre_uploaded_files field.
type AttachmentEntry struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	FileID   string `json:"file_id"`
}

// ChatRequest carries one user turn to the server.
type ChatRequest struct {
	ConversationID string
	Message        string
	Model          string
	Files          []AttachmentEntry
}

// =============================================================================
// UPLOAD RESPONSE
// =============================================================================

// UploadResult is the server's record for a completed upload.
type UploadResult struct {
	FileID       string `json:"file_id"`
	OriginalName string `json:"original_name"`
	MimeType     string `json:"mime_type"`
	FileURI      string `json:"file_uri"`
}

// AsEntry converts an upload result into a chat-request attachment entry.
func (u UploadResult) AsEntry() AttachmentEntry {
	return AttachmentEntry{
		Path:     u.FileURI,
		Name:     u.OriginalName,
		MimeType: u.MimeType,
		FileID:   u.FileID,
	}
}

// serverError is the JSON error envelope on non-2xx responses.
type serverError struct {
	Error string `json:"error"`
}
