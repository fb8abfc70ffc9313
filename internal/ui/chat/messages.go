// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/gemchat-tui/internal/api"
	"github.com/jeranaias/gemchat-tui/internal/exchange"
	"github.com/jeranaias/gemchat-tui/internal/index"
	"github.com/jeranaias/gemchat-tui/internal/model"
	"github.com/jeranaias/gemchat-tui/internal/upload"
)

// =============================================================================
// EXCHANGE MESSAGES
// =============================================================================

// ExchangeStateMsg reports an exchange state transition. Err is set for
// exchange.StateFailed.
type ExchangeStateMsg struct {
	State exchange.State
	Err   error
}

// TitleChangedMsg reports a server-assigned conversation title.
type TitleChangedMsg struct {
	Title string
}

// InputRestoredMsg puts cancelled input back into the prompt.
type InputRestoredMsg struct {
	Text string
}

// StreamTickMsg drives coalesced re-rendering while a stream is active.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// CONVERSATION MESSAGES
// =============================================================================

// ConversationsLoadedMsg delivers the conversation list for the picker.
type ConversationsLoadedMsg struct {
	Summaries []api.ConversationSummary
	Err       error
}

// ConversationOpenedMsg delivers a conversation fetched for display.
type ConversationOpenedMsg struct {
	Conversation *model.Conversation
	Err          error
}

// ConversationDeletedMsg confirms a delete.
type ConversationDeletedMsg struct {
	ID  string
	Err error
}

// ConversationRenamedMsg confirms a rename.
type ConversationRenamedMsg struct {
	Title string
	Err   error
}

// ConversationSavedMsg confirms a local cache write after an exchange.
type ConversationSavedMsg struct {
	Err error
}

// =============================================================================
// FEATURE MESSAGES
// =============================================================================

// SearchResultsMsg delivers full-text search hits.
type SearchResultsMsg struct {
	Query string
	Hits  []index.Hit
	Err   error
}

// UploadSettledMsg reports that a tracked file upload finished.
type UploadSettledMsg struct {
	File *upload.File
}

// ExportDoneMsg reports the result of an export command.
type ExportDoneMsg struct {
	Path string
	Err  error
}

// StatusNoteMsg shows a transient line in the status bar.
type StatusNoteMsg struct {
	Text string
}

// statusClearMsg expires a transient status note.
type statusClearMsg struct {
	seq int
}
