// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/jeranaias/gemchat-tui/internal/model"
	"github.com/jeranaias/gemchat-tui/internal/ui/components"
	"github.com/jeranaias/gemchat-tui/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	switch m.mode {
	case viewConversations:
		return m.renderHeader() + "\n" + m.renderConversationList()
	case viewSearch:
		return m.renderHeader() + "\n" + m.renderSearchResults()
	case viewHelp:
		return m.renderHeader() + "\n" + m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.viewport.View())
	b.WriteByte('\n')

	if m.spin.IsActive() {
		b.WriteString(m.spin.View())
	}
	b.WriteByte('\n')

	b.WriteString(m.theme.InputContainer.Width(m.width).Render(m.input.View()))
	b.WriteByte('\n')
	b.WriteString(m.status.View())
	return b.String()
}

func (m Model) renderHeader() string {
	label := m.theme.HeaderTitle.Render("gemchat")
	if m.title != "" {
		label += m.theme.Timestamp.Render("  " + util.TruncateWidth(m.title, m.width-20))
	}
	return m.theme.Header.Width(m.width).Render(label)
}

// =============================================================================
// MESSAGE RENDERING
// =============================================================================

// refreshViewport re-renders the conversation into the viewport. Rendering
// works on a locked snapshot; the live conversation is appended to by the
// reader goroutine and is never walked here.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderMessages(m.orch.Snapshot()))
}

func (m *Model) renderMessages(conv *model.Conversation) string {
	if conv.IsEmpty() {
		return m.theme.Timestamp.Render("No messages yet. Type below to start.")
	}

	var sections []string
	for _, msg := range conv.Messages {
		sections = append(sections, m.renderMessage(msg))
	}
	return strings.Join(sections, "\n\n")
}

func (m *Model) renderMessage(msg *model.Message) string {
	var b strings.Builder

	ts := m.theme.Timestamp.Render(msg.Timestamp.Format("15:04"))
	switch msg.Role {
	case model.RoleUser:
		b.WriteString(m.theme.UserLabel.Render("You") + " " + ts + "\n")
		for _, a := range msg.Attachments {
			b.WriteString(m.theme.Attachment.Render("attached: "+a.Name) + "\n")
		}
		b.WriteString(m.theme.MessageBody.Render(msg.Content))

	case model.RoleAssistant:
		b.WriteString(m.theme.AssistantLabel.Render("Assistant") + " " + ts + "\n")

		if m.cfg.Chat.ShowReasoning && msg.HasReasoning() {
			b.WriteString(m.theme.ReasoningLabel.Render("Reasoning") + "\n")
			b.WriteString(m.theme.Reasoning.Render(msg.DisplayReasoning()) + "\n")
		}

		content := msg.DisplayContent()
		switch {
		case msg.Failed:
			b.WriteString(m.theme.FailedBody.Render(content))
		case msg.IsStreaming:
			// Glamour re-renders are too expensive per frame; highlight
			// fences only and render the full markdown once finalized.
			b.WriteString(components.RenderCodeBlocks(content, m.width-4, m.cfg.UI.SyntaxTheme))
		default:
			b.WriteString(m.md.Render(content))
		}

		if !msg.IsStreaming && !msg.Usage.IsZero() && !m.cfg.UI.CompactMode {
			b.WriteString("\n" + m.theme.StatusTokens.Render(msg.Usage.Format()))
		}
	}

	return b.String()
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) renderConversationList() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Conversations") + "\n\n")

	if len(m.convs) == 0 {
		b.WriteString(m.theme.Timestamp.Render("No conversations on the server."))
	}
	for i, c := range m.convs {
		title := c.Title
		if title == "" {
			title = "(untitled)"
		}
		line := util.TruncateWidth(title, m.width-24) +
			"  " + m.theme.ConversationMeta.Render(c.UpdatedAt.Format("2006-01-02 15:04"))
		if i == m.listCursor {
			b.WriteString(m.theme.ConversationSelected.Render(line))
		} else {
			b.WriteString(m.theme.ConversationItem.Render(line))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n" + m.theme.ShortcutDesc.Render("enter open, esc back"))
	return m.theme.ConversationList.Width(m.width - 2).Render(b.String())
}

func (m Model) renderSearchResults() string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Search: "+m.searchQuery) + "\n\n")

	if len(m.searchHits) == 0 {
		b.WriteString(m.theme.Timestamp.Render("No matches."))
	}
	for _, h := range m.searchHits {
		title := h.ConversationTitle
		if title == "" {
			title = h.ConversationID
		}
		b.WriteString(m.theme.ConversationItem.Render(util.TruncateWidth(title, m.width-8)) + "\n")
		b.WriteString("  " + m.theme.SearchSnippet.Render(util.TruncateWidth(h.Snippet, m.width-10)) + "\n")
	}

	b.WriteString("\n" + m.theme.ShortcutDesc.Render("esc back"))
	return m.theme.ConversationList.Width(m.width - 2).Render(b.String())
}

func (m Model) renderHelp() string {
	rows := [][2]string{
		{"/new", "start a new conversation"},
		{"/conversations", "browse server conversations"},
		{"/rename <title>", "rename the current conversation"},
		{"/delete", "delete the current conversation"},
		{"/model [id]", "show or switch the model"},
		{"/models", "list available models"},
		{"/attach <path>", "upload a file for the next message"},
		{"/attachments", "list staged attachments"},
		{"/detach [n]", "remove a staged attachment"},
		{"/export [markdown|json]", "export the conversation"},
		{"/search <query>", "full-text search across cached chats"},
		{"/quit", "exit"},
	}

	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Commands") + "\n\n")
	for _, r := range rows {
		b.WriteString(m.theme.ShortcutKey.Render(util.PadRight(r[0], 26)))
		b.WriteString(m.theme.ShortcutDesc.Render(r[1]) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.ShortcutKey.Render(util.PadRight("Esc", 26)))
	b.WriteString(m.theme.ShortcutDesc.Render("cancel an in-flight reply") + "\n")
	b.WriteString(m.theme.ShortcutKey.Render(util.PadRight("PgUp/PgDn/Home/End", 26)))
	b.WriteString(m.theme.ShortcutDesc.Render("scroll history") + "\n")

	return m.theme.ConversationList.Width(m.width - 2).Render(b.String())
}
