// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat-tui/internal/export"
	"github.com/jeranaias/gemchat-tui/internal/model"
	"github.com/jeranaias/gemchat-tui/internal/util"
)

// =============================================================================
// COMMAND HANDLER REGISTRY
// =============================================================================

// CommandHandler handles one slash command. Handlers receive the parsed
// arguments and return the updated model plus any follow-up command.
type CommandHandler func(m *Model, args []string) (tea.Model, tea.Cmd)

var commandHandlers = map[string]CommandHandler{
	// Help & meta
	"help": handleHelpCommand,
	"h":    handleHelpCommand,
	"?":    handleHelpCommand,
	"quit": handleQuitCommand,
	"q":    handleQuitCommand,
	"exit": handleQuitCommand,

	// Conversations
	"new":           handleNewCommand,
	"n":             handleNewCommand,
	"conversations": handleConversationsCommand,
	"list":          handleConversationsCommand,
	"l":             handleConversationsCommand,
	"rename":        handleRenameCommand,
	"delete":        handleDeleteCommand,
	"del":           handleDeleteCommand,

	// Models
	"model":  handleModelCommand,
	"m":      handleModelCommand,
	"models": handleModelsCommand,

	// Attachments
	"attach":      handleAttachCommand,
	"a":           handleAttachCommand,
	"attachments": handleAttachmentsCommand,
	"detach":      handleDetachCommand,

	// Export & search
	"export": handleExportCommand,
	"e":      handleExportCommand,
	"search": handleSearchCommand,
	"s":      handleSearchCommand,
}

// handleCommand dispatches a slash command through the registry.
func (m Model) handleCommand(content string) (tea.Model, tea.Cmd) {
	m.input.Reset()

	parts := strings.Fields(content)
	if len(parts) == 0 {
		return m, nil
	}

	name := strings.ToLower(strings.TrimPrefix(parts[0], "/"))
	args := parts[1:]

	if name != "delete" && name != "del" {
		m.pendingDelete = ""
	}
	if handler, ok := commandHandlers[name]; ok {
		return handler(&m, args)
	}
	return m, m.note("unknown command '/" + name + "' (try /help)")
}

// =============================================================================
// HELP AND META
// =============================================================================

func handleHelpCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.mode = viewHelp
	return *m, nil
}

func handleQuitCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	if _, cancelled := m.orch.Cancel(); cancelled {
		m.spin.Stop()
	}
	return *m, tea.Quit
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func handleNewCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	conv := model.NewConversation(m.currentModel)
	if err := m.orch.SetConversation(conv); err != nil {
		return *m, m.note(err.Error())
	}
	m.uploads.Clear()
	m.title = ""
	m.refreshViewport()
	return *m, m.note("started a new conversation")
}

func handleConversationsCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	m.mode = viewConversations
	m.listCursor = 0
	return *m, m.loadConversationsCmd()
}

func handleRenameCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return *m, m.note("usage: /rename <new title>")
	}
	id := m.orch.ConversationID()
	if id == "" {
		return *m, m.note("nothing to rename yet")
	}
	return *m, m.renameConversationCmd(id, title)
}

// handleDeleteCommand is destructive, so the first /delete only arms the
// confirmation; repeating it while armed performs the delete. Any other
// submission disarms (see handleSubmit).
func handleDeleteCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	id := m.orch.ConversationID()
	if id == "" {
		return *m, m.note("nothing to delete yet")
	}
	if m.pendingDelete != id {
		m.pendingDelete = id
		return *m, m.note("delete this conversation? /delete again to confirm")
	}
	m.pendingDelete = ""
	return *m, m.deleteConversationCmd(id)
}

// =============================================================================
// MODELS
// =============================================================================

func handleModelCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return *m, m.note("current model: " + m.currentModel)
	}
	info, ok := model.GetModelInfo(args[0])
	if !ok {
		return *m, m.note("unknown model '" + args[0] + "' (see /models)")
	}
	m.currentModel = info.ID
	m.status.Model = info.ID
	return *m, m.note("model set to " + info.ID)
}

func handleModelsCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	ids := model.ModelIDs()
	return *m, m.note("available models: " + strings.Join(ids, ", "))
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

func handleAttachCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return *m, m.note("usage: /attach <path>")
	}
	path := strings.Join(args, " ")
	file := m.uploads.Add(path)
	m.status.PendingUploads = m.uploads.PendingCount()
	return *m, tea.Batch(
		m.uploadFileCmd(file.ID),
		m.note("uploading "+file.Name+"..."),
	)
}

func handleAttachmentsCommand(m *Model, _ []string) (tea.Model, tea.Cmd) {
	files := m.uploads.Files()
	if len(files) == 0 {
		return *m, m.note("no attachments staged")
	}
	var parts []string
	for i, f := range files {
		parts = append(parts, util.IntToString(i+1)+": "+f.Name+" ("+f.Status.String()+")")
	}
	return *m, m.note(strings.Join(parts, ", "))
}

func handleDetachCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	files := m.uploads.Files()
	if len(files) == 0 {
		return *m, m.note("no attachments staged")
	}
	// Default to the most recently added file.
	target := files[len(files)-1]
	if len(args) > 0 {
		n := parseIndex(args[0], len(files))
		if n < 0 {
			return *m, m.note("usage: /detach [1-" + util.IntToString(len(files)) + "]")
		}
		target = files[n]
	}
	m.uploads.Remove(target.ID)
	m.status.PendingUploads = m.uploads.PendingCount()
	return *m, m.note("removed " + target.Name)
}

// =============================================================================
// EXPORT AND SEARCH
// =============================================================================

func handleExportCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	snapshot := m.orch.Snapshot()
	if snapshot.IsEmpty() {
		return *m, m.note("nothing to export yet")
	}

	format := "markdown"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}

	opts := export.DefaultOptions()
	opts.IncludeReasoning = m.cfg.Chat.ShowReasoning

	var exporter export.Exporter
	switch format {
	case "markdown", "md":
		exporter = export.NewMarkdownExporter(opts)
	case "json":
		exporter = export.NewJSONExporter()
	default:
		return *m, m.note("usage: /export [markdown|json]")
	}

	return *m, func() tea.Msg {
		path, err := export.ToFile(snapshot, exporter, opts)
		return ExportDoneMsg{Path: path, Err: err}
	}
}

func handleSearchCommand(m *Model, args []string) (tea.Model, tea.Cmd) {
	if m.idx == nil {
		return *m, m.note("search index is not available")
	}
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return *m, m.note("usage: /search <query>")
	}

	idx := m.idx
	return *m, func() tea.Msg {
		hits, err := idx.Search(query, 25)
		return SearchResultsMsg{Query: query, Hits: hits, Err: err}
	}
}

// =============================================================================
// ASYNC COMMAND CONSTRUCTORS
// =============================================================================

func (m *Model) requestContext() (context.Context, context.CancelFunc) {
	timeout := time.Duration(m.cfg.Server.TimeoutSecs) * time.Second
	return context.WithTimeout(context.Background(), timeout)
}

func (m *Model) loadConversationsCmd() tea.Cmd {
	client := m.client
	newCtx := m.requestContext
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		summaries, err := client.ListConversations(ctx)
		return ConversationsLoadedMsg{Summaries: summaries, Err: err}
	}
}

func (m *Model) openConversationCmd(id string) tea.Cmd {
	client := m.client
	newCtx := m.requestContext
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		detail, err := client.GetConversation(ctx, id)
		if err != nil {
			return ConversationOpenedMsg{Err: err}
		}
		return ConversationOpenedMsg{Conversation: detail.ToModel()}
	}
}

func (m *Model) renameConversationCmd(id, title string) tea.Cmd {
	client := m.client
	newCtx := m.requestContext
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		err := client.RenameConversation(ctx, id, title)
		return ConversationRenamedMsg{Title: title, Err: err}
	}
}

func (m *Model) deleteConversationCmd(id string) tea.Cmd {
	client := m.client
	cache := m.cache
	idx := m.idx
	newCtx := m.requestContext
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		if err := client.DeleteConversation(ctx, id); err != nil {
			return ConversationDeletedMsg{ID: id, Err: err}
		}
		if cache != nil {
			_ = cache.Delete(id)
		}
		if idx != nil {
			_ = idx.RemoveConversation(id)
		}
		return ConversationDeletedMsg{ID: id}
	}
}

func (m *Model) uploadFileCmd(id string) tea.Cmd {
	uploads := m.uploads
	newCtx := m.requestContext
	return func() tea.Msg {
		ctx, cancel := newCtx()
		defer cancel()
		// Settlement is reported through the tracker's OnSettle callback;
		// the error here only matters for unknown IDs.
		_ = uploads.Upload(ctx, id)
		return nil
	}
}

// parseIndex converts a 1-based argument into a 0-based index, or -1.
func parseIndex(s string, length int) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
		if n > length {
			return -1
		}
	}
	if n < 1 {
		return -1
	}
	return n - 1
}
