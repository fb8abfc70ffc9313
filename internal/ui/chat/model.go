// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat-tui/internal/api"
	"github.com/jeranaias/gemchat-tui/internal/config"
	"github.com/jeranaias/gemchat-tui/internal/exchange"
	"github.com/jeranaias/gemchat-tui/internal/index"
	"github.com/jeranaias/gemchat-tui/internal/model"
	"github.com/jeranaias/gemchat-tui/internal/storage"
	"github.com/jeranaias/gemchat-tui/internal/stream"
	"github.com/jeranaias/gemchat-tui/internal/ui/components"
	"github.com/jeranaias/gemchat-tui/internal/ui/styles"
	"github.com/jeranaias/gemchat-tui/internal/upload"
)

// =============================================================================
// VIEW MODES
// =============================================================================

type viewMode int

const (
	viewChat viewMode = iota
	viewConversations
	viewSearch
	viewHelp
)

// =============================================================================
// PROGRAM BRIDGE
// =============================================================================

// programRef lets exchange callbacks, which are created before the Bubble
// Tea program exists, deliver messages into the running event loop.
type programRef struct {
	mu sync.Mutex
	p  *tea.Program
}

func (r *programRef) set(p *tea.Program) {
	r.mu.Lock()
	r.p = p
	r.mu.Unlock()
}

func (r *programRef) send(msg tea.Msg) {
	r.mu.Lock()
	p := r.p
	r.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the root Bubble Tea model for the chat interface.
type Model struct {
	cfg   *config.Config
	theme *styles.Theme

	client  *api.Client
	orch    *exchange.Orchestrator
	cache   *storage.Cache
	idx     *index.MessageIndex
	uploads *upload.Tracker

	ref       *programRef
	coalescer *RenderCoalescer

	viewport viewport.Model
	input    textinput.Model
	spin     components.Spinner
	status   components.StatusBar
	md       *components.MarkdownRenderer
	keys     KeyMap

	width  int
	height int
	ready  bool

	mode         viewMode
	convs        []api.ConversationSummary
	listCursor   int
	searchQuery  string
	searchHits   []index.Hit
	currentModel  string
	title         string
	pendingDelete string
	noteSeq       int
}

// Deps carries the wired collaborators for New. Cache and Index are
// optional; the corresponding features degrade when nil.
type Deps struct {
	Config *config.Config
	Client *api.Client
	Cache  *storage.Cache
	Index  *index.MessageIndex
}

// clientMeta adapts the API client to the orchestrator's metadata needs.
type clientMeta struct {
	client *api.Client
}

func (c clientMeta) EnsureConversation(ctx context.Context) (string, error) {
	summary, err := c.client.CreateConversation(ctx)
	if err != nil {
		return "", err
	}
	return summary.ID, nil
}

func (c clientMeta) RefreshTitle(ctx context.Context, id string) (string, error) {
	return c.client.RefreshTitle(ctx, id)
}

// New constructs the chat model and its orchestrator.
func New(deps Deps) *Model {
	theme := styles.NewTheme(deps.Config.UI.Theme)

	ti := textinput.New()
	ti.Placeholder = "Send a message (/help for commands)"
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.PlaceholderStyle = theme.InputPlaceholder
	ti.CharLimit = 0
	ti.Focus()

	ref := &programRef{}
	coalescer := NewRenderCoalescer()

	m := &Model{
		cfg:          deps.Config,
		theme:        theme,
		client:       deps.Client,
		cache:        deps.Cache,
		idx:          deps.Index,
		ref:          ref,
		coalescer:    coalescer,
		input:        ti,
		spin:         components.NewSpinner(theme),
		status:       components.NewStatusBar(theme),
		keys:         DefaultKeyMap(),
		currentModel: deps.Config.Chat.DefaultModel,
	}
	m.status.Model = m.currentModel

	m.uploads = upload.NewTracker(deps.Client, func(f *upload.File) {
		ref.send(UploadSettledMsg{File: f})
	})

	// Callbacks run on the streaming goroutine while the orchestrator lock
	// is held; they only hand off.
	cb := exchange.Callbacks{
		OnDelta: func(d stream.Delta) {
			coalescer.Merge(d)
		},
		OnStateChange: func(s exchange.State, err error) {
			ref.send(ExchangeStateMsg{State: s, Err: err})
		},
		OnTitleChange: func(title string) {
			ref.send(TitleChangedMsg{Title: title})
		},
		OnInputRestore: func(text string) {
			ref.send(InputRestoredMsg{Text: text})
		},
	}
	m.orch = exchange.NewOrchestrator(deps.Client, clientMeta{deps.Client}, nil, cb)

	return m
}

// SetProgram wires the running program for callback delivery. Must be
// called before the first exchange starts.
func (m *Model) SetProgram(p *tea.Program) {
	m.ref.set(p)
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case ExchangeStateMsg:
		return m.handleExchangeState(msg)

	case TitleChangedMsg:
		// The orchestrator already stored it; the header renders our copy.
		m.title = msg.Title
		return m, nil

	case InputRestoredMsg:
		m.input.SetValue(msg.Text)
		m.input.CursorEnd()
		return m, nil

	case ConversationsLoadedMsg:
		if msg.Err != nil {
			m.mode = viewChat
			return m, m.note(friendlyError(msg.Err))
		}
		m.convs = msg.Summaries
		if m.listCursor >= len(m.convs) {
			m.listCursor = 0
		}
		return m, nil

	case ConversationOpenedMsg:
		if msg.Err != nil {
			m.mode = viewChat
			return m, m.note(friendlyError(msg.Err))
		}
		if err := m.orch.SetConversation(msg.Conversation); err != nil {
			return m, m.note(err.Error())
		}
		m.mode = viewChat
		m.title = msg.Conversation.Title
		m.currentModel = msg.Conversation.Model
		if m.currentModel == "" {
			m.currentModel = m.cfg.Chat.DefaultModel
		}
		m.status.Model = m.currentModel
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case ConversationDeletedMsg:
		if msg.Err != nil {
			return m, m.note(friendlyError(msg.Err))
		}
		if m.orch.ConversationID() == msg.ID {
			_ = m.orch.SetConversation(model.NewConversation(m.currentModel))
			m.title = ""
			m.refreshViewport()
		}
		return m, m.note("conversation deleted")

	case ConversationRenamedMsg:
		if msg.Err != nil {
			return m, m.note(friendlyError(msg.Err))
		}
		m.orch.SetTitle(msg.Title)
		m.title = msg.Title
		return m, m.note("renamed to " + msg.Title)

	case ConversationSavedMsg:
		if msg.Err != nil {
			return m, m.note("local save failed: " + msg.Err.Error())
		}
		return m, nil

	case SearchResultsMsg:
		if msg.Err != nil {
			return m, m.note(friendlyError(msg.Err))
		}
		m.searchQuery = msg.Query
		m.searchHits = msg.Hits
		m.mode = viewSearch
		return m, nil

	case UploadSettledMsg:
		m.status.PendingUploads = m.uploads.PendingCount()
		if msg.File.Err != nil {
			return m, m.note("upload failed: " + msg.File.Name)
		}
		return m, m.note("attached " + msg.File.Name)

	case ExportDoneMsg:
		if msg.Err != nil {
			return m, m.note("export failed: " + msg.Err.Error())
		}
		return m, m.note("exported to " + msg.Path)

	case StatusNoteMsg:
		m.status.Message = msg.Text
		return m, nil

	case statusClearMsg:
		if msg.seq == m.noteSeq {
			m.status.Message = ""
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// UPDATE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 1
	footerHeight := 3 // spinner line + input + status bar
	vpHeight := m.height - headerHeight - footerHeight
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}

	m.input.Width = m.width - 6
	m.status.Width = m.width
	m.md = components.NewMarkdownRenderer(m.width - 4)
	m.refreshViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays swallow all keys.
	switch m.mode {
	case viewHelp:
		m.mode = viewChat
		return m, nil
	case viewConversations:
		return m.handleListKey(msg)
	case viewSearch:
		if key.Matches(msg, m.keys.Back) || msg.String() == "enter" {
			m.mode = viewChat
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.orch.Cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.orch.State().InFlight() {
			// Rollback and input restore arrive through callbacks.
			m.orch.Cancel()
		}
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
		return m, nil
	case key.Matches(msg, m.keys.Home):
		m.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.End):
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.listCursor > 0 {
			m.listCursor--
		}
	case "down", "j":
		if m.listCursor < len(m.convs)-1 {
			m.listCursor++
		}
	case "enter":
		if m.listCursor < len(m.convs) {
			id := m.convs[m.listCursor].ID
			m.mode = viewChat
			return m, m.openConversationCmd(id)
		}
	case "esc", "q":
		m.mode = viewChat
	}
	return m, nil
}

func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if text == "" {
		return m, nil
	}
	if text[0] == '/' {
		return m.handleCommand(text)
	}
	// Anything other than a repeated /delete disarms the pending confirm.
	m.pendingDelete = ""

	if n := m.uploads.PendingCount(); n > 0 {
		return m, m.note(fmt.Sprintf("%d upload(s) still pending; wait or /detach first", n))
	}
	attachments := m.uploads.Attachments()
	err := m.orch.Submit(context.Background(), text, attachments, m.currentModel)
	if err != nil {
		if errors.Is(err, exchange.ErrExchangeInFlight) {
			return m, m.note("still streaming; press Esc to cancel first")
		}
		return m, m.note(err.Error())
	}

	m.input.Reset()
	m.uploads.Clear()
	m.status.PendingUploads = 0
	m.coalescer.Reset()
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if delta, ok := m.coalescer.Flush(); ok {
		m.applyDelta(delta)
	}
	if m.orch.State().InFlight() {
		return m, streamTickCmd()
	}
	return m, nil
}

func (m Model) handleExchangeState(msg ExchangeStateMsg) (tea.Model, tea.Cmd) {
	switch msg.State {
	case exchange.StatePending:
		m.status.Connection = components.ConnStreaming
		m.spin.SetMessage("Waiting")
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, tea.Batch(m.spin.Start(), streamTickCmd())

	case exchange.StateStreaming:
		return m, nil

	case exchange.StateCompleted:
		m.spin.Stop()
		m.status.Connection = components.ConnIdle
		m.flushFinal()
		m.updateUsage()
		return m, m.saveConversationCmd()

	case exchange.StateCancelled:
		m.spin.Stop()
		m.status.Connection = components.ConnIdle
		m.coalescer.Reset()
		m.refreshViewport()
		return m, m.note("cancelled")

	case exchange.StateFailed:
		m.spin.Stop()
		m.status.Connection = components.ConnError
		m.flushFinal()
		return m, m.note(friendlyError(msg.Err))
	}
	return m, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// applyDelta re-renders after a coalesced batch and adjusts the spinner
// phase label.
func (m *Model) applyDelta(delta stream.Delta) {
	if delta.Answer {
		m.spin.SetMessage("Answering")
	} else if delta.Reasoning {
		m.spin.SetMessage("Thinking")
	}
	m.refreshViewport()
	m.viewport.GotoBottom()
}

// flushFinal drains any pending batch so the terminal frame shows the
// complete reply.
func (m *Model) flushFinal() {
	if delta, ok := m.coalescer.ForceFlush(); ok {
		m.applyDelta(delta)
	} else {
		m.refreshViewport()
		m.viewport.GotoBottom()
	}
}

// updateUsage copies the last reply's token snapshot into the status bar.
func (m *Model) updateUsage() {
	last := m.orch.Snapshot().GetLastMessage()
	if last != nil && last.Role == model.RoleAssistant && !last.Usage.IsZero() {
		usage := last.Usage
		m.status.Usage = &usage
	}
}

// saveConversationCmd persists a snapshot to the local cache and the
// search index after a completed exchange.
func (m *Model) saveConversationCmd() tea.Cmd {
	if m.cache == nil {
		return nil
	}
	snapshot := m.orch.Snapshot()
	cache := m.cache
	idx := m.idx
	return func() tea.Msg {
		if err := cache.Save(snapshot); err != nil {
			return ConversationSavedMsg{Err: err}
		}
		if idx != nil {
			if err := idx.IndexConversation(snapshot); err != nil {
				return ConversationSavedMsg{Err: err}
			}
		}
		return ConversationSavedMsg{}
	}
}

// noteDuration is how long a transient status note stays visible.
const noteDuration = 4 * time.Second

// note shows a transient status-bar message that clears after a delay.
func (m *Model) note(text string) tea.Cmd {
	m.noteSeq++
	seq := m.noteSeq
	set := func() tea.Msg { return StatusNoteMsg{Text: text} }
	clear := tea.Tick(noteDuration, func(time.Time) tea.Msg {
		return statusClearMsg{seq: seq}
	})
	return tea.Batch(set, clear)
}

// friendlyError maps API failures to actionable status text.
func friendlyError(err error) string {
	switch {
	case err == nil:
		return ""
	case api.IsUnauthorized(err):
		return "authentication failed: run 'gemchat auth <token>'"
	case api.IsUnreachable(err):
		return "server unreachable: is it running?"
	case api.IsTimeout(err):
		return "request timed out"
	default:
		return err.Error()
	}
}
