// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/gemchat-tui/internal/api"
	"github.com/jeranaias/gemchat-tui/internal/model"
	"github.com/jeranaias/gemchat-tui/internal/stream"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// Streamer opens the outbound transfer for one turn. Implemented by
// *api.Client; tests substitute scripted streams.
type Streamer interface {
	SendMessage(ctx context.Context, req api.ChatRequest, callback api.EventCallback) error
}

// Metadata is the conversation-metadata collaborator.
type Metadata interface {
	// EnsureConversation creates a conversation when none is selected and
	// returns its identifier.
	EnsureConversation(ctx context.Context) (string, error)

	// RefreshTitle fetches the current server-side title after completion.
	RefreshTitle(ctx context.Context, id string) (string, error)
}

// Callbacks notify the presentation layer. All callbacks are invoked while
// the orchestrator lock is held; implementations must not call back into the
// orchestrator and should hand off (for example via program.Send) instead of
// doing work inline.
type Callbacks struct {
	// OnDelta fires for every render-relevant change to the reply message.
	OnDelta func(delta stream.Delta)

	// OnStateChange fires on every exchange state transition. err is set
	// for StateFailed.
	OnStateChange func(state State, err error)

	// OnTitleChange fires when the conversation title changes (done event
	// new_title, or post-completion refresh).
	OnTitleChange func(title string)

	// OnInputRestore fires on cancellation with the text to put back in
	// the editor.
	OnInputRestore func(text string)
}

// =============================================================================
// ORCHESTRATOR
// =============================================================================

// Orchestrator owns the conversation's visible message list and the single
// exchange slot. Submissions while an exchange is in flight are rejected,
// not queued.
type Orchestrator struct {
	mu sync.Mutex

	client Streamer
	meta   Metadata
	cb     Callbacks

	conv *model.Conversation

	state           State
	cancelFunc      context.CancelFunc
	cancelled       bool
	lastUserMessage string
	asm             *stream.Assembler
	replyRendered   bool

	// seq identifies the current exchange generation; events carrying a
	// stale generation arrived after cancellation and are discarded.
	seq int
}

// NewOrchestrator creates an orchestrator for one conversation.
func NewOrchestrator(client Streamer, meta Metadata, conv *model.Conversation, cb Callbacks) *Orchestrator {
	if conv == nil {
		conv = model.NewConversation(model.DefaultModel)
	}
	return &Orchestrator{
		client: client,
		meta:   meta,
		conv:   conv,
		cb:     cb,
		state:  StateIdle,
	}
}

// Snapshot returns a deep copy of the owned conversation. The copy is safe
// to read while the reader goroutine appends to the live reply; rendering
// and persistence must go through here, never through the live pointer.
func (o *Orchestrator) Snapshot() *model.Conversation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.Clone()
}

// ConversationID returns the server-assigned id, empty before the first
// accepted submit.
func (o *Orchestrator) ConversationID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.ID
}

// SetTitle updates the owned conversation's title after a server-side
// rename.
func (o *Orchestrator) SetTitle(title string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.conv.SetTitle(title)
}

// SetConversation swaps the owned conversation. Rejected while an exchange
// is in flight.
func (o *Orchestrator) SetConversation(conv *model.Conversation) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.InFlight() {
		return ErrExchangeInFlight
	}
	o.conv = conv
	o.state = StateIdle
	return nil
}

// State returns the current exchange state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// LastUserMessage returns the text recorded at the last accepted submit.
func (o *Orchestrator) LastUserMessage() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastUserMessage
}

// =============================================================================
// SUBMIT
// =============================================================================

// Submit starts one exchange: the user turn is rendered optimistically, the
// transfer is opened, and the reply events are folded into the conversation
// as they arrive. Returns ErrExchangeInFlight when the slot is taken.
func (o *Orchestrator) Submit(ctx context.Context, text string, attachments []model.Attachment, modelID string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	if o.state.InFlight() {
		o.mu.Unlock()
		return ErrExchangeInFlight
	}

	// A conversation is created lazily, exactly once, on the first submit.
	if o.conv.ID == "" && o.meta != nil {
		id, err := o.meta.EnsureConversation(ctx)
		if err != nil {
			o.mu.Unlock()
			return err
		}
		o.conv.ID = id
	}

	if modelID == "" {
		modelID = o.conv.Model
	}
	if modelID == "" {
		modelID = model.DefaultModel
	}

	o.lastUserMessage = text
	o.conv.AddUserMessage(text, attachments)
	o.asm = stream.NewAssembler(modelID)
	o.replyRendered = false
	o.cancelled = false
	o.seq++
	gen := o.seq

	streamCtx, cancel := context.WithCancel(ctx)
	o.cancelFunc = cancel
	o.setStateLocked(StatePending, nil)

	req := api.ChatRequest{
		ConversationID: o.conv.ID,
		Message:        text,
		Model:          modelID,
		Files:          toEntries(attachments),
	}
	o.mu.Unlock()

	go o.run(streamCtx, gen, req)
	return nil
}

// run drives the transfer on its own goroutine; all shared state is touched
// back under the lock in handleEvent and finish.
func (o *Orchestrator) run(ctx context.Context, gen int, req api.ChatRequest) {
	err := o.client.SendMessage(ctx, req, func(ev stream.Event) {
		o.handleEvent(gen, ev)
	})
	o.finish(gen, err)
}

// handleEvent folds one decoded event into the assembler and the visible
// conversation.
func (o *Orchestrator) handleEvent(gen int, ev stream.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Late buffered data after abort, or events for a superseded exchange.
	if gen != o.seq || o.cancelled || o.state.Terminal() {
		return
	}

	if o.state == StatePending {
		o.setStateLocked(StateStreaming, nil)
	}

	delta := o.asm.Apply(ev)
	if !delta.Changed() {
		return
	}
	if delta.Created && !o.replyRendered {
		o.conv.AddMessage(o.asm.Message())
		o.replyRendered = true
	}
	if delta.NewTitle != "" {
		o.conv.SetTitle(delta.NewTitle)
		if o.cb.OnTitleChange != nil {
			o.cb.OnTitleChange(delta.NewTitle)
		}
	}
	if o.cb.OnDelta != nil {
		o.cb.OnDelta(delta)
	}
}

// finish settles the exchange once the transfer returns.
func (o *Orchestrator) finish(gen int, err error) {
	o.mu.Lock()

	if gen != o.seq || o.cancelled || o.state.Terminal() {
		// Cancellation already rolled back and released the slot.
		o.mu.Unlock()
		return
	}

	if err != nil && errors.Is(err, context.Canceled) {
		// The context died without Cancel() being called (e.g. parent
		// context shutdown). Treat like cancellation without rollback
		// bookkeeping: just release the slot.
		o.setStateLocked(StateCancelled, nil)
		o.mu.Unlock()
		return
	}

	if err != nil {
		// Transport failure: one error-equivalent event, no rollback.
		// The user's turn stays visible with an inline error reply.
		delta := o.asm.Apply(stream.Event{Type: stream.EventError, Content: err.Error()})
		if delta.Created && !o.replyRendered {
			o.conv.AddMessage(o.asm.Message())
			o.replyRendered = true
		}
		if o.cb.OnDelta != nil && delta.Changed() {
			o.cb.OnDelta(delta)
		}
		o.setStateLocked(StateFailed, err)
		o.mu.Unlock()
		return
	}

	if delta := o.asm.FinalizeEOF(); delta.Changed() && o.cb.OnDelta != nil {
		o.cb.OnDelta(delta)
	}
	o.setStateLocked(StateCompleted, nil)
	convID := o.conv.ID
	hadTitle := o.conv.Title != ""
	o.mu.Unlock()

	o.refreshMetadata(convID, hadTitle)
}

// refreshMetadata pulls the server-side title after a completed exchange.
// The done event usually carries new_title already; this covers servers that
// generate it after the stream closes.
func (o *Orchestrator) refreshMetadata(convID string, hadTitle bool) {
	if o.meta == nil || convID == "" || hadTitle {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	title, err := o.meta.RefreshTitle(ctx, convID)
	if err != nil || title == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	o.conv.SetTitle(title)
	if o.cb.OnTitleChange != nil {
		o.cb.OnTitleChange(title)
	}
}

// =============================================================================
// CANCEL
// =============================================================================

// Cancel aborts the in-flight exchange: the transfer is aborted, the
// optimistic user turn and the partial reply are removed from the
// conversation, and the submitted text is handed back for the editor.
// Returns the restored text and true, or false when nothing was in flight.
func (o *Orchestrator) Cancel() (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.state.InFlight() {
		return "", false
	}

	o.cancelled = true
	if o.cancelFunc != nil {
		o.cancelFunc()
		o.cancelFunc = nil
	}

	// The user turn is always rendered on accept; the reply only once the
	// first event created it.
	turns := 1
	if o.replyRendered {
		turns = 2
	}
	o.conv.RemoveLastTurns(turns)

	restored := o.lastUserMessage
	o.setStateLocked(StateCancelled, nil)
	if o.cb.OnInputRestore != nil {
		o.cb.OnInputRestore(restored)
	}

	// Invalidate any events still buffered on the reader goroutine.
	o.seq++
	return restored, true
}

// =============================================================================
// HELPERS
// =============================================================================

func (o *Orchestrator) setStateLocked(state State, err error) {
	o.state = state
	if o.cb.OnStateChange != nil {
		o.cb.OnStateChange(state, err)
	}
}

func toEntries(attachments []model.Attachment) []api.AttachmentEntry {
	if len(attachments) == 0 {
		return nil
	}
	entries := make([]api.AttachmentEntry, 0, len(attachments))
	for _, a := range attachments {
		entries = append(entries, api.AttachmentEntry{
			Path:     a.URI,
			Name:     a.Name,
			MimeType: a.MimeType,
			FileID:   a.FileID,
		})
	}
	return entries
}
