// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"github.com/jeranaias/gemchat-tui/internal/model"
)

// errorAnnotation prefixes a server-signaled error when it is appended to
// answer text that already has content.
const errorAnnotation = "\n\n[error] "

// =============================================================================
// PHASE
// =============================================================================

// Phase is the lifecycle state of the assembler.
type Phase int

const (
	// PhaseEmpty means no reply message has been created yet.
	PhaseEmpty Phase = iota
	// PhaseReasoning means thoughts have arrived but no answer text yet.
	PhaseReasoning
	// PhaseAnswer means answer text has begun; the reasoning section is
	// static from here on (late thoughts still append to it, per the wire
	// contract, but the UI treats it as settled).
	PhaseAnswer
	// PhaseFinalized means a terminal event was observed or the stream
	// ended. All further events are ignored.
	PhaseFinalized
)

// String returns the phase name for diagnostics.
func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseReasoning:
		return "reasoning"
	case PhaseAnswer:
		return "answer"
	case PhaseFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// =============================================================================
// DELTA
// =============================================================================

// Delta describes what an applied event changed, for render scheduling.
// A zero Delta means the event was a no-op and nothing needs re-rendering.
type Delta struct {
	Created      bool
	Reasoning    bool
	Answer       bool
	UsageChanged bool
	Finalized    bool
	NewTitle     string
}

// Changed reports whether anything observable changed.
func (d Delta) Changed() bool {
	return d.Created || d.Reasoning || d.Answer || d.UsageChanged ||
		d.Finalized || d.NewTitle != ""
}

// =============================================================================
// ASSEMBLER
// =============================================================================

// Assembler owns the in-progress assistant message for one exchange. It is
// the only writer of that message: reasoning and answer text are append-only
// in arrival order, and the usage snapshot is replaced wholesale by whichever
// event carried one last.
type Assembler struct {
	phase   Phase
	modelID string
	msg     *model.Message
}

// NewAssembler creates an assembler for a reply produced by modelID.
func NewAssembler(modelID string) *Assembler {
	return &Assembler{modelID: modelID}
}

// Phase returns the current lifecycle state.
func (a *Assembler) Phase() Phase {
	return a.phase
}

// Message returns the assembled message, or nil before the first event that
// creates one.
func (a *Assembler) Message() *model.Message {
	return a.msg
}

// Apply folds one event into the message and reports what changed.
// Events arriving after finalization are ignored.
func (a *Assembler) Apply(ev Event) Delta {
	if a.phase == PhaseFinalized {
		return Delta{}
	}

	var delta Delta

	switch ev.Type {
	case EventThoughts:
		delta.Created = a.ensureMessage()
		a.msg.AppendReasoning(ev.Content)
		delta.Reasoning = true
		if a.phase == PhaseEmpty {
			a.phase = PhaseReasoning
		}

	case EventAnswer:
		delta.Created = a.ensureMessage()
		a.msg.AppendContent(ev.Content)
		delta.Answer = true
		a.phase = PhaseAnswer

	case EventDone:
		delta.NewTitle = ev.NewTitle
		a.finalize(&delta)

	case EventError:
		delta.Created = a.ensureMessage()
		if a.msg.IsEmpty() {
			a.msg.AppendContent("[error] " + ev.Content)
		} else {
			a.msg.AppendContent(errorAnnotation + ev.Content)
		}
		a.msg.Failed = true
		delta.Answer = true
		a.finalize(&delta)
	}

	if ev.Usage != nil && a.msg != nil {
		a.msg.SetUsage(*ev.Usage)
		delta.UsageChanged = true
	}

	return delta
}

// FinalizeEOF closes the assembler when the stream ended without a terminal
// event. No-op when already finalized or when nothing was ever created.
func (a *Assembler) FinalizeEOF() Delta {
	if a.phase == PhaseFinalized || a.msg == nil {
		return Delta{}
	}
	var delta Delta
	a.finalize(&delta)
	return delta
}

func (a *Assembler) ensureMessage() bool {
	if a.msg != nil {
		return false
	}
	a.msg = model.NewAssistantMessage(a.modelID)
	return true
}

func (a *Assembler) finalize(delta *Delta) {
	// A terminal event with no message yet still closes the exchange; the
	// usage replace below needs a message to land on.
	if a.msg == nil {
		a.msg = model.NewAssistantMessage(a.modelID)
		delta.Created = true
	}
	a.msg.FinalizeStream()
	a.phase = PhaseFinalized
	delta.Finalized = true
}
