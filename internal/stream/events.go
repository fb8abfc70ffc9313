// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"encoding/json"

	"github.com/jeranaias/gemchat-tui/internal/model"
)

// =============================================================================
// EVENT TYPES
// =============================================================================

// EventType identifies the semantic kind of a stream event. The set is
// closed; unknown wire types are dropped by the Interpreter.
type EventType string

const (
	EventThoughts EventType = "thoughts"
	EventAnswer   EventType = "answer"
	EventDone     EventType = "done"
	EventError    EventType = "error"
)

// Event is one classified unit decoded from a frame. Content for thoughts
// and answer events is an incremental fragment to append, never a full
// replacement. Usage, when present, is a cumulative snapshot that replaces
// any earlier one wholesale.
type Event struct {
	Type     EventType
	Content  string
	NewTitle string
	Usage    *model.Usage
}

// =============================================================================
// WIRE SHAPES
// =============================================================================

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	ThoughtsTokens   int `json:"thoughts_tokens"`
}

type wireEvent struct {
	Type     string     `json:"type"`
	Content  string     `json:"content"`
	NewTitle string     `json:"new_title"`
	Usage    *wireUsage `json:"usage"`
}

// =============================================================================
// INTERPRETER
// =============================================================================

// Interpreter parses frame payloads into Events. One corrupt frame must not
// lose subsequent valid frames, so parse failures and unknown types are
// swallowed; the counters expose how many were dropped.
type Interpreter struct {
	parseFailures int
	unknownTypes  int
}

// NewInterpreter creates an Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Interpret parses one payload. The boolean is false when the payload was
// dropped (invalid JSON or unrecognized type).
func (in *Interpreter) Interpret(payload string) (Event, bool) {
	var wire wireEvent
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		in.parseFailures++
		return Event{}, false
	}

	var ev Event
	switch EventType(wire.Type) {
	case EventThoughts, EventAnswer, EventError:
		ev.Type = EventType(wire.Type)
		ev.Content = wire.Content
	case EventDone:
		ev.Type = EventDone
		ev.NewTitle = wire.NewTitle
	default:
		in.unknownTypes++
		return Event{}, false
	}

	if wire.Usage != nil {
		ev.Usage = &model.Usage{
			PromptTokens:     wire.Usage.PromptTokens,
			ThoughtsTokens:   wire.Usage.ThoughtsTokens,
			CompletionTokens: wire.Usage.CompletionTokens,
		}
	}
	return ev, true
}

// ParseFailures returns how many payloads failed to parse.
func (in *Interpreter) ParseFailures() int {
	return in.parseFailures
}

// UnknownTypes returns how many payloads carried an unrecognized type.
func (in *Interpreter) UnknownTypes() int {
	return in.unknownTypes
}
