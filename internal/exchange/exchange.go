// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"errors"
)

// =============================================================================
// EXCHANGE STATE
// =============================================================================

// State is the lifecycle state of an exchange. An exchange is created
// Pending, becomes Streaming when the first reply event is decoded, and
// terminates in exactly one of Completed, Cancelled, or Failed.
type State int

const (
	// StateIdle means no exchange exists for the conversation.
	StateIdle State = iota
	StatePending
	StateStreaming
	StateCompleted
	StateCancelled
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// InFlight reports whether the exchange still holds the conversation's slot.
func (s State) InFlight() bool {
	return s == StatePending || s == StateStreaming
}

// Terminal reports whether the exchange has ended.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrExchangeInFlight is returned when a submit races an active exchange.
	ErrExchangeInFlight = errors.New("an exchange is already streaming for this conversation")

	// ErrEmptyMessage is returned for a blank submission.
	ErrEmptyMessage = errors.New("message is empty")
)
