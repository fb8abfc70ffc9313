// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/gemchat-tui/internal/stream"
)

// =============================================================================
// RENDER COALESCER
// =============================================================================

// RenderCoalescer merges streaming deltas so the viewport re-renders at a
// capped frame rate instead of once per token. Deltas are folded together
// under a mutex: the streaming goroutine merges, the Bubble Tea loop
// flushes on tick.
//
// A flush happens when either enough deltas accumulated (batch size) or
// enough time passed since the last flush (frame budget).
type RenderCoalescer struct {
	mu         sync.Mutex
	pending    stream.Delta
	deltaCount int
	lastFlush  time.Time
}

// coalescer tuning. 30fps keeps streaming smooth without burning CPU on
// fast token streams.
const (
	coalesceBatchSize = 15
	coalesceInterval  = 33 * time.Millisecond
)

// NewRenderCoalescer creates a coalescer with default tuning.
func NewRenderCoalescer() *RenderCoalescer {
	return &RenderCoalescer{lastFlush: time.Now()}
}

// Merge folds a delta into the pending batch. Safe to call from the
// streaming goroutine.
func (rc *RenderCoalescer) Merge(d stream.Delta) {
	if !d.Changed() {
		return
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.pending.Created = rc.pending.Created || d.Created
	rc.pending.Reasoning = rc.pending.Reasoning || d.Reasoning
	rc.pending.Answer = rc.pending.Answer || d.Answer
	rc.pending.UsageChanged = rc.pending.UsageChanged || d.UsageChanged
	rc.pending.Finalized = rc.pending.Finalized || d.Finalized
	if d.NewTitle != "" {
		rc.pending.NewTitle = d.NewTitle
	}
	rc.deltaCount++
}

// Flush returns the merged delta when a flush is due, clearing the batch.
func (rc *RenderCoalescer) Flush() (stream.Delta, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.pending.Changed() {
		return stream.Delta{}, false
	}
	// Finalization flushes immediately so the completed reply is not held
	// back a frame.
	if !rc.pending.Finalized &&
		rc.deltaCount < coalesceBatchSize &&
		time.Since(rc.lastFlush) < coalesceInterval {
		return stream.Delta{}, false
	}
	return rc.takeLocked(), true
}

// ForceFlush returns whatever is pending regardless of thresholds.
func (rc *RenderCoalescer) ForceFlush() (stream.Delta, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.pending.Changed() {
		return stream.Delta{}, false
	}
	return rc.takeLocked(), true
}

// Reset drops any pending batch. Used on cancel and on new exchanges.
func (rc *RenderCoalescer) Reset() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.pending = stream.Delta{}
	rc.deltaCount = 0
	rc.lastFlush = time.Now()
}

// Pending returns the number of merged deltas awaiting flush.
func (rc *RenderCoalescer) Pending() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.deltaCount
}

func (rc *RenderCoalescer) takeLocked() stream.Delta {
	d := rc.pending
	rc.pending = stream.Delta{}
	rc.deltaCount = 0
	rc.lastFlush = time.Now()
	return d
}

// =============================================================================
// STREAMING TICK COMMAND
// =============================================================================

// streamTickCmd schedules the next coalesced render frame.
func streamTickCmd() tea.Cmd {
	return tea.Tick(coalesceInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
