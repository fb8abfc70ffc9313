// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
)

// dataPrefix marks a data-bearing frame. Frames with any other prefix are
// reserved for future server event kinds and are skipped.
const dataPrefix = "data:"

// =============================================================================
// FRAME DECODER
// =============================================================================

// FrameDecoder splits an incrementally delivered text stream into discrete
// frame payloads. Frames are separated by a blank line; a chunk boundary may
// fall anywhere, including mid-frame, so the trailing partial frame is
// buffered and prepended to the next chunk before re-splitting.
//
// The decoder knows nothing about the payload semantics beyond the data
// prefix; classification happens in the Interpreter.
type FrameDecoder struct {
	pending strings.Builder
	skipped int
}

// NewFrameDecoder creates an empty decoder.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Push feeds the next chunk and returns the payloads of every frame completed
// by it, in arrival order. Payloads have the data prefix and surrounding
// whitespace removed.
func (d *FrameDecoder) Push(chunk string) []string {
	if chunk == "" {
		return nil
	}

	d.pending.WriteString(chunk)
	buffered := d.pending.String()

	parts := strings.Split(buffered, "\n\n")
	if len(parts) == 1 {
		// No boundary yet; everything stays buffered.
		return nil
	}

	d.pending.Reset()
	d.pending.WriteString(parts[len(parts)-1])

	var payloads []string
	for _, frame := range parts[:len(parts)-1] {
		frame = strings.TrimSpace(strings.ReplaceAll(frame, "\r", ""))
		if frame == "" {
			continue
		}
		if !strings.HasPrefix(frame, dataPrefix) {
			d.skipped++
			continue
		}
		payloads = append(payloads, strings.TrimSpace(frame[len(dataPrefix):]))
	}
	return payloads
}

// Close signals clean stream completion. A buffered partial frame at this
// point is incomplete and unusable; it is dropped, not surfaced as an error.
// Returns the number of bytes discarded so callers can diagnose.
func (d *FrameDecoder) Close() int {
	n := d.pending.Len()
	d.pending.Reset()
	return n
}

// Pending returns the currently buffered partial frame.
func (d *FrameDecoder) Pending() string {
	return d.pending.String()
}

// SkippedFrames returns how many non-data frames were discarded.
func (d *FrameDecoder) SkippedFrames() int {
	return d.skipped
}
