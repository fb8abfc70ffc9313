// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"reflect"
	"testing"
)

const sampleStream = "data:{\"type\":\"thoughts\",\"content\":\"Let me \"}\n\n" +
	"data:{\"type\":\"thoughts\",\"content\":\"think.\\n\"}\n\n" +
	"data:{\"type\":\"answer\",\"content\":\"42\"}\n\n" +
	"data:{\"type\":\"done\",\"usage\":{\"prompt_tokens\":10,\"completion_tokens\":1,\"thoughts_tokens\":5}}\n\n"

func decodeAll(t *testing.T, chunks []string) []string {
	t.Helper()
	d := NewFrameDecoder()
	var frames []string
	for _, c := range chunks {
		frames = append(frames, d.Push(c)...)
	}
	d.Close()
	return frames
}

func TestDecoderSingleChunk(t *testing.T) {
	frames := decodeAll(t, []string{sampleStream})
	if len(frames) != 4 {
		t.Fatalf("got %d frames, want 4", len(frames))
	}
	if frames[0] != `{"type":"thoughts","content":"Let me "}` {
		t.Errorf("frame[0] = %q", frames[0])
	}
}

func TestDecoderChunkBoundaryInvariance(t *testing.T) {
	want := decodeAll(t, []string{sampleStream})

	// Split the byte stream at every possible single boundary, including
	// mid-frame and mid-delimiter, and at a few pathological widths.
	for i := 1; i < len(sampleStream); i++ {
		got := decodeAll(t, []string{sampleStream[:i], sampleStream[i:]})
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("split at %d: got %v, want %v", i, got, want)
		}
	}

	for _, width := range []int{1, 2, 3, 7} {
		var chunks []string
		for i := 0; i < len(sampleStream); i += width {
			end := i + width
			if end > len(sampleStream) {
				end = len(sampleStream)
			}
			chunks = append(chunks, sampleStream[i:end])
		}
		if got := decodeAll(t, chunks); !reflect.DeepEqual(got, want) {
			t.Fatalf("width %d: got %v, want %v", width, got, want)
		}
	}
}

func TestDecoderNonDataFramesSkipped(t *testing.T) {
	d := NewFrameDecoder()
	frames := d.Push("event: ping\n\ndata:{\"type\":\"answer\",\"content\":\"ok\"}\n\n")
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if d.SkippedFrames() != 1 {
		t.Errorf("SkippedFrames = %d, want 1", d.SkippedFrames())
	}
}

func TestDecoderPartialFrameDroppedOnClose(t *testing.T) {
	d := NewFrameDecoder()
	frames := d.Push("data:{\"type\":\"answer\",\"content\":\"hi\"}\n\ndata:{\"type\":\"done\"")
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if d.Pending() == "" {
		t.Fatal("expected a buffered partial frame")
	}
	if dropped := d.Close(); dropped == 0 {
		t.Error("Close() reported no dropped bytes")
	}
	if d.Pending() != "" {
		t.Error("pending buffer not cleared by Close")
	}
}

func TestDecoderBlankChunks(t *testing.T) {
	d := NewFrameDecoder()
	if got := d.Push(""); got != nil {
		t.Errorf("empty chunk produced frames: %v", got)
	}
	if got := d.Push("\n\n\n\n"); got != nil {
		t.Errorf("blank frames produced payloads: %v", got)
	}
}

func TestDecoderCarriageReturns(t *testing.T) {
	d := NewFrameDecoder()
	frames := d.Push("data:{\"type\":\"answer\",\"content\":\"ok\"}\r\n\n")
	if len(frames) != 1 || frames[0] != `{"type":"answer","content":"ok"}` {
		t.Errorf("frames = %v", frames)
	}
}

func BenchmarkDecoderPush(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		d := NewFrameDecoder()
		d.Push(sampleStream)
		d.Close()
	}
}
