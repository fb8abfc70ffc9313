// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/gemchat-tui/internal/stream"
)

func TestCoalescerEmptyFlush(t *testing.T) {
	rc := NewRenderCoalescer()

	if _, ok := rc.Flush(); ok {
		t.Error("empty coalescer should not flush")
	}
	if _, ok := rc.ForceFlush(); ok {
		t.Error("empty coalescer should not force-flush")
	}
}

func TestCoalescerMergesFlags(t *testing.T) {
	rc := NewRenderCoalescer()
	rc.Merge(stream.Delta{Created: true, Reasoning: true})
	rc.Merge(stream.Delta{Answer: true})
	rc.Merge(stream.Delta{UsageChanged: true, NewTitle: "Hello"})

	d, ok := rc.ForceFlush()
	if !ok {
		t.Fatal("expected pending delta")
	}
	if !d.Created || !d.Reasoning || !d.Answer || !d.UsageChanged {
		t.Errorf("flags not merged: %+v", d)
	}
	if d.NewTitle != "Hello" {
		t.Errorf("NewTitle = %q, want Hello", d.NewTitle)
	}

	if rc.Pending() != 0 {
		t.Error("flush should clear the batch")
	}
}

func TestCoalescerNoopDeltaIgnored(t *testing.T) {
	rc := NewRenderCoalescer()
	rc.Merge(stream.Delta{})
	if rc.Pending() != 0 {
		t.Error("zero delta should not count")
	}
}

func TestCoalescerBatchSizeTriggersFlush(t *testing.T) {
	rc := NewRenderCoalescer()
	// lastFlush is just set, so only the batch threshold can trigger.
	for i := 0; i < coalesceBatchSize; i++ {
		rc.Merge(stream.Delta{Answer: true})
	}
	if _, ok := rc.Flush(); !ok {
		t.Error("batch threshold should trigger a flush")
	}
}

func TestCoalescerTimeThresholdTriggersFlush(t *testing.T) {
	rc := NewRenderCoalescer()
	rc.Merge(stream.Delta{Answer: true})

	if _, ok := rc.Flush(); ok {
		t.Error("single fresh delta should be held back")
	}

	rc.mu.Lock()
	rc.lastFlush = time.Now().Add(-time.Second)
	rc.mu.Unlock()

	if _, ok := rc.Flush(); !ok {
		t.Error("stale batch should flush on time threshold")
	}
}

func TestCoalescerFinalizedFlushesImmediately(t *testing.T) {
	rc := NewRenderCoalescer()
	rc.Merge(stream.Delta{Finalized: true})

	d, ok := rc.Flush()
	if !ok {
		t.Fatal("finalized delta should bypass thresholds")
	}
	if !d.Finalized {
		t.Error("Finalized flag lost")
	}
}

func TestCoalescerReset(t *testing.T) {
	rc := NewRenderCoalescer()
	rc.Merge(stream.Delta{Answer: true})
	rc.Reset()
	if _, ok := rc.ForceFlush(); ok {
		t.Error("reset should drop the pending batch")
	}
}

func TestCoalescerConcurrentMerge(t *testing.T) {
	rc := NewRenderCoalescer()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rc.Merge(stream.Delta{Answer: true})
			}
		}()
	}
	wg.Wait()

	d, ok := rc.ForceFlush()
	if !ok || !d.Answer {
		t.Error("merged answer flag missing after concurrent writes")
	}
}
