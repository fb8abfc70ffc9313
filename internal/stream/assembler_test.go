// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"strings"
	"testing"

	"github.com/jeranaias/gemchat-tui/internal/model"
)

// runPipeline feeds a raw stream through decoder, interpreter, and assembler,
// the way the orchestrator wires them in production.
func runPipeline(t *testing.T, a *Assembler, raw string) {
	t.Helper()
	d := NewFrameDecoder()
	in := NewInterpreter()
	for _, payload := range d.Push(raw) {
		if ev, ok := in.Interpret(payload); ok {
			a.Apply(ev)
		}
	}
	d.Close()
}

func TestAssemblerFullScenario(t *testing.T) {
	a := NewAssembler("gemini-2.5-flash")
	runPipeline(t, a, sampleStream)

	if a.Phase() != PhaseFinalized {
		t.Fatalf("phase = %s, want finalized", a.Phase())
	}

	msg := a.Message()
	if msg == nil {
		t.Fatal("no message assembled")
	}
	if msg.IsStreaming {
		t.Error("message still streaming after done")
	}
	if msg.Reasoning != "Let me think.\n" {
		t.Errorf("reasoning = %q", msg.Reasoning)
	}
	if msg.Content != "42" {
		t.Errorf("answer = %q", msg.Content)
	}
	want := model.Usage{PromptTokens: 10, ThoughtsTokens: 5, CompletionTokens: 1}
	if msg.Usage != want {
		t.Errorf("usage = %+v, want %+v", msg.Usage, want)
	}
	if msg.Model != "gemini-2.5-flash" {
		t.Errorf("model = %q", msg.Model)
	}
}

func TestAssemblerThoughtsConcatenationOrder(t *testing.T) {
	a := NewAssembler("")

	// Thoughts interleaved with answers; each category must concatenate in
	// its own arrival order.
	a.Apply(Event{Type: EventThoughts, Content: "t1 "})
	a.Apply(Event{Type: EventAnswer, Content: "a1 "})
	a.Apply(Event{Type: EventThoughts, Content: "t2 "})
	a.Apply(Event{Type: EventAnswer, Content: "a2"})
	a.Apply(Event{Type: EventThoughts, Content: "t3"})

	msg := a.Message()
	if got := msg.DisplayReasoning(); got != "t1 t2 t3" {
		t.Errorf("reasoning = %q", got)
	}
	if got := msg.DisplayContent(); got != "a1 a2" {
		t.Errorf("answer = %q", got)
	}
}

func TestAssemblerPhaseTransitions(t *testing.T) {
	a := NewAssembler("")
	if a.Phase() != PhaseEmpty {
		t.Fatalf("initial phase = %s", a.Phase())
	}

	delta := a.Apply(Event{Type: EventThoughts, Content: "hm"})
	if !delta.Created || a.Phase() != PhaseReasoning {
		t.Errorf("after thoughts: created=%v phase=%s", delta.Created, a.Phase())
	}

	delta = a.Apply(Event{Type: EventAnswer, Content: "a"})
	if delta.Created || a.Phase() != PhaseAnswer {
		t.Errorf("after answer: created=%v phase=%s", delta.Created, a.Phase())
	}

	delta = a.Apply(Event{Type: EventDone})
	if !delta.Finalized || a.Phase() != PhaseFinalized {
		t.Errorf("after done: finalized=%v phase=%s", delta.Finalized, a.Phase())
	}
}

func TestAssemblerAnswerWithoutThoughts(t *testing.T) {
	a := NewAssembler("")
	delta := a.Apply(Event{Type: EventAnswer, Content: "direct"})
	if !delta.Created || a.Phase() != PhaseAnswer {
		t.Errorf("created=%v phase=%s", delta.Created, a.Phase())
	}
	if a.Message().HasReasoning() {
		t.Error("unexpected reasoning section")
	}
}

func TestAssemblerUsageLatestWins(t *testing.T) {
	a := NewAssembler("")
	a.Apply(Event{Type: EventThoughts, Content: "x", Usage: &model.Usage{PromptTokens: 3}})
	a.Apply(Event{Type: EventAnswer, Content: "y"})
	a.Apply(Event{Type: EventAnswer, Content: "z", Usage: &model.Usage{PromptTokens: 10, ThoughtsTokens: 4, CompletionTokens: 2}})

	want := model.Usage{PromptTokens: 10, ThoughtsTokens: 4, CompletionTokens: 2}
	if a.Message().Usage != want {
		t.Errorf("usage = %+v, want %+v (latest snapshot must win wholesale)", a.Message().Usage, want)
	}
}

func TestAssemblerUsageZeroDefault(t *testing.T) {
	a := NewAssembler("")
	a.Apply(Event{Type: EventAnswer, Content: "no usage anywhere"})
	a.Apply(Event{Type: EventDone})
	if !a.Message().Usage.IsZero() {
		t.Errorf("usage = %+v, want zero default", a.Message().Usage)
	}
}

func TestAssemblerDoneIdempotent(t *testing.T) {
	a := NewAssembler("")
	a.Apply(Event{Type: EventAnswer, Content: "done once"})
	a.Apply(Event{Type: EventDone})

	beforeContent := a.Message().Content
	beforeUsage := a.Message().Usage
	delta := a.Apply(Event{Type: EventDone})
	if delta.Changed() {
		t.Errorf("second done produced delta %+v", delta)
	}
	if a.Message().Content != beforeContent || a.Message().Usage != beforeUsage {
		t.Error("second done mutated the message")
	}
}

func TestAssemblerEventsAfterFinalizedIgnored(t *testing.T) {
	a := NewAssembler("")
	a.Apply(Event{Type: EventAnswer, Content: "final"})
	a.Apply(Event{Type: EventDone})

	for _, ev := range []Event{
		{Type: EventAnswer, Content: "late"},
		{Type: EventThoughts, Content: "late"},
		{Type: EventError, Content: "late"},
		{Type: EventAnswer, Usage: &model.Usage{PromptTokens: 99}},
	} {
		if delta := a.Apply(ev); delta.Changed() {
			t.Errorf("post-finalization %s event produced delta %+v", ev.Type, delta)
		}
	}
	if a.Message().Content != "final" {
		t.Errorf("content = %q", a.Message().Content)
	}
	if a.Message().Usage.PromptTokens == 99 {
		t.Error("late usage snapshot applied")
	}
}

func TestAssemblerErrorEventAnnotates(t *testing.T) {
	a := NewAssembler("")
	a.Apply(Event{Type: EventAnswer, Content: "partial answer"})
	delta := a.Apply(Event{Type: EventError, Content: "model overloaded"})

	if !delta.Finalized {
		t.Error("error event did not finalize")
	}
	msg := a.Message()
	if !msg.Failed {
		t.Error("message not marked failed")
	}
	if !strings.Contains(msg.Content, "partial answer") || !strings.Contains(msg.Content, "model overloaded") {
		t.Errorf("content = %q", msg.Content)
	}
}

func TestAssemblerErrorBeforeAnyContent(t *testing.T) {
	a := NewAssembler("")
	delta := a.Apply(Event{Type: EventError, Content: "quota exceeded"})

	if !delta.Created || !delta.Finalized {
		t.Errorf("delta = %+v", delta)
	}
	msg := a.Message()
	if msg == nil || !strings.Contains(msg.Content, "quota exceeded") {
		t.Fatalf("message = %+v", msg)
	}
}

func TestAssemblerDoneCarriesTitle(t *testing.T) {
	a := NewAssembler("")
	a.Apply(Event{Type: EventAnswer, Content: "hi"})
	delta := a.Apply(Event{Type: EventDone, NewTitle: "Greetings"})
	if delta.NewTitle != "Greetings" {
		t.Errorf("NewTitle = %q", delta.NewTitle)
	}
}

func TestAssemblerFinalizeEOF(t *testing.T) {
	a := NewAssembler("")
	a.Apply(Event{Type: EventAnswer, Content: "cut off"})

	delta := a.FinalizeEOF()
	if !delta.Finalized || a.Phase() != PhaseFinalized {
		t.Errorf("delta=%+v phase=%s", delta, a.Phase())
	}
	if a.Message().IsStreaming {
		t.Error("message still streaming after EOF finalize")
	}

	// EOF with nothing assembled stays empty.
	b := NewAssembler("")
	if delta := b.FinalizeEOF(); delta.Changed() {
		t.Errorf("empty EOF finalize produced delta %+v", delta)
	}
	if b.Message() != nil {
		t.Error("empty EOF finalize created a message")
	}
}

func TestPipelineMalformedFrameRecovery(t *testing.T) {
	a := NewAssembler("")
	raw := "data:{not valid json\n\ndata:{\"type\":\"answer\",\"content\":\"still here\"}\n\n"
	runPipeline(t, a, raw)

	if a.Message() == nil || a.Message().DisplayContent() != "still here" {
		t.Fatalf("message = %+v", a.Message())
	}
}

func BenchmarkAssemblerApply(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		a := NewAssembler("")
		for j := 0; j < 50; j++ {
			a.Apply(Event{Type: EventAnswer, Content: "token "})
		}
		a.Apply(Event{Type: EventDone})
	}
}
