// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/gemchat-tui/internal/api"
	"github.com/jeranaias/gemchat-tui/internal/config"
	"github.com/jeranaias/gemchat-tui/internal/exchange"
	"github.com/jeranaias/gemchat-tui/internal/model"
	"github.com/jeranaias/gemchat-tui/internal/stream"
)

// =============================================================================
// LINE READER
// =============================================================================

// LineReader wraps liner with persistent input history.
// USABILITY: Supports arrow keys for history navigation and line editing.
type LineReader struct {
	line        *liner.State
	historyFile string
}

// NewLineReader creates a reader with history stored in the config dir.
func NewLineReader() *LineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}

	r := &LineReader{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

// ReadInput reads one line, recording non-blank input in history.
func (r *LineReader) ReadInput(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close persists history and releases the terminal.
func (r *LineReader) Close() {
	if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		r.line.WriteHistory(f)
		f.Close()
	}
	r.line.Close()
}

// =============================================================================
// CHAT REPL
// =============================================================================

// HandleChat runs the plain-terminal REPL. Each turn streams the reply
// inline; Ctrl+C during a prompt exits, ".quit" and ".new" are the only
// dot-commands.
func HandleChat(args Args) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 1
	}
	client := NewClient(cfg)

	modelID := cfg.Chat.DefaultModel
	if args.Model != "" {
		modelID = args.Model
	}
	showReasoning := args.Reasoning || cfg.Chat.ShowReasoning

	reader := NewLineReader()
	defer reader.Close()

	warn(args, "gemchat "+Version+" (model: "+modelID+", .quit to exit)")

	conv := model.NewConversation(modelID)
	for {
		input, err := reader.ReadInput("> ")
		if err != nil {
			// Ctrl+C or EOF ends the session.
			fmt.Println()
			return 0
		}

		text := strings.TrimSpace(input)
		switch text {
		case "":
			continue
		case ".quit", ".exit":
			return 0
		case ".new":
			conv = model.NewConversation(modelID)
			warn(args, "started a new conversation")
			continue
		}

		if err := runTurn(client, conv, text, modelID, showReasoning); err != nil {
			fmt.Fprintln(os.Stderr, askErrorText(err))
		}
	}
}

// runTurn submits one exchange and blocks until it settles, printing the
// stream as it arrives.
func runTurn(client *api.Client, conv *model.Conversation, text, modelID string, showReasoning bool) error {
	done := make(chan error, 1)
	var sawAnswer bool

	// Printing happens in the streamer tee; the callback only signals
	// settlement.
	cb := exchange.Callbacks{
		OnStateChange: func(s exchange.State, err error) {
			if s.Terminal() {
				done <- err
			}
		},
	}

	orch := exchange.NewOrchestrator(printingStreamer{client, showReasoning, &sawAnswer}, replMeta{client}, conv, cb)
	if err := orch.Submit(context.Background(), text, nil, modelID); err != nil {
		return err
	}

	err := <-done
	fmt.Println()
	return err
}

// printingStreamer tees stream events to the terminal while forwarding
// them to the orchestrator's callback.
type printingStreamer struct {
	client        *api.Client
	showReasoning bool
	sawAnswer     *bool
}

func (p printingStreamer) SendMessage(ctx context.Context, req api.ChatRequest, callback api.EventCallback) error {
	return p.client.SendMessage(ctx, req, func(ev stream.Event) {
		switch ev.Type {
		case stream.EventThoughts:
			if p.showReasoning {
				fmt.Fprint(os.Stderr, ev.Content)
			}
		case stream.EventAnswer:
			if p.showReasoning && !*p.sawAnswer {
				fmt.Fprintln(os.Stderr)
			}
			*p.sawAnswer = true
			fmt.Print(ev.Content)
		case stream.EventError:
			fmt.Fprintln(os.Stderr, "\n[error]", ev.Content)
		}
		callback(ev)
	})
}

// replMeta creates server conversations lazily for the REPL.
type replMeta struct {
	client *api.Client
}

func (r replMeta) EnsureConversation(ctx context.Context) (string, error) {
	summary, err := r.client.CreateConversation(ctx)
	if err != nil {
		return "", err
	}
	return summary.ID, nil
}

func (r replMeta) RefreshTitle(ctx context.Context, id string) (string, error) {
	return r.client.RefreshTitle(ctx, id)
}
