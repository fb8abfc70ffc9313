// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/jeranaias/gemchat-tui/internal/api"
	"github.com/jeranaias/gemchat-tui/internal/config"
	"github.com/jeranaias/gemchat-tui/internal/stream"
)

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk runs a one-shot question: the answer streams to stdout and is
// re-rendered as markdown at the end when stdout is a terminal.
func HandleAsk(args Args) int {
	query := strings.TrimSpace(strings.Join(args.Raw, " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: gemchat ask <question>")
		return 1
	}

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

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	asm := stream.NewAssembler(modelID)
	showReasoning := args.Reasoning || cfg.Chat.ShowReasoning

	err = client.SendMessage(context.Background(), api.ChatRequest{
		Message: query,
		Model:   modelID,
	}, func(ev stream.Event) {
		delta := asm.Apply(ev)
		switch {
		case delta.Reasoning && showReasoning:
			fmt.Fprint(os.Stderr, ev.Content)
		case delta.Answer:
			// Stream raw text live; a terminal gets the pretty render
			// after the stream closes.
			if !isTTY {
				fmt.Print(ev.Content)
			}
		}
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, askErrorText(err))
		return 1
	}
	asm.FinalizeEOF()

	msg := asm.Message()
	if msg == nil || msg.Content == "" {
		fmt.Fprintln(os.Stderr, "no answer received")
		return 1
	}
	if msg.Failed {
		if !isTTY {
			fmt.Println()
		} else {
			fmt.Println(msg.Content)
		}
		return 1
	}

	if isTTY {
		fmt.Println(renderMarkdown(msg.Content))
		if !args.Quiet && !msg.Usage.IsZero() {
			fmt.Fprintln(os.Stderr, msg.Usage.Format())
		}
	} else {
		fmt.Println()
	}
	return 0
}

// renderMarkdown renders markdown for terminal output, degrading to plain
// text when glamour cannot initialize.
func renderMarkdown(content string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(out, "\n")
}

// askErrorText maps transport failures to actionable messages.
func askErrorText(err error) string {
	switch {
	case api.IsUnauthorized(err):
		return "authentication failed: run 'gemchat auth <token>'"
	case api.IsUnreachable(err):
		return "cannot reach the chat server: check server.url in the config"
	case api.IsTimeout(err):
		return "request timed out"
	default:
		return err.Error()
	}
}
