// gemchat - a terminal client for a Gemini-backed chat server.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/jeranaias/gemchat-tui/internal/cli"
	"github.com/jeranaias/gemchat-tui/internal/config"
	"github.com/jeranaias/gemchat-tui/internal/index"
	"github.com/jeranaias/gemchat-tui/internal/storage"
	"github.com/jeranaias/gemchat-tui/internal/ui/chat"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	switch cmd {
	case cli.CmdTUI:
		os.Exit(runTUI(args))
	case cli.CmdAsk:
		os.Exit(cli.HandleAsk(args))
	case cli.CmdChat:
		os.Exit(cli.HandleChat(args))
	case cli.CmdAuth:
		os.Exit(cli.HandleAuth(args))
	case cli.CmdConfig:
		os.Exit(cli.HandleConfig(args))
	case cli.CmdSearch:
		os.Exit(cli.HandleSearch(args))
	case cli.CmdExport:
		os.Exit(cli.HandleExport(args))
	case cli.CmdVersion:
		cli.PrintVersion()
	case cli.CmdHelp:
		cli.PrintUsage()
	}
}

// runTUI wires the full-screen interface: config, API client, local
// cache, search index, and the config file watcher.
func runTUI(args cli.Args) int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "gemchat needs an interactive terminal; try 'gemchat ask <question>'")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 1
	}
	if args.Model != "" {
		cfg.Chat.DefaultModel = args.Model
	}
	if args.Reasoning {
		cfg.Chat.ShowReasoning = true
	}

	client := cli.NewClient(cfg)

	// The cache and index are conveniences; the TUI runs without them.
	var cache *storage.Cache
	var idx *index.MessageIndex
	if cacheDir, err := cfg.ResolveCacheDir(); err == nil {
		if c, err := storage.NewCache(filepath.Join(cacheDir, "conversations"), cfg.Cache.MaxConversations); err == nil {
			cache = c
			defer cache.Close()
		} else if !args.Quiet {
			fmt.Fprintln(os.Stderr, "local cache disabled:", err)
		}
		if i, err := index.Open(filepath.Join(cacheDir, "index.db")); err == nil {
			idx = i
			defer idx.Close()
		} else if !args.Quiet {
			fmt.Fprintln(os.Stderr, "search disabled:", err)
		}
	}

	m := chat.New(chat.Deps{
		Config: cfg,
		Client: client,
		Cache:  cache,
		Index:  idx,
	})

	p := tea.NewProgram(*m, tea.WithAltScreen())
	m.SetProgram(p)

	// Surface external config edits without restarting the event loop.
	if cfgPath, err := config.Path(); err == nil {
		watcher, werr := config.NewWatcher(cfgPath, func(updated *config.Config) {
			p.Send(chat.StatusNoteMsg{Text: "config changed on disk; restart to apply"})
		})
		if werr == nil && watcher.Watch() == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}
