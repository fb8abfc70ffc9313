// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jeranaias/gemchat-tui/internal/config"
	"github.com/jeranaias/gemchat-tui/internal/export"
	"github.com/jeranaias/gemchat-tui/internal/index"
	"github.com/jeranaias/gemchat-tui/internal/storage"
)

// =============================================================================
// SEARCH COMMAND
// =============================================================================

// HandleSearch queries the local full-text index from the command line.
func HandleSearch(args Args) int {
	query := strings.TrimSpace(strings.Join(args.Raw, " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: gemchat search <query>")
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 1
	}
	cacheDir, err := cfg.ResolveCacheDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	idx, err := index.Open(filepath.Join(cacheDir, "index.db"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot open search index:", err)
		return 1
	}
	defer idx.Close()

	hits, err := idx.Search(query, 25)
	if err != nil {
		fmt.Fprintln(os.Stderr, "search failed:", err)
		return 1
	}
	if len(hits) == 0 {
		warn(args, "no matches")
		return 0
	}

	for _, h := range hits {
		title := h.ConversationTitle
		if title == "" {
			title = h.ConversationID
		}
		fmt.Printf("%s [%s]\n  %s\n", title, h.Role, h.Snippet)
	}
	return 0
}

// =============================================================================
// EXPORT COMMAND
// =============================================================================

// HandleExport writes a cached conversation to a file.
//
//	gemchat export <conversation-id> [markdown|json]
func HandleExport(args Args) int {
	if len(args.Raw) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gemchat export <conversation-id> [markdown|json]")
		return 1
	}
	id := args.Raw[0]
	format := "markdown"
	if len(args.Raw) > 1 {
		format = strings.ToLower(args.Raw[1])
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 1
	}
	cacheDir, err := cfg.ResolveCacheDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cache, err := storage.NewCache(filepath.Join(cacheDir, "conversations"), cfg.Cache.MaxConversations)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cannot open cache:", err)
		return 1
	}
	defer cache.Close()

	conv, err := cache.Load(id)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	opts := export.DefaultOptions()
	opts.IncludeReasoning = cfg.Chat.ShowReasoning

	var exporter export.Exporter
	switch format {
	case "markdown", "md":
		exporter = export.NewMarkdownExporter(opts)
	case "json":
		exporter = export.NewJSONExporter()
	default:
		fmt.Fprintln(os.Stderr, "unknown format:", format)
		return 1
	}

	path, err := export.ToFile(conv, exporter, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "export failed:", err)
		return 1
	}
	fmt.Println(path)
	return 0
}
