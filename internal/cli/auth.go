// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/jeranaias/gemchat-tui/internal/auth"
	"github.com/jeranaias/gemchat-tui/internal/config"
)

// =============================================================================
// AUTH COMMAND
// =============================================================================

// HandleAuth manages the stored server token.
//
//	gemchat auth <token>    store a token
//	gemchat auth status     report whether a token exists
//	gemchat auth clear      delete the stored token
func HandleAuth(args Args) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		return 1
	}
	ksPath, err := cfg.ResolveKeystorePath()
	if err != nil {
		fmt.Fprintln(os.Stderr, "keystore error:", err)
		return 1
	}
	ks := auth.NewKeystore(ksPath)

	if len(args.Raw) == 0 {
		fmt.Fprintln(os.Stderr, "usage: gemchat auth <token> | status | clear")
		return 1
	}

	switch args.Raw[0] {
	case "status":
		if ks.Exists() {
			fmt.Println("token stored at", ks.Path())
		} else {
			fmt.Println("no token stored")
		}
		return 0

	case "clear":
		if err := ks.Delete(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to clear token:", err)
			return 1
		}
		fmt.Println("token cleared")
		return 0

	default:
		token := args.Raw[0]
		if err := ks.Store(token); err != nil {
			fmt.Fprintln(os.Stderr, "failed to store token:", err)
			return 1
		}
		fmt.Println("token stored at", ks.Path())
		return 0
	}
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig inspects or initializes the config file.
func HandleConfig(args Args) int {
	sub := ""
	if len(args.Raw) > 0 {
		sub = args.Raw[0]
	}

	switch sub {
	case "path":
		path, err := config.Path()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println(path)
		return 0

	case "init":
		path, err := config.Path()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if _, statErr := os.Stat(path); statErr == nil {
			fmt.Fprintln(os.Stderr, "config already exists at", path)
			return 1
		}
		cfg := config.Default()
		if err := cfg.Save(); err != nil {
			fmt.Fprintln(os.Stderr, "failed to write config:", err)
			return 1
		}
		fmt.Println("wrote", path)
		return 0

	case "show", "":
		cfg, err := config.Load()
		if err != nil {
			var verr *config.ValidationError
			if errors.As(err, &verr) {
				fmt.Fprintln(os.Stderr, "invalid config:", verr)
				return 1
			}
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("server.url          =", cfg.Server.URL)
		fmt.Println("server.timeout_secs =", cfg.Server.TimeoutSecs)
		fmt.Println("chat.default_model  =", cfg.Chat.DefaultModel)
		fmt.Println("chat.show_reasoning =", cfg.Chat.ShowReasoning)
		fmt.Println("ui.theme            =", cfg.UI.Theme)
		fmt.Println("ui.syntax_theme     =", cfg.UI.SyntaxTheme)
		fmt.Println("cache.max_conversations =", cfg.Cache.MaxConversations)
		return 0

	default:
		fmt.Fprintln(os.Stderr, "usage: gemchat config [show|path|init]")
		return 1
	}
}
