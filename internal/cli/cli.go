// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeranaias/gemchat-tui/internal/api"
	"github.com/jeranaias/gemchat-tui/internal/auth"
	"github.com/jeranaias/gemchat-tui/internal/config"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// COMMANDS
// =============================================================================

// Command identifies a top-level CLI command.
type Command int

const (
	CmdTUI Command = iota
	CmdAsk
	CmdChat
	CmdAuth
	CmdConfig
	CmdSearch
	CmdExport
	CmdVersion
	CmdHelp
)

// Args carries parsed global flags plus the command's own arguments.
type Args struct {
	Model     string
	Reasoning bool
	Quiet     bool
	Raw       []string
}

// Parse parses os.Args and returns the command and its arguments.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

func parseArgs(argv []string) (Command, Args) {
	var args Args
	var remaining []string

	i := 0
	for i < len(argv) {
		switch argv[i] {
		case "--model", "-m":
			if i+1 < len(argv) {
				args.Model = argv[i+1]
				i += 2
				continue
			}
			i++
		case "--reasoning", "-r":
			args.Reasoning = true
			i++
		case "--quiet", "-q":
			args.Quiet = true
			i++
		default:
			remaining = append(remaining, argv[i])
			i++
		}
	}

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	args.Raw = remaining[1:]

	switch cmd {
	case "tui":
		return CmdTUI, args
	case "ask":
		return CmdAsk, args
	case "chat":
		return CmdChat, args
	case "auth":
		return CmdAuth, args
	case "config":
		return CmdConfig, args
	case "search":
		return CmdSearch, args
	case "export":
		return CmdExport, args
	case "version", "-v", "--version":
		return CmdVersion, args
	case "help", "-h", "--help":
		return CmdHelp, args
	default:
		// Unknown words are treated as an ask query, so
		// "gemchat why is the sky blue" just works.
		args.Raw = remaining
		return CmdAsk, args
	}
}

// =============================================================================
// USAGE
// =============================================================================

const usageText = `gemchat - terminal client for a Gemini chat server

Usage:
  gemchat                          Launch the interactive TUI
  gemchat ask <question>           One-shot question, answer to stdout
  gemchat chat                     Line-based REPL (no full-screen UI)
  gemchat auth <token>             Store the server auth token
  gemchat auth status              Show whether a token is stored
  gemchat auth clear               Remove the stored token
  gemchat config show              Print the active configuration
  gemchat config path              Print the config file location
  gemchat config init              Write a default config file
  gemchat search <query>           Full-text search across cached chats
  gemchat export <id> [json]       Export a cached conversation
  gemchat version                  Print version information

Flags:
  -m, --model <id>    Override the model for ask/chat
  -r, --reasoning     Show the model's reasoning stream
  -q, --quiet         Suppress status chatter on stderr

Environment:
  GEMCHAT_SERVER_URL, GEMCHAT_MODEL, GEMCHAT_THEME, GEMCHAT_CONFIG_DIR
`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Print(usageText)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("gemchat version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// =============================================================================
// SHARED WIRING
// =============================================================================

// NewClient builds the API client from config, attaching the stored auth
// token when one exists.
func NewClient(cfg *config.Config) *api.Client {
	clientCfg := api.DefaultConfig()
	clientCfg.BaseURL = cfg.Server.URL
	clientCfg.Timeout = time.Duration(cfg.Server.TimeoutSecs) * time.Second
	clientCfg.DefaultModel = cfg.Chat.DefaultModel

	if ksPath, err := cfg.ResolveKeystorePath(); err == nil {
		ks := auth.NewKeystore(ksPath)
		if token, err := ks.Load(); err == nil {
			clientCfg.Token = token
		}
	}
	return api.NewClient(clientCfg)
}

// warn prints a notice to stderr unless quiet mode is on.
func warn(args Args, msg string) {
	if !args.Quiet {
		fmt.Fprintln(os.Stderr, msg)
	}
}
