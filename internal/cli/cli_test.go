// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"
	"testing"
)

func TestParseDefaultsToTUI(t *testing.T) {
	cmd, _ := parseArgs(nil)
	if cmd != CmdTUI {
		t.Errorf("empty args should launch the TUI, got %v", cmd)
	}
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		argv []string
		want Command
	}{
		{[]string{"tui"}, CmdTUI},
		{[]string{"ask", "hello"}, CmdAsk},
		{[]string{"chat"}, CmdChat},
		{[]string{"auth", "tok"}, CmdAuth},
		{[]string{"config", "show"}, CmdConfig},
		{[]string{"search", "foo"}, CmdSearch},
		{[]string{"export", "abc"}, CmdExport},
		{[]string{"version"}, CmdVersion},
		{[]string{"--version"}, CmdVersion},
		{[]string{"help"}, CmdHelp},
		{[]string{"-h"}, CmdHelp},
	}
	for _, tt := range tests {
		cmd, _ := parseArgs(tt.argv)
		if cmd != tt.want {
			t.Errorf("parseArgs(%v) = %v, want %v", tt.argv, cmd, tt.want)
		}
	}
}

func TestParseGlobalFlags(t *testing.T) {
	cmd, args := parseArgs([]string{"--model", "gemini-2.5-pro", "-r", "-q", "ask", "what", "is", "go"})
	if cmd != CmdAsk {
		t.Fatalf("cmd = %v, want CmdAsk", cmd)
	}
	if args.Model != "gemini-2.5-pro" {
		t.Errorf("Model = %q", args.Model)
	}
	if !args.Reasoning || !args.Quiet {
		t.Error("boolean flags not parsed")
	}
	if got := strings.Join(args.Raw, " "); got != "what is go" {
		t.Errorf("Raw = %q", got)
	}
}

func TestParseBareQuestionIsAsk(t *testing.T) {
	cmd, args := parseArgs([]string{"why", "is", "the", "sky", "blue"})
	if cmd != CmdAsk {
		t.Fatalf("cmd = %v, want CmdAsk", cmd)
	}
	if strings.Join(args.Raw, " ") != "why is the sky blue" {
		t.Errorf("Raw = %v", args.Raw)
	}
}

func TestParseTrailingModelFlagWithoutValue(t *testing.T) {
	cmd, args := parseArgs([]string{"ask", "hi", "--model"})
	if cmd != CmdAsk {
		t.Fatalf("cmd = %v", cmd)
	}
	if args.Model != "" {
		t.Errorf("dangling --model should stay empty, got %q", args.Model)
	}
}

func TestAskErrorTextPassthrough(t *testing.T) {
	if askErrorText(errTest) != "test failure" {
		t.Error("plain errors should pass through unchanged")
	}
}

type testErr struct{}

func (testErr) Error() string { return "test failure" }

var errTest = testErr{}
