// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the interactive chat interface: a Bubble Tea
// model wired to the exchange orchestrator, with a message viewport, a
// single-line prompt, slash commands, and cancellable streaming.
//
// Exchange callbacks fire on the streaming goroutine and are bridged
// into the Bubble Tea loop via program.Send; render-relevant deltas are
// coalesced to a capped frame rate so token-by-token streams do not
// flood the renderer.
package chat
