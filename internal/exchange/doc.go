// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package exchange ties one submitted user turn to one streamed reply. The
// orchestrator serializes submissions per conversation, wires the decoding
// pipeline to the transfer, and implements cancellation with rollback of the
// optimistically rendered turns.
package exchange
