// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package stream implements the reply-ingestion pipeline: a frame decoder
// that turns incremental text chunks into discrete data frames, an
// interpreter that classifies each frame into a typed event, and an
// assembler that folds events into the in-progress assistant message.
package stream
