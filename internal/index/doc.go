// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index maintains a local full-text search index over cached
// conversation messages. The index is derived data: it is rebuilt from
// the conversation cache and can be deleted at any time.
//
// Text is normalized to NFC before indexing and before querying, so
// composed and decomposed Unicode spellings match each other.
package index
