// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage caches conversations on disk for offline listing and
// full-text indexing. The server remains the source of truth; the cache
// is refreshed from it and may lag. One JSON file per conversation, with
// an advisory lock on the cache directory so concurrent gemchat processes
// do not interleave writes.
package storage
