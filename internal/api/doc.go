// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the chat server: conversation
// CRUD, file upload, and the streaming chat request whose reply body feeds
// the stream package's decoding pipeline.
package api
