// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across the gemchat application:
// display-width string handling for terminal layout (TruncateWidth, PadRight,
// StringWidth) and crash-safe file writing with fsync (AtomicWriteFile).
package util
