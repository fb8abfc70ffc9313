// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads and persists the gemchat configuration file.
//
// Configuration lives in TOML at ~/.config/gemchat/config.toml. A missing
// file is not an error; defaults apply and the file is created on first
// save. Environment variables prefixed GEMCHAT_ override file values for
// the current process without being written back.
package config
