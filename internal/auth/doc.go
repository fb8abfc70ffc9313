// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth stores the backend auth token encrypted at rest.
//
// The token is sealed with NaCl secretbox under a random key held in a
// 0600 keyfile next to the token file. This keeps the token out of plain
// text in backups and dotfile repos; it is not a defense against an
// attacker who can already read the keyfile.
package auth
