// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload tracks files attached to the next submission. Uploads
// settle independently of the chat exchange; a submission is gated on the
// pending count reaching zero, and only successfully uploaded files
// contribute attachments.
package upload
