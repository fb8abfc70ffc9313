// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// DefaultModel is used when the config and the conversation specify none.
const DefaultModel = "gemini-2.5-flash"

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo contains display information about a selectable model.
type ModelInfo struct {
	// ID is the model identifier sent to the server
	ID string `json:"id"`

	// Name is the human-readable display name
	Name string `json:"name"`

	// Tier categorizes the model's capability level
	Tier string `json:"tier"`

	// Description is a brief explanation of the model's strengths
	Description string `json:"description"`
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the registry of models the server accepts, in display order.
var Models = []ModelInfo{
	{
		ID:          "gemini-2.5-flash",
		Name:        "Gemini 2.5 Flash",
		Tier:        "Fast",
		Description: "Low latency, good for everyday questions",
	},
	{
		ID:          "gemini-2.5-pro",
		Name:        "Gemini 2.5 Pro",
		Tier:        "Powerful",
		Description: "Deeper reasoning, longer thinking traces",
	},
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// GetModelInfo looks up a model by ID or name fragment.
// Returns the ModelInfo and true if found.
func GetModelInfo(nameOrID string) (ModelInfo, bool) {
	for _, info := range Models {
		if info.ID == nameOrID {
			return info, true
		}
	}

	lower := strings.ToLower(nameOrID)
	for _, info := range Models {
		if strings.Contains(strings.ToLower(info.Name), lower) ||
			strings.Contains(strings.ToLower(info.ID), lower) {
			return info, true
		}
	}

	return ModelInfo{}, false
}

// IsKnownModel reports whether the identifier matches a registry entry exactly.
func IsKnownModel(id string) bool {
	for _, info := range Models {
		if info.ID == id {
			return true
		}
	}
	return false
}

// ModelIDs returns the registry identifiers in display order.
func ModelIDs() []string {
	ids := make([]string, 0, len(Models))
	for _, info := range Models {
		ids = append(ids, info.ID)
	}
	return ids
}
