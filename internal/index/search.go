// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// =============================================================================
// SEARCH RESULT
// =============================================================================

// Hit is a single search result.
type Hit struct {
	ConversationID    string
	ConversationTitle string
	MessageID         string
	Role              string
	Snippet           string
	Rank              float64
}

// =============================================================================
// SEARCH
// =============================================================================

// Search finds messages matching the query, best matches first. An empty
// query returns no hits. limit 0 means the default of 50.
func (idx *MessageIndex) Search(query string, limit int) ([]Hit, error) {
	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return []Hit{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	rows, err := idx.db.Query(`
		SELECT
			m.conversation_id, m.conversation_title, m.message_id, m.role,
			snippet(messages_fts, 0, '[', ']', '…', 12),
			fts.rank
		FROM messages_fts fts
		JOIN messages m ON m.id = fts.rowid
		WHERE messages_fts MATCH ?
		ORDER BY fts.rank
		LIMIT ?
	`, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var hits []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ConversationID, &h.ConversationTitle, &h.MessageID,
			&h.Role, &h.Snippet, &h.Rank); err != nil {
			continue
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// buildFTSQuery turns user input into an FTS5 query: NFC normalized, each
// term quoted so FTS operators in user text are matched literally, terms
// implicitly ANDed.
func buildFTSQuery(query string) string {
	query = norm.NFC.String(strings.TrimSpace(query))
	if query == "" {
		return ""
	}

	terms := strings.Fields(query)
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, `""`)
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " ")
}
