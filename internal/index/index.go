// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/gemchat-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// MESSAGE INDEX
// =============================================================================

// MessageIndex indexes cached conversation messages for full-text search.
type MessageIndex struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (and creates) the index database at dbPath.
func Open(dbPath string) (*MessageIndex, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	idx := &MessageIndex{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Close closes the index database.
func (idx *MessageIndex) Close() error {
	return idx.db.Close()
}

func (idx *MessageIndex) initSchema() error {
	if _, err := idx.db.Exec(Schema); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	if _, err := idx.db.Exec(InitMetadata); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// =============================================================================
// INDEXING
// =============================================================================

// IndexConversation replaces a conversation's rows with its current
// messages. Streaming messages are skipped; they are indexed once final.
func (idx *MessageIndex) IndexConversation(conv *model.Conversation) error {
	if conv.ID == "" {
		return nil
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	tx, err := idx.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE conversation_id = ?", conv.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	title := norm.NFC.String(conv.GetTitle())
	for _, msg := range conv.Messages {
		if msg.IsStreaming {
			continue
		}
		content := norm.NFC.String(msg.Content)
		if content == "" {
			continue
		}
		_, err := tx.Exec(`
			INSERT INTO messages (message_id, conversation_id, conversation_title, role, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, msg.ID, conv.ID, title, msg.Role.String(), content, msg.Timestamp.Unix())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
	}

	return tx.Commit()
}

// RemoveConversation drops a conversation from the index.
func (idx *MessageIndex) RemoveConversation(id string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, err := idx.db.Exec("DELETE FROM messages WHERE conversation_id = ?", id); err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// Rebuild reindexes everything from scratch.
func (idx *MessageIndex) Rebuild(convs []*model.Conversation) error {
	idx.mu.Lock()
	if _, err := idx.db.Exec("DELETE FROM messages"); err != nil {
		idx.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	idx.mu.Unlock()

	for _, conv := range convs {
		if err := idx.IndexConversation(conv); err != nil {
			return err
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	_, err := idx.db.Exec("UPDATE metadata SET value = ? WHERE key = 'last_rebuild'",
		strconv.FormatInt(time.Now().Unix(), 10))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return nil
}

// MessageCount returns the number of indexed messages.
func (idx *MessageIndex) MessageCount() (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var n int
	if err := idx.db.QueryRow("SELECT COUNT(*) FROM messages").Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}
