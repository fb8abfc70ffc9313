// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jeranaias/gemchat-tui/internal/model"
	"github.com/jeranaias/gemchat-tui/internal/util"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation is not cached.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &StorageError{Message: "conversation not found"}

// StorageError represents a cache-related error.
type StorageError struct {
	Message string
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return e.Message
}

// Is implements errors.Is support.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// CONVERSATION CACHE
// =============================================================================

// Cache persists conversations as one JSON file each under BaseDir.
type Cache struct {
	// BaseDir is the cache directory.
	BaseDir string

	// MaxConversations bounds the cache (0 = unlimited). Oldest entries
	// by update time are evicted on save.
	MaxConversations int

	lock *dirLock
}

// NewCache opens (and creates) a cache at baseDir and acquires the
// directory lock. Callers must Close it.
func NewCache(baseDir string, maxConversations int) (*Cache, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}

	lock, err := acquireDirLock(filepath.Join(baseDir, ".lock"))
	if err != nil {
		return nil, err
	}

	return &Cache{
		BaseDir:          baseDir,
		MaxConversations: maxConversations,
		lock:             lock,
	}, nil
}

// Close releases the directory lock.
func (c *Cache) Close() error {
	if c.lock == nil {
		return nil
	}
	err := c.lock.release()
	c.lock = nil
	return err
}

// =============================================================================
// SAVE / LOAD
// =============================================================================

// Save persists a conversation. Conversations without a server ID are not
// cached; they have not been created on the backend yet.
func (c *Cache) Save(conv *model.Conversation) error {
	if conv.ID == "" {
		return &StorageError{Message: "conversation has no server id"}
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return err
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	if err := util.AtomicWriteFile(c.filePath(conv.ID), data, 0600); err != nil {
		return err
	}

	if c.MaxConversations > 0 {
		c.enforceLimit()
	}
	return nil
}

// Load retrieves a cached conversation by server ID.
func (c *Cache) Load(id string) (*model.Conversation, error) {
	data, err := os.ReadFile(c.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var conv model.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// =============================================================================
// LIST / DELETE
// =============================================================================

// List returns metadata for all cached conversations, most recent first.
// Corrupted files are skipped.
func (c *Cache) List() ([]model.ConversationMeta, error) {
	entries, err := os.ReadDir(c.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.ConversationMeta{}, nil
		}
		return nil, err
	}

	var metas []model.ConversationMeta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		conv, err := c.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		metas = append(metas, conv.GetMeta())
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes a cached conversation.
func (c *Cache) Delete(id string) error {
	if err := os.Remove(c.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// Clear removes all cached conversations.
func (c *Cache) Clear() error {
	entries, err := os.ReadDir(c.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(c.BaseDir, entry.Name()))
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// enforceLimit evicts the oldest conversations when over the bound.
func (c *Cache) enforceLimit() {
	metas, err := c.List()
	if err != nil || len(metas) <= c.MaxConversations {
		return
	}

	// List is newest-first; evict from the tail.
	for _, meta := range metas[c.MaxConversations:] {
		c.Delete(meta.ID)
	}
}

func (c *Cache) filePath(id string) string {
	return filepath.Join(c.BaseDir, id+".json")
}
