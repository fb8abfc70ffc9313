// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/jeranaias/gemchat-tui/internal/util"
)

// =============================================================================
// CONSTANTS / ERRORS
// =============================================================================

const (
	keySize   = 32
	nonceSize = 24
)

var (
	// ErrNoToken indicates no token has been stored yet.
	ErrNoToken = errors.New("no auth token stored: run 'gemchat auth <token>'")

	// ErrCorrupt indicates the stored token failed authentication
	// (tampered data or a keyfile that no longer matches).
	ErrCorrupt = errors.New("stored auth token is corrupt or was sealed with a different key")
)

// ZeroBytes zeros sensitive byte slices before they go out of scope.
// SECURITY: Zero key material to prevent memory disclosure via crash dumps.
func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// =============================================================================
// KEYSTORE
// =============================================================================

// Keystore seals and opens the auth token at a fixed path. The keyfile
// lives at <path>.key and is created on first Store.
type Keystore struct {
	path string
}

// NewKeystore creates a keystore for the token file at path.
func NewKeystore(path string) *Keystore {
	return &Keystore{path: path}
}

// Path returns the token file location.
func (k *Keystore) Path() string {
	return k.path
}

func (k *Keystore) keyPath() string {
	return k.path + ".key"
}

// loadOrCreateKey reads the keyfile, generating one on first use. The
// caller must zero the returned key.
func (k *Keystore) loadOrCreateKey(create bool) (*[keySize]byte, error) {
	var key [keySize]byte

	data, err := os.ReadFile(k.keyPath())
	switch {
	case err == nil:
		if len(data) != keySize {
			ZeroBytes(data)
			return nil, ErrCorrupt
		}
		copy(key[:], data)
		ZeroBytes(data)
		return &key, nil

	case os.IsNotExist(err) && create:
		if _, err := io.ReadFull(rand.Reader, key[:]); err != nil {
			return nil, fmt.Errorf("generate key: %w", err)
		}
		if err := util.AtomicWriteFileWithDir(k.keyPath(), key[:], 0600, 0700); err != nil {
			ZeroBytes(key[:])
			return nil, fmt.Errorf("write keyfile: %w", err)
		}
		return &key, nil

	case os.IsNotExist(err):
		return nil, ErrNoToken

	default:
		return nil, fmt.Errorf("read keyfile: %w", err)
	}
}

// Store seals the token and writes it to disk with 0600 permissions.
func (k *Keystore) Store(token string) error {
	if token == "" {
		return errors.New("token is empty")
	}

	key, err := k.loadOrCreateKey(true)
	if err != nil {
		return err
	}
	defer ZeroBytes(key[:])

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	// File layout: nonce || secretbox(token).
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, key)
	if err := util.AtomicWriteFileWithDir(k.path, sealed, 0600, 0700); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// Load opens and returns the stored token.
func (k *Keystore) Load() (string, error) {
	sealed, err := os.ReadFile(k.path)
	if os.IsNotExist(err) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	if len(sealed) < nonceSize+secretbox.Overhead {
		return "", ErrCorrupt
	}

	key, err := k.loadOrCreateKey(false)
	if err != nil {
		return "", err
	}
	defer ZeroBytes(key[:])

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])

	token, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return "", ErrCorrupt
	}
	return string(token), nil
}

// Delete removes the stored token and its keyfile. Missing files are not
// an error.
func (k *Keystore) Delete() error {
	if err := os.Remove(k.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	if err := os.Remove(k.keyPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove keyfile: %w", err)
	}
	return nil
}

// Exists reports whether a token file is present, without opening it.
func (k *Keystore) Exists() bool {
	_, err := os.Stat(k.path)
	return err == nil
}
