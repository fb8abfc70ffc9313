// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestKeystore(t *testing.T) *Keystore {
	t.Helper()
	return NewKeystore(filepath.Join(t.TempDir(), "token.enc"))
}

func TestStoreLoadRoundTrip(t *testing.T) {
	ks := newTestKeystore(t)

	require.NoError(t, ks.Store("secret-token-123"))

	token, err := ks.Load()
	require.NoError(t, err)
	assert.Equal(t, "secret-token-123", token)
}

func TestStoredTokenIsNotPlaintext(t *testing.T) {
	ks := newTestKeystore(t)
	require.NoError(t, ks.Store("secret-token-123"))

	raw, err := os.ReadFile(ks.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token-123")
}

func TestFilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	ks := newTestKeystore(t)
	require.NoError(t, ks.Store("tok"))

	for _, path := range []string{ks.Path(), ks.Path() + ".key"} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), path)
	}
}

func TestLoadWithoutStore(t *testing.T) {
	ks := newTestKeystore(t)

	_, err := ks.Load()
	assert.ErrorIs(t, err, ErrNoToken)
	assert.False(t, ks.Exists())
}

func TestStoreOverwrites(t *testing.T) {
	ks := newTestKeystore(t)
	require.NoError(t, ks.Store("first"))
	require.NoError(t, ks.Store("second"))

	token, err := ks.Load()
	require.NoError(t, err)
	assert.Equal(t, "second", token)
}

func TestTamperedTokenDetected(t *testing.T) {
	ks := newTestKeystore(t)
	require.NoError(t, ks.Store("secret"))

	raw, err := os.ReadFile(ks.Path())
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xFF
	require.NoError(t, os.WriteFile(ks.Path(), raw, 0600))

	_, err = ks.Load()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestTruncatedTokenDetected(t *testing.T) {
	ks := newTestKeystore(t)
	require.NoError(t, ks.Store("secret"))
	require.NoError(t, os.WriteFile(ks.Path(), []byte("short"), 0600))

	_, err := ks.Load()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestWrongKeyDetected(t *testing.T) {
	dir := t.TempDir()
	ks := NewKeystore(filepath.Join(dir, "token.enc"))
	require.NoError(t, ks.Store("secret"))

	// Replace the keyfile with a different key of the right size.
	other := make([]byte, 32)
	other[0] = 1
	require.NoError(t, os.WriteFile(ks.Path()+".key", other, 0600))

	_, err := ks.Load()
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDelete(t *testing.T) {
	ks := newTestKeystore(t)
	require.NoError(t, ks.Store("secret"))
	require.NoError(t, ks.Delete())

	assert.False(t, ks.Exists())
	_, err := ks.Load()
	assert.ErrorIs(t, err, ErrNoToken)

	// Deleting again is a no-op.
	assert.NoError(t, ks.Delete())
}

func TestStoreRejectsEmptyToken(t *testing.T) {
	ks := newTestKeystore(t)
	assert.Error(t, ks.Store(""))
}
