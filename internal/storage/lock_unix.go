// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !windows

package storage

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// dirLock holds an advisory flock on the cache directory's lockfile.
type dirLock struct {
	file *os.File
}

// acquireDirLock takes a non-blocking exclusive lock. A second gemchat
// process gets an immediate error instead of silently corrupting the
// cache.
func acquireDirLock(path string) (*dirLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lockfile: %w", err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, &StorageError{Message: "cache is locked by another gemchat process"}
	}
	return &dirLock{file: f}, nil
}

func (l *dirLock) release() error {
	if l.file == nil {
		return nil
	}
	unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
