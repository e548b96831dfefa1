// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build unix

package ledger

import (
	"os"

	"golang.org/x/sys/unix"
)

// unixFileLocker implements FileLocker via flock(2). Locks are
// advisory, released on close or process exit, which means a crashed
// grant can never wedge future grants.
type unixFileLocker struct{}

func (unixFileLocker) Lock(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrFileLocked
	}
	return err
}

func (unixFileLocker) Unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

func newPlatformLocker() FileLocker {
	return unixFileLocker{}
}
