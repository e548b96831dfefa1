// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ledger

import (
	"errors"
	"os"
)

// ErrFileLocked is returned by FileLocker.Lock when another process
// holds the lock.
var ErrFileLocked = errors.New("file is locked by another process")

// FileLocker abstracts platform-specific advisory file locking.
// Unix uses flock(2); Windows uses LockFileEx. Lock is non-blocking.
type FileLocker interface {
	Lock(f *os.File) error
	Unlock(f *os.File) error
}
