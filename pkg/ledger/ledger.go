// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ledger persists the per-day state balance needs across
// process invocations: the usage log (one minute-truncated timestamp
// per prompt) and the extension grant counts.
//
// Every invocation is a fresh process, so all coordination happens
// through the filesystem. Usage appends are single-line O_APPEND
// writes, so concurrent writers cannot interleave partial lines, and
// since readers deduplicate by value, at-least-once appends in any
// order are safe without locking. Extension counts are read-modify-
// write and MUST be updated under the grant lock (see GrantLock);
// a lost update there would let a user slip past the daily cap.
//
// The absence of a file for the current date is the zero state. There
// is no reset operation; a new calendar day simply reads empty.
package ledger

import (
	"fmt"
	"os"
	"path/filepath"
)

// IOError wraps a filesystem failure touching ledger state. Callers
// decide the degradation policy: reads degrade to zero usage (logged,
// never silently unlimited), write failures do not overturn an
// admission decision already made.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("ledger %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store reads and writes the per-day ledger files under a single
// directory. The zero value is not usable; call New.
type Store struct {
	dir    string
	locker FileLocker
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &IOError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Store{dir: dir, locker: newPlatformLocker()}, nil
}

// Dir returns the ledger directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) usagePath(date string) string {
	return filepath.Join(s.dir, date+".log")
}

func (s *Store) extensionsPath(date string) string {
	return filepath.Join(s.dir, date+".extensions.json")
}

func (s *Store) grantLockPath(date string) string {
	return filepath.Join(s.dir, date+".extensions.lock")
}
