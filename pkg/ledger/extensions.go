// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ledger

import (
	"encoding/json"
	"os"
	"time"

	"github.com/AleutianAI/balance/pkg/clock"
)

// grantLockAttempts bounds how long a grant waits for a competitor.
// Grants are rare and fast; anything longer than this is a wedged
// process, and the caller should fail rather than block the request.
const (
	grantLockAttempts = 5
	grantLockBackoff  = 20 * time.Millisecond
)

// ExtensionCounts returns today's grant count per extension type.
// A missing file is the zero state. A corrupt file returns an empty
// map together with the error so the caller can log the degradation.
func (s *Store) ExtensionCounts(m clock.Moment) (map[string]int, error) {
	path := s.extensionsPath(m.Date)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]int{}, nil
		}
		return map[string]int{}, &IOError{Op: "read", Path: path, Err: err}
	}
	counts := make(map[string]int)
	if err := json.Unmarshal(data, &counts); err != nil {
		return map[string]int{}, &IOError{Op: "decode", Path: path, Err: err}
	}
	return counts, nil
}

// TotalExtensions sums today's grants across all types. This is the
// quantity the escalation ladder is driven by.
func (s *Store) TotalExtensions(m clock.Moment) (int, error) {
	counts, err := s.ExtensionCounts(m)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}

// IncrementExtension bumps today's count for the given type and
// rewrites the file via temp-file-then-rename so readers never see a
// partial document. The caller MUST hold the grant lock; without it
// two concurrent grants can both read the same count and one update
// is lost, which defeats the daily cap.
func (s *Store) IncrementExtension(m clock.Moment, extensionID string) error {
	counts, err := s.ExtensionCounts(m)
	if err != nil {
		// A corrupt ledger must not make grants impossible forever:
		// start over from empty, same as the original tooling.
		counts = map[string]int{}
	}
	counts[extensionID]++

	path := s.extensionsPath(m.Date)
	data, err := json.Marshal(counts)
	if err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &IOError{Op: "write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		return &IOError{Op: "rename", Path: path, Err: err}
	}
	return nil
}

// GrantLock acquires the exclusive per-day grant lock and returns the
// release function. Acquisition is non-blocking with a short bounded
// retry; the hook sits on the request's critical path and must not
// wait on another process.
func (s *Store) GrantLock(m clock.Moment) (release func(), err error) {
	path := s.grantLockPath(m.Date)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}

	for attempt := 0; ; attempt++ {
		err = s.locker.Lock(f)
		if err == nil {
			break
		}
		if err != ErrFileLocked || attempt+1 >= grantLockAttempts {
			f.Close()
			return nil, &IOError{Op: "lock", Path: path, Err: err}
		}
		time.Sleep(grantLockBackoff)
	}

	return func() {
		s.locker.Unlock(f)
		f.Close()
	}, nil
}
