// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ledger

import (
	"bufio"
	"os"
	"strings"

	"github.com/AleutianAI/balance/pkg/clock"
)

// RecordPrompt appends the minute-truncated timestamp for the moment's
// calendar day. The line is written with a single O_APPEND write, so
// concurrent processes cannot produce a torn line. Duplicate lines for
// the same minute are expected and harmless.
func (s *Store) RecordPrompt(m clock.Moment) error {
	path := s.usagePath(m.Date)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	line := clock.FormatClock(m.MinuteOfDay) + "\n"
	if _, err := f.WriteString(line); err != nil {
		return &IOError{Op: "append", Path: path, Err: err}
	}
	return nil
}

// ActiveMinutes returns the number of distinct clock-minutes with at
// least one recorded prompt for the moment's calendar day. Cost is
// bounded by today's file only; history never enters the count.
func (s *Store) ActiveMinutes(m clock.Moment) (int, error) {
	path := s.usagePath(m.Date)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		seen[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return 0, &IOError{Op: "read", Path: path, Err: err}
	}
	return len(seen), nil
}
