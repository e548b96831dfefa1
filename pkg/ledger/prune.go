// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AleutianAI/balance/pkg/clock"
)

// RetentionDays is how long per-day ledger files are kept.
const RetentionDays = 7

const cleanupMarker = ".last_cleanup"

// PruneOlderThan deletes usage logs, extension ledgers, and their lock
// files dated more than keepDays calendar days before the moment's day.
// Unparseable file names are left alone.
func (s *Store) PruneOlderThan(m clock.Moment, keepDays int) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return &IOError{Op: "list", Path: s.dir, Err: err}
	}
	cutoff := m.Time.AddDate(0, 0, -keepDays)
	cutoffDate := time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		date, ok := ledgerFileDate(entry.Name())
		if !ok {
			continue
		}
		fileDate, err := time.ParseInLocation(clock.DateLayout, date, time.UTC)
		if err != nil {
			continue
		}
		if fileDate.Before(cutoffDate) {
			// Best effort; a racing process may have deleted it first.
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

// MaybePrune runs PruneOlderThan at most once per calendar day,
// tracked by a marker file, so the hook does not pay a directory scan
// on every prompt.
func (s *Store) MaybePrune(m clock.Moment, keepDays int) error {
	marker := filepath.Join(s.dir, cleanupMarker)
	if data, err := os.ReadFile(marker); err == nil {
		if strings.TrimSpace(string(data)) == m.Date {
			return nil
		}
	}
	if err := s.PruneOlderThan(m, keepDays); err != nil {
		return err
	}
	if err := os.WriteFile(marker, []byte(m.Date+"\n"), 0o644); err != nil {
		return &IOError{Op: "write", Path: marker, Err: err}
	}
	return nil
}

// ledgerFileDate extracts the YYYY-MM-DD prefix from a per-day ledger
// file name ("2026-02-24.log", "2026-02-24.extensions.json", ...).
func ledgerFileDate(name string) (string, bool) {
	for _, suffix := range []string{".extensions.json", ".extensions.lock", ".log"} {
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix), true
		}
	}
	return "", false
}
