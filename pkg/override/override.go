// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package override manages the single time-boxed bypass record: a
// small JSON file whose presence (with an unexpired timestamp) lifts
// every schedule and cap check. The file is created by extension
// grants or a manual override and dies either by explicit clearing or
// lazily on expiry: any reader that finds it expired treats it as
// absent and deletes it so dead state does not accumulate.
package override

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// State is the persisted override record.
type State struct {
	ExpiresAt time.Time `json:"expires_at"`
	Label     string    `json:"label"`
}

// Remaining returns the override time left at now, zero if expired.
func (s State) Remaining(now time.Time) time.Duration {
	if d := s.ExpiresAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Active reports whether the state is still in force at now.
func (s State) Active(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// Info renders the record the way block/allow messages show it,
// e.g. "Quick 15-min session — 12m remaining".
func (s State) Info(now time.Time) string {
	return fmt.Sprintf("%s — %dm remaining", s.Label, int(s.Remaining(now).Minutes()))
}

// EnvActive reports whether the environment toggle forces a bypass
// for the current process. Accepted truthy values follow the original
// tooling: "1", "true", "yes".
func EnvActive(envVar string) bool {
	switch strings.TrimSpace(os.Getenv(envVar)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// legacyGraceAge keeps pre-JSON override files working for one hour
// after they were touched, matching the original migration behavior.
const legacyGraceAge = time.Hour

// Load reads the override file and reports whether it is active at
// now. Expired or stale files are deleted on the way out. A missing
// file is simply "no override". The error return is reserved for
// filesystem failures other than absence.
func Load(path string, now time.Time) (State, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("reading override %s: %w", path, err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil || st.ExpiresAt.IsZero() {
		return loadLegacy(path, now)
	}

	if !st.Active(now) {
		os.Remove(path)
		return State{}, false, nil
	}
	return st, true, nil
}

// loadLegacy honors an unparseable override file if it is fresh
// enough, on the assumption it came from an older tool version; old
// ones are deleted as dead state.
func loadLegacy(path string, now time.Time) (State, bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return State{}, false, nil
	}
	if now.Sub(fi.ModTime()) < legacyGraceAge {
		return State{
			ExpiresAt: fi.ModTime().Add(legacyGraceAge),
			Label:     "override file (legacy format)",
		}, true, nil
	}
	os.Remove(path)
	return State{}, false, nil
}

// Save writes the override, but never shortens one already in force:
// if the existing record expires later than the new one, the existing
// record wins and is returned. Extending an already-extended session
// must not regress it.
func Save(path string, st State, now time.Time) (State, error) {
	if existing, active, _ := Load(path, now); active && existing.ExpiresAt.After(st.ExpiresAt) {
		return existing, nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return State{}, fmt.Errorf("encoding override: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return State{}, fmt.Errorf("writing override %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return State{}, fmt.Errorf("writing override %s: %w", path, err)
	}
	return st, nil
}

// Clear removes the override file. Idempotent: clearing an absent
// override is a no-op.
func Clear(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing override %s: %w", path, err)
	}
	return nil
}
