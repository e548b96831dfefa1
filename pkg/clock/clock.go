// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package clock resolves wall-clock time into the calendar terms the
// balance policy is written in: ISO weekday, minute-of-day, and a
// calendar date string, all in the configured IANA timezone rather
// than the host's local zone.
package clock

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used to scope per-day state
// files ("2026-02-24").
const DateLayout = "2006-01-02"

// Moment is a point in time resolved against the configured timezone.
//
// Weekday follows ISO-8601 numbering (1=Monday .. 7=Sunday), which is
// also the numbering the schedule config uses. MinuteOfDay counts
// minutes since local midnight, so "08:00" is 480.
type Moment struct {
	Time        time.Time
	Weekday     int
	MinuteOfDay int
	Date        string
}

// ResolveError reports a timezone that could not be loaded. It is
// fatal for admission decisions: a wrong clock must never fail open.
type ResolveError struct {
	Timezone string
	Err      error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot resolve timezone %q: %v", e.Timezone, e.Err)
}

func (e *ResolveError) Unwrap() error { return e.Err }

// Now returns the current Moment in the given IANA timezone.
func Now(timezone string) (Moment, error) {
	return At(time.Now(), timezone)
}

// At resolves an arbitrary instant in the given IANA timezone.
func At(t time.Time, timezone string) (Moment, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return Moment{}, &ResolveError{Timezone: timezone, Err: err}
	}
	return In(t.In(loc)), nil
}

// In builds a Moment from a time already carrying its location.
// Used by tests and anywhere a zone-correct time.Time is in hand.
func In(t time.Time) Moment {
	return Moment{
		Time:        t,
		Weekday:     ISOWeekday(t),
		MinuteOfDay: t.Hour()*60 + t.Minute(),
		Date:        t.Format(DateLayout),
	}
}

// ISOWeekday converts Go's Sunday-based weekday to ISO numbering.
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// AddDays returns the Moment at the same wall-clock instant shifted by
// whole calendar days. The weekday and date roll accordingly; the
// minute-of-day is preserved.
func (m Moment) AddDays(days int) Moment {
	return In(m.Time.AddDate(0, 0, days))
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(mm))
	if err != nil {
		return 0, fmt.Errorf("invalid time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: out of range", s)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
