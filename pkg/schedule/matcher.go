// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package schedule

import (
	"sort"
	"time"

	"github.com/AleutianAI/balance/pkg/clock"
)

// MatchKind classifies where a moment falls relative to the schedule.
type MatchKind int

const (
	// NoAccessToday: no block claims this weekday, or the governing
	// block has no windows at all.
	NoAccessToday MatchKind = iota

	// ActiveWindow: the moment is inside a window of today's block.
	ActiveWindow

	// NextWindow: outside every window, but a later window opens today.
	NextWindow

	// NoMoreWindowsToday: today's block has windows, all already closed.
	NoMoreWindowsToday
)

func (k MatchKind) String() string {
	switch k {
	case NoAccessToday:
		return "no-access-today"
	case ActiveWindow:
		return "active-window"
	case NextWindow:
		return "next-window"
	case NoMoreWindowsToday:
		return "no-more-windows-today"
	default:
		return "unknown"
	}
}

// Match is the result of locating a moment in the weekly schedule.
// Window and MinutesRemaining are meaningful for ActiveWindow;
// Window alone for NextWindow.
type Match struct {
	Kind             MatchKind
	BlockName        string
	Block            *Block
	Window           Window
	MinutesRemaining int
}

// BlockFor returns the single block claiming the given ISO weekday.
// Load-time validation guarantees at most one claimant.
func (c *Config) BlockFor(weekday int) (string, *Block, bool) {
	names := make([]string, 0, len(c.Schedule))
	for name := range c.Schedule {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		block := c.Schedule[name]
		for _, day := range block.Days {
			if day == weekday {
				return name, &block, true
			}
		}
	}
	return "", nil, false
}

// Match locates a weekday + minute-of-day in the schedule.
//
// Windows are scanned in start order, so the "next window" choice is
// deterministic even for discontinuous schedules (morning + evening).
func (c *Config) Match(weekday, minuteOfDay int) Match {
	name, block, ok := c.BlockFor(weekday)
	if !ok || len(block.Windows) == 0 {
		m := Match{Kind: NoAccessToday}
		if ok {
			m.BlockName = name
			m.Block = block
		}
		return m
	}

	windows := sortedWindows(block.Windows)
	for _, w := range windows {
		if w.Contains(minuteOfDay) {
			return Match{
				Kind:             ActiveWindow,
				BlockName:        name,
				Block:            block,
				Window:           w,
				MinutesRemaining: w.End - minuteOfDay,
			}
		}
	}
	for _, w := range windows {
		if w.Start > minuteOfDay {
			return Match{Kind: NextWindow, BlockName: name, Block: block, Window: w}
		}
	}
	return Match{Kind: NoMoreWindowsToday, BlockName: name, Block: block}
}

// NextOpening finds the next time any window opens at or after now:
// later today if today's block still has an upcoming window, otherwise
// the earliest window on the next governed weekday within a week.
// ok is false when no weekday has any window.
func (c *Config) NextOpening(now clock.Moment) (clock.Moment, bool) {
	if m := c.Match(now.Weekday, now.MinuteOfDay); m.Kind == NextWindow {
		return atMinute(now, m.Window.Start), true
	}
	for offset := 1; offset <= 7; offset++ {
		day := now.AddDays(offset)
		_, block, ok := c.BlockFor(day.Weekday)
		if !ok || len(block.Windows) == 0 {
			continue
		}
		earliest := sortedWindows(block.Windows)[0]
		return atMinute(day, earliest.Start), true
	}
	return clock.Moment{}, false
}

// NextOpeningAfterToday is NextOpening restricted to future days,
// used for "cap reached, come back tomorrow" messaging where a window
// later today would not help.
func (c *Config) NextOpeningAfterToday(now clock.Moment) (clock.Moment, bool) {
	for offset := 1; offset <= 7; offset++ {
		day := now.AddDays(offset)
		_, block, ok := c.BlockFor(day.Weekday)
		if !ok || len(block.Windows) == 0 {
			continue
		}
		earliest := sortedWindows(block.Windows)[0]
		return atMinute(day, earliest.Start), true
	}
	return clock.Moment{}, false
}

func sortedWindows(windows []Window) []Window {
	out := make([]Window, len(windows))
	copy(out, windows)
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func atMinute(day clock.Moment, minuteOfDay int) clock.Moment {
	t := day.Time
	at := time.Date(t.Year(), t.Month(), t.Day(), minuteOfDay/60, minuteOfDay%60, 0, 0, t.Location())
	return clock.In(at)
}
