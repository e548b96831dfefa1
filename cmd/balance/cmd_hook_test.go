// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/balance/pkg/admission"
	"github.com/AleutianAI/balance/pkg/clock"
	"github.com/AleutianAI/balance/pkg/schedule"
)

func hookMoment(t *testing.T, stamp string) clock.Moment {
	t.Helper()
	tm, err := time.ParseInLocation("2006-01-02 15:04", stamp, time.UTC)
	require.NoError(t, err)
	return clock.In(tm)
}

func TestParseHookEvent(t *testing.T) {
	ev := parseHookEvent(strings.NewReader(`{"session_id": "s-1", "cwd": "/work"}`))
	assert.Equal(t, "s-1", ev.SessionID)
	assert.Equal(t, "/work", ev.CWD)
}

func TestParseHookEvent_EmptyAndGarbage(t *testing.T) {
	assert.Equal(t, hookEvent{}, parseHookEvent(strings.NewReader("")))
	assert.Equal(t, hookEvent{}, parseHookEvent(strings.NewReader("{broken")))
}

func TestAllowContext_Override(t *testing.T) {
	d := admission.Decision{
		Allowed: true,
		Override: &admission.OverrideInfo{
			Source:    admission.OverrideFile,
			Label:     "quick break",
			Remaining: 10 * time.Minute,
		},
	}
	got := allowContext(d)
	assert.Equal(t, "Time override active: quick break active, 10m remaining", got)
}

func TestAllowContext_WarningsWindowFirst(t *testing.T) {
	limit := 240
	d := admission.Decision{
		Allowed:      true,
		UsedMinutes:  235,
		LimitMinutes: &limit,
		Warnings: []admission.Warning{
			{Kind: admission.WarnCapApproaching, Minutes: 5},
			{Kind: admission.WarnWindowClosing, Minutes: 10},
		},
	}
	got := allowContext(d)
	assert.Equal(t,
		"Window closes in 10 minutes. | Daily usage: 235/240 min (5 min remaining).",
		got)
}

func TestAllowContext_NoWarnings(t *testing.T) {
	assert.Empty(t, allowContext(admission.Decision{Allowed: true}))
}

func TestBlockContext_NoAccessToday(t *testing.T) {
	now := hookMoment(t, "2026-02-28 12:00")          // Saturday
	next := hookMoment(t, "2026-03-02 08:00")         // Monday
	d := admission.Decision{
		Reason:        admission.ReasonNoAccessToday,
		NextAvailable: next,
		HasNext:       true,
	}
	got := blockContext(d, now)
	assert.Equal(t, "The assistant is offline today. Next available: Monday at 08:00.", got)
}

func TestBlockContext_NoAccessEver(t *testing.T) {
	now := hookMoment(t, "2026-02-28 12:00")
	d := admission.Decision{Reason: admission.ReasonNoAccessToday}
	got := blockContext(d, now)
	assert.Contains(t, got, "no windows are scheduled")
}

func TestBlockContext_OutsideWindow(t *testing.T) {
	now := hookMoment(t, "2026-02-24 07:30")
	next := hookMoment(t, "2026-02-24 08:00")
	d := admission.Decision{
		Reason:        admission.ReasonOutsideWindow,
		NextAvailable: next,
		HasNext:       true,
		Match: schedule.Match{
			Kind:  schedule.NextWindow,
			Block: &schedule.Block{Windows: []schedule.Window{{Start: 480, End: 1080}}},
		},
	}
	got := blockContext(d, now)
	assert.Equal(t, "Outside allowed hours (08:00–18:00). Next window: today at 08:00.", got)
}

func TestBlockContext_CapReached(t *testing.T) {
	limit := 240
	now := hookMoment(t, "2026-02-24 12:30")
	d := admission.Decision{
		Reason:       admission.ReasonCapReached,
		UsedMinutes:  240,
		LimitMinutes: &limit,
	}
	got := blockContext(d, now)
	assert.Equal(t, "Daily limit reached (240/240 minutes used today).", got)
}

func TestExtensionMenu_MixedAvailability(t *testing.T) {
	cfg := schedule.Default()
	counts := map[string]int{"quick": 2, "more": 1}

	menu := extensionMenu(cfg, counts, "Daily limit reached (240/240 minutes used today).")

	assert.Contains(t, menu, "Daily limit reached")
	assert.Contains(t, menu, "Run from terminal:")
	assert.Contains(t, menu, "balance extend quick")
	assert.Contains(t, menu, "(none left)")
	assert.Contains(t, menu, "balance extend more")
	assert.Contains(t, menu, "(2 remaining)")
	assert.Contains(t, menu, "interactive chooser")
}

func TestExtensionMenu_AllExhausted(t *testing.T) {
	cfg := schedule.Default()
	counts := map[string]int{"quick": 2, "more": 3}

	menu := extensionMenu(cfg, counts, "Daily limit reached (240/240 minutes used today).")

	assert.Contains(t, menu, "No extensions remaining. Take a break.")
	assert.NotContains(t, menu, "interactive chooser")
}

func TestExtensionMenu_DeterministicOrder(t *testing.T) {
	cfg := schedule.Default()
	menu1 := extensionMenu(cfg, map[string]int{}, "x")
	menu2 := extensionMenu(cfg, map[string]int{}, "x")
	assert.Equal(t, menu1, menu2)

	// Sorted by id: "more" before "quick".
	moreIdx := strings.Index(menu1, "extend more")
	quickIdx := strings.Index(menu1, "extend quick")
	require.GreaterOrEqual(t, moreIdx, 0)
	require.GreaterOrEqual(t, quickIdx, 0)
	assert.Less(t, moreIdx, quickIdx)
}
