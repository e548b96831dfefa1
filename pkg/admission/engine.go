// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package admission decides whether a prompt may proceed right now.
//
// The engine combines the weekly schedule, today's usage ledger, and
// any active override into a single Decision: allowed (possibly with
// warnings), or blocked with a reason and the next time access opens.
//
// Decide never records usage; callers append to the ledger after an
// allowed prompt actually goes through. The one piece of cleanup it
// performs is the lazy removal of an expired override file, which
// happens inside override.Load.
package admission

import (
	"fmt"
	"time"

	"github.com/AleutianAI/balance/pkg/clock"
	"github.com/AleutianAI/balance/pkg/ledger"
	"github.com/AleutianAI/balance/pkg/logging"
	"github.com/AleutianAI/balance/pkg/override"
	"github.com/AleutianAI/balance/pkg/schedule"
)

// Reason classifies why a prompt was blocked.
type Reason int

const (
	// ReasonNone is set on allowed decisions.
	ReasonNone Reason = iota

	// ReasonOutsideWindow: today has windows, but the current time is
	// not inside one.
	ReasonOutsideWindow

	// ReasonCapReached: inside a window, but today's active minutes
	// have used up the block's daily limit.
	ReasonCapReached

	// ReasonNoAccessToday: no block claims this weekday, or the
	// governing block has no windows.
	ReasonNoAccessToday
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonOutsideWindow:
		return "outside-window"
	case ReasonCapReached:
		return "cap-reached"
	case ReasonNoAccessToday:
		return "no-access-today"
	default:
		return "unknown"
	}
}

// WarningKind classifies advisory notices attached to allowed
// decisions.
type WarningKind int

const (
	// WarnCapApproaching: the remaining daily quota is at or below the
	// configured threshold. Minutes holds the remaining quota.
	WarnCapApproaching WarningKind = iota

	// WarnWindowClosing: the current window closes within the
	// configured threshold. Minutes holds the minutes left.
	WarnWindowClosing
)

// Warning is an advisory attached to an allowed decision. The prompt
// still proceeds.
type Warning struct {
	Kind    WarningKind
	Minutes int
}

// Message renders the warning for human display.
func (w Warning) Message() string {
	switch w.Kind {
	case WarnCapApproaching:
		return fmt.Sprintf("Only %d minutes of today's usage limit remain.", w.Minutes)
	case WarnWindowClosing:
		return fmt.Sprintf("The current access window closes in %d minutes.", w.Minutes)
	default:
		return ""
	}
}

// OverrideSource records which mechanism activated an override.
type OverrideSource int

const (
	// OverrideEnv: the configured environment variable is set.
	OverrideEnv OverrideSource = iota

	// OverrideFile: an unexpired override file granted by an
	// extension.
	OverrideFile
)

// OverrideInfo describes the override that bypassed the schedule for
// this decision.
type OverrideInfo struct {
	Source    OverrideSource
	Label     string
	Remaining time.Duration
}

// Describe renders the override for human display.
func (o OverrideInfo) Describe() string {
	if o.Source == OverrideEnv {
		return "override active (environment)"
	}
	label := o.Label
	if label == "" {
		label = "override"
	}
	mins := int(o.Remaining.Minutes())
	if mins < 1 {
		mins = 1
	}
	return fmt.Sprintf("%s active, %dm remaining", label, mins)
}

// Decision is the outcome of admitting one prompt.
//
// When Allowed is false, Reason says why and NextAvailable (when
// HasNext) says when access opens again. When Allowed is true,
// Warnings may carry advisories and Override is non-nil if an
// override bypassed the schedule.
type Decision struct {
	Allowed  bool
	Reason   Reason
	Disabled bool

	// NextAvailable is the next moment any window opens, valid only
	// when HasNext is true. A schedule with no windows anywhere has
	// no next opening.
	NextAvailable clock.Moment
	HasNext       bool

	Warnings []Warning
	Override *OverrideInfo

	// Usage context for status rendering. LimitMinutes is nil when the
	// governing block is unbounded or no block governs today.
	UsedMinutes  int
	LimitMinutes *int
	Match        schedule.Match
}

// Engine evaluates admission decisions. Construct with New.
type Engine struct {
	config       *schedule.Config
	store        *ledger.Store
	overridePath string
	log          *logging.Logger
}

// New creates an Engine. overridePath may be empty to disable the
// file-based override check. A nil logger falls back to the package
// default.
func New(config *schedule.Config, store *ledger.Store, overridePath string, log *logging.Logger) *Engine {
	if log == nil {
		log = logging.Default()
	}
	return &Engine{
		config:       config,
		store:        store,
		overridePath: overridePath,
		log:          log,
	}
}

// Decide evaluates whether a prompt at the given moment may proceed.
//
// Evaluation order: disabled config, environment override, file
// override, schedule match, then daily cap. Ledger read failures
// degrade to zero usage and are logged; they never abort the decision.
func (e *Engine) Decide(now clock.Moment) Decision {
	if !e.config.Enabled {
		return Decision{Allowed: true, Disabled: true}
	}

	if override.EnvActive(e.config.Override.EnvVar) {
		return Decision{
			Allowed:  true,
			Override: &OverrideInfo{Source: OverrideEnv},
		}
	}

	if e.overridePath != "" {
		state, active, err := override.Load(e.overridePath, now.Time)
		if err != nil {
			// An unreadable override file means no override; the
			// schedule still governs.
			e.log.Warn("override file unreadable, ignoring",
				"path", e.overridePath, "error", err.Error())
		} else if active {
			return Decision{
				Allowed: true,
				Override: &OverrideInfo{
					Source:    OverrideFile,
					Label:     state.Label,
					Remaining: state.Remaining(now.Time),
				},
			}
		}
	}

	match := e.config.Match(now.Weekday, now.MinuteOfDay)
	switch match.Kind {
	case schedule.NoAccessToday:
		next, ok := e.config.NextOpening(now)
		return Decision{
			Reason:        ReasonNoAccessToday,
			NextAvailable: next,
			HasNext:       ok,
			Match:         match,
		}
	case schedule.NextWindow, schedule.NoMoreWindowsToday:
		next, ok := e.config.NextOpening(now)
		return Decision{
			Reason:        ReasonOutsideWindow,
			NextAvailable: next,
			HasNext:       ok,
			Match:         match,
		}
	}

	used, err := e.store.ActiveMinutes(now)
	if err != nil {
		// Degrade to zero usage rather than blocking: the quota resets
		// for the day, and the failure is on record.
		e.log.Error("usage ledger unreadable, assuming zero usage",
			"date", now.Date, "error", err.Error())
		used = 0
	}

	limit := match.Block.DailyLimitMinutes
	if limit != nil && used >= *limit {
		next, ok := e.config.NextOpeningAfterToday(now)
		return Decision{
			Reason:        ReasonCapReached,
			NextAvailable: next,
			HasNext:       ok,
			UsedMinutes:   used,
			LimitMinutes:  limit,
			Match:         match,
		}
	}

	decision := Decision{
		Allowed:      true,
		UsedMinutes:  used,
		LimitMinutes: limit,
		Match:        match,
	}
	if limit != nil {
		if remaining := *limit - used; remaining <= e.config.WarningMinutesBeforeCap {
			decision.Warnings = append(decision.Warnings, Warning{
				Kind:    WarnCapApproaching,
				Minutes: remaining,
			})
		}
	}
	if match.MinutesRemaining <= e.config.WarningMinutesBeforeEnd {
		decision.Warnings = append(decision.Warnings, Warning{
			Kind:    WarnWindowClosing,
			Minutes: match.MinutesRemaining,
		})
	}
	return decision
}

// FormatNextAvailable renders a next-opening moment relative to now:
// "today at 16:00" for the same calendar day, otherwise the weekday
// name, "Monday at 08:00".
func FormatNextAvailable(now, next clock.Moment) string {
	at := clock.FormatClock(next.MinuteOfDay)
	if next.Date == now.Date {
		return fmt.Sprintf("today at %s", at)
	}
	return fmt.Sprintf("%s at %s", next.Time.Weekday().String(), at)
}
