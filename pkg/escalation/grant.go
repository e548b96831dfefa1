// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package escalation

import (
	"fmt"
	"time"

	"github.com/AleutianAI/balance/pkg/clock"
	"github.com/AleutianAI/balance/pkg/ledger"
	"github.com/AleutianAI/balance/pkg/override"
	"github.com/AleutianAI/balance/pkg/schedule"
)

// ErrorKind classifies a rejected extension request. All kinds are
// recoverable: the caller gets enough detail to retry correctly.
type ErrorKind int

const (
	// UnknownType: the requested extension id is not configured.
	UnknownType ErrorKind = iota
	// CapExceeded: the type's max_per_day is used up.
	CapExceeded
	// ConfirmationRequired: the current stage demands a phrase and the
	// supplied one was missing or wrong.
	ConfirmationRequired
	// LockBusy: another grant holds the lock; try again.
	LockBusy
)

// Error is the rejection of a grant request.
type Error struct {
	Kind   ErrorKind
	TypeID string
	Used   int   // CapExceeded: grants already used today
	Max    int   // CapExceeded: the type's daily cap
	Stage  Stage // ConfirmationRequired: the stage that must be satisfied
	Err    error
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnknownType:
		return fmt.Sprintf("unknown extension type %q", e.TypeID)
	case CapExceeded:
		return fmt.Sprintf("extension %q already used %d/%d times today", e.TypeID, e.Used, e.Max)
	case ConfirmationRequired:
		return fmt.Sprintf("extension %q requires the stage %d confirmation phrase", e.TypeID, e.Stage.Number)
	case LockBusy:
		return fmt.Sprintf("another extension grant is in progress: %v", e.Err)
	default:
		return fmt.Sprintf("extension request failed: %v", e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Granter validates and executes extension requests. It owns the only
// write path to the extension ledger and the override file, and it
// serializes competing grants through the ledger's grant lock.
type Granter struct {
	Config       *schedule.Config
	Store        *ledger.Store
	Table        *Table
	OverridePath string
}

// StageNow returns the friction stage a request made now would face.
// Used by front-ends to prompt for the phrase before calling Grant.
func (g *Granter) StageNow(now clock.Moment) (Stage, error) {
	total, err := g.Store.TotalExtensions(now)
	if err != nil {
		// Degrade to zero grants; Grant re-reads under the lock.
		total = 0
	}
	return g.Table.StageFor(total), nil
}

// Grant validates the request against the type's daily cap and the
// escalation ladder, then atomically increments the extension ledger
// and installs (or lengthens) the override. The whole read-check-write
// sequence runs under the grant lock: a lost update here would let a
// user bypass the cap, so this race is treated as a correctness bug,
// not an accepted imperfection.
//
// The returned state is what is actually in force afterwards, which
// may be a pre-existing override that already ran longer than the new
// grant, since grants never shorten remaining time.
func (g *Granter) Grant(extensionID string, now clock.Moment, phrase string) (override.State, error) {
	ext, ok := g.Config.Extensions[extensionID]
	if !ok {
		return override.State{}, &Error{Kind: UnknownType, TypeID: extensionID}
	}

	release, err := g.Store.GrantLock(now)
	if err != nil {
		return override.State{}, &Error{Kind: LockBusy, TypeID: extensionID, Err: err}
	}
	defer release()

	counts, err := g.Store.ExtensionCounts(now)
	if err != nil {
		// Corrupt ledger reads as zero; the increment below rewrites
		// the file from scratch.
		counts = map[string]int{}
	}
	if counts[extensionID] >= ext.MaxPerDay {
		return override.State{}, &Error{
			Kind: CapExceeded, TypeID: extensionID,
			Used: counts[extensionID], Max: ext.MaxPerDay,
		}
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	stage := g.Table.StageFor(total)
	if stage.Required() && !stage.Matches(phrase) {
		return override.State{}, &Error{Kind: ConfirmationRequired, TypeID: extensionID, Stage: stage}
	}

	if err := g.Store.IncrementExtension(now, extensionID); err != nil {
		return override.State{}, err
	}
	st := override.State{
		ExpiresAt: now.Time.Add(time.Duration(ext.Minutes) * time.Minute),
		Label:     ext.Label,
	}
	return override.Save(g.OverridePath, st, now.Time)
}

// Clear removes any active override. Idempotent.
func (g *Granter) Clear() error {
	return override.Clear(g.OverridePath)
}
