// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package statusline renders the one-line session status shown in the
// assistant's footer: gate state, today's quota, window close time,
// and any active override, alongside passthrough session fields from
// the status event.
//
// Everything here is formatting. The admission engine decides; this
// package only describes.
package statusline

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/balance/pkg/admission"
	"github.com/AleutianAI/balance/pkg/clock"
	"github.com/AleutianAI/balance/pkg/ux"
)

// Event is the status JSON the assistant pipes to the statusline
// command on stdin. Unknown fields are ignored; every field is
// optional.
type Event struct {
	Model struct {
		DisplayName string `json:"display_name"`
	} `json:"model"`
	Workspace struct {
		CurrentDir string `json:"current_dir"`
	} `json:"workspace"`
	SessionID string `json:"session_id"`
}

// ParseEvent decodes a status event. An empty stream yields a zero
// Event rather than an error so the statusline still renders the
// balance segments.
func ParseEvent(r io.Reader) (Event, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Event{}, fmt.Errorf("read status event: %w", err)
	}
	var ev Event
	if len(strings.TrimSpace(string(data))) == 0 {
		return ev, nil
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("parse status event: %w", err)
	}
	return ev, nil
}

// Gate is the condensed decision state shown in the line.
type Gate int

const (
	GateOpen Gate = iota
	GateClosed
	GateOverride
	GateOff
)

func (g Gate) String() string {
	switch g {
	case GateOpen:
		return "open"
	case GateClosed:
		return "closed"
	case GateOverride:
		return "override"
	case GateOff:
		return "off"
	default:
		return "unknown"
	}
}

// Summary is everything the line renders, precomputed by the caller.
type Summary struct {
	Gate Gate

	// UsedMinutes / LimitMinutes describe today's quota. LimitMinutes
	// is nil for unbounded blocks.
	UsedMinutes  int
	LimitMinutes *int

	// WindowEnd is the current window's closing minute-of-day, -1 when
	// no window is active.
	WindowEnd int

	// Override carries the human description of an active override.
	Override string

	// NextAvailable describes when a closed gate opens again.
	NextAvailable string

	// Passthrough session fields from the Event.
	Model string
	Dir   string
}

// FromDecision maps an admission decision plus the session event into
// a Summary.
func FromDecision(d admission.Decision, now clock.Moment, ev Event) Summary {
	s := Summary{
		UsedMinutes:  d.UsedMinutes,
		LimitMinutes: d.LimitMinutes,
		WindowEnd:    -1,
		Model:        ev.Model.DisplayName,
		Dir:          ev.Workspace.CurrentDir,
	}

	switch {
	case d.Disabled:
		s.Gate = GateOff
	case d.Override != nil:
		s.Gate = GateOverride
		s.Override = d.Override.Describe()
	case d.Allowed:
		s.Gate = GateOpen
		s.WindowEnd = d.Match.Window.End
	default:
		s.Gate = GateClosed
		if d.HasNext {
			s.NextAvailable = admission.FormatNextAvailable(now, d.NextAvailable)
		}
	}
	return s
}

// Render formats the summary as a single line. Segments are joined
// with a muted separator; empty segments are dropped.
func Render(s Summary) string {
	var segments []string

	if s.Model != "" {
		segments = append(segments, ux.Styles.Subtitle.Render(s.Model))
	}
	if s.Dir != "" {
		segments = append(segments, ux.Styles.Muted.Render(filepath.Base(s.Dir)))
	}

	segments = append(segments, gateSegment(s))

	if s.Gate == GateOpen || s.Gate == GateOverride {
		if s.LimitMinutes != nil {
			segments = append(segments, ux.QuotaBar(s.UsedMinutes, *s.LimitMinutes, 10))
		} else if s.UsedMinutes > 0 {
			segments = append(segments, fmt.Sprintf("%dm today", s.UsedMinutes))
		}
	}
	if s.Gate == GateOpen && s.WindowEnd >= 0 {
		segments = append(segments,
			fmt.Sprintf("%s until %s", ux.IconClock, clock.FormatClock(s.WindowEnd)))
	}
	if s.Override != "" {
		segments = append(segments, ux.Styles.Warning.Render(s.Override))
	}

	sep := " " + ux.Styles.Muted.Render("|") + " "
	return strings.Join(segments, sep)
}

func gateSegment(s Summary) string {
	switch s.Gate {
	case GateOpen:
		return ux.Styles.Success.Render("balance: open")
	case GateOverride:
		return ux.Styles.Warning.Render("balance: override")
	case GateOff:
		return ux.Styles.Muted.Render("balance: off")
	default:
		msg := "balance: closed"
		if s.NextAvailable != "" {
			msg += " (next " + s.NextAvailable + ")"
		}
		return ux.Styles.Error.Render(msg)
	}
}
