// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/balance/pkg/admission"
	"github.com/AleutianAI/balance/pkg/clock"
	"github.com/AleutianAI/balance/pkg/ledger"
	"github.com/AleutianAI/balance/pkg/schedule"
)

// hookEvent is the prompt-submit event on stdin. Only identity fields
// are read; the decision comes from the config clock, never from the
// event payload.
type hookEvent struct {
	SessionID string `json:"session_id"`
	CWD       string `json:"cwd"`
}

// parseHookEvent is tolerant: a missing or malformed event only costs
// log attribution, never the decision.
func parseHookEvent(r io.Reader) hookEvent {
	var ev hookEvent
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ev
	}
	_ = json.Unmarshal(data, &ev)
	return ev
}

func runHook(cmd *cobra.Command, args []string) {
	ev := parseHookEvent(os.Stdin)

	a, err := newApp("hook", true)
	if err != nil {
		failClosed(err)
	}
	defer a.close()

	log := a.log
	if ev.SessionID != "" {
		log = log.With("session_id", ev.SessionID)
	}

	now, err := a.now()
	if err != nil {
		log.Error("clock resolution failed", "error", err.Error())
		failClosed(err)
	}

	if err := a.store.MaybePrune(now, ledger.RetentionDays); err != nil {
		log.Warn("retention prune failed", "error", err.Error())
	}

	d := a.engine.Decide(now)
	if d.Allowed {
		if !d.Disabled {
			if err := a.store.RecordPrompt(now); err != nil {
				// The decision stands; the lost minute is on record.
				log.Error("usage write failed", "date", now.Date, "error", err.Error())
			}
		}
		if ctx := allowContext(d); ctx != "" {
			payload, _ := json.Marshal(map[string]string{"additionalContext": ctx})
			fmt.Println(string(payload))
		}
		log.Info("prompt allowed",
			"used_minutes", d.UsedMinutes, "warnings", len(d.Warnings))
		os.Exit(CLIExitSuccess)
	}

	counts, err := a.store.ExtensionCounts(now)
	if err != nil {
		log.Warn("extension counts unreadable", "error", err.Error())
		counts = map[string]int{}
	}
	log.Info("prompt blocked", "reason", d.Reason.String(), "used_minutes", d.UsedMinutes)
	fmt.Fprintln(os.Stderr, extensionMenu(a.cfg, counts, blockContext(d, now)))
	os.Exit(CLIExitBlocked)
}

// failClosed blocks on unexpected errors rather than silently letting
// prompts through on a broken setup.
func failClosed(err error) {
	fmt.Fprintf(os.Stderr, "Balance error (blocking): %v\n", err)
	os.Exit(CLIExitBlocked)
}

// allowContext builds the additionalContext string for an allowed
// prompt: override notice, or advisory warnings joined with " | ".
func allowContext(d admission.Decision) string {
	if d.Override != nil {
		return "Time override active: " + d.Override.Describe()
	}

	var parts []string
	for _, w := range d.Warnings {
		if w.Kind == admission.WarnWindowClosing {
			parts = append(parts, fmt.Sprintf("Window closes in %d minutes.", w.Minutes))
		}
	}
	for _, w := range d.Warnings {
		if w.Kind == admission.WarnCapApproaching && d.LimitMinutes != nil {
			parts = append(parts, fmt.Sprintf("Daily usage: %d/%d min (%d min remaining).",
				d.UsedMinutes, *d.LimitMinutes, w.Minutes))
		}
	}
	return strings.Join(parts, " | ")
}

// blockContext renders the first line of a block message.
func blockContext(d admission.Decision, now clock.Moment) string {
	next := ""
	if d.HasNext {
		next = admission.FormatNextAvailable(now, d.NextAvailable)
	}

	switch d.Reason {
	case admission.ReasonNoAccessToday:
		if next == "" {
			return "The assistant is offline today, and no windows are scheduled this week."
		}
		return fmt.Sprintf("The assistant is offline today. Next available: %s.", next)
	case admission.ReasonCapReached:
		limit := 0
		if d.LimitMinutes != nil {
			limit = *d.LimitMinutes
		}
		return fmt.Sprintf("Daily limit reached (%d/%d minutes used today).", d.UsedMinutes, limit)
	default:
		summary := ""
		if d.Match.Block != nil {
			summary = schedule.WindowsSummary(d.Match.Block.Windows)
		}
		if next == "" {
			return fmt.Sprintf("Outside allowed hours (%s).", summary)
		}
		return fmt.Sprintf("Outside allowed hours (%s). Next window: %s.", summary, next)
	}
}

// extensionMenu appends the available extension options to a block
// message so the user knows how to buy more time.
func extensionMenu(cfg *schedule.Config, counts map[string]int, context string) string {
	ids := make([]string, 0, len(cfg.Extensions))
	for id := range cfg.Extensions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var lines []string
	anyAvailable := false
	for _, id := range ids {
		ext := cfg.Extensions[id]
		remaining := ext.MaxPerDay - counts[id]
		if remaining > 0 {
			anyAvailable = true
			lines = append(lines, fmt.Sprintf("  balance extend %-8s — %s (%d remaining)",
				id, ext.Label, remaining))
		} else {
			lines = append(lines, fmt.Sprintf("  balance extend %-8s — %s (none left)",
				id, ext.Label))
		}
	}

	if anyAvailable {
		lines = append(lines, "  balance extend          — interactive chooser")
	} else {
		lines = append(lines, "", "  No extensions remaining. Take a break.")
	}

	return strings.Join(append([]string{context, "", "Run from terminal:"}, lines...), "\n")
}
