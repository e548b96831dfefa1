// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/balance/pkg/admission"
	"github.com/AleutianAI/balance/pkg/clock"
	"github.com/AleutianAI/balance/pkg/schedule"
	"github.com/AleutianAI/balance/pkg/statusline"
	"github.com/AleutianAI/balance/pkg/ux"
)

// statusReport is the status command's output, shared between the
// styled and --json renderings.
type statusReport struct {
	Date          string            `json:"date"`
	Timezone      string            `json:"timezone"`
	Enabled       bool              `json:"enabled"`
	Gate          string            `json:"gate"`
	Reason        string            `json:"reason,omitempty"`
	NextAvailable string            `json:"next_available,omitempty"`
	UsedMinutes   int               `json:"used_minutes"`
	LimitMinutes  *int              `json:"limit_minutes,omitempty"`
	WindowsToday  string            `json:"windows_today,omitempty"`
	Warnings      []string          `json:"warnings,omitempty"`
	Override      string            `json:"override,omitempty"`
	Extensions    []extensionStatus `json:"extensions"`
}

type extensionStatus struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Minutes int    `json:"minutes"`
	Used    int    `json:"used_today"`
	Max     int    `json:"max_per_day"`
}

func runStatus(cmd *cobra.Command, args []string) {
	a, err := newApp("cli", false)
	if err != nil {
		OutputError(statusJSON, "cannot load balance config", err)
		os.Exit(CLIExitError)
	}
	defer a.close()

	now, err := a.now()
	if err != nil {
		OutputError(statusJSON, "cannot resolve the configured timezone", err)
		os.Exit(CLIExitError)
	}

	report := buildStatusReport(a, now)
	if statusJSON {
		if err := OutputJSON(report); err != nil {
			os.Exit(CLIExitError)
		}
		return
	}
	printStatus(report)
}

func buildStatusReport(a *app, now clock.Moment) statusReport {
	d := a.engine.Decide(now)
	gate := statusline.FromDecision(d, now, statusline.Event{}).Gate

	report := statusReport{
		Date:         now.Date,
		Timezone:     a.cfg.Timezone,
		Enabled:      a.cfg.Enabled,
		Gate:         gate.String(),
		UsedMinutes:  d.UsedMinutes,
		LimitMinutes: d.LimitMinutes,
	}
	if !d.Allowed {
		report.Reason = d.Reason.String()
		if d.HasNext {
			report.NextAvailable = admission.FormatNextAvailable(now, d.NextAvailable)
		}
	}
	if d.Match.Block != nil && len(d.Match.Block.Windows) > 0 {
		report.WindowsToday = schedule.WindowsSummary(d.Match.Block.Windows)
	}
	for _, w := range d.Warnings {
		report.Warnings = append(report.Warnings, w.Message())
	}
	if d.Override != nil {
		report.Override = d.Override.Describe()
	}

	counts, err := a.store.ExtensionCounts(now)
	if err != nil {
		a.log.Warn("extension counts unreadable", "error", err.Error())
		counts = map[string]int{}
	}
	ids := make([]string, 0, len(a.cfg.Extensions))
	for id := range a.cfg.Extensions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		ext := a.cfg.Extensions[id]
		report.Extensions = append(report.Extensions, extensionStatus{
			ID:      id,
			Label:   ext.Label,
			Minutes: ext.Minutes,
			Used:    counts[id],
			Max:     ext.MaxPerDay,
		})
	}
	return report
}

func printStatus(r statusReport) {
	ux.Title("Balance")

	switch r.Gate {
	case "open":
		ux.Success(fmt.Sprintf("Gate open (%s, %s)", r.Date, r.Timezone))
	case "override":
		ux.Warning("Gate open via override: " + r.Override)
	case "off":
		ux.Muted("Gating disabled in config.")
	default:
		msg := "Gate closed: " + r.Reason
		if r.NextAvailable != "" {
			msg += ". Next: " + r.NextAvailable
		}
		ux.Error(msg)
	}

	if r.WindowsToday != "" {
		ux.Info("Today's windows: " + r.WindowsToday)
	}
	if r.LimitMinutes != nil {
		ux.Info("Usage: " + ux.QuotaBar(r.UsedMinutes, *r.LimitMinutes, 20))
	} else if r.UsedMinutes > 0 {
		ux.Info(fmt.Sprintf("Usage: %dm today (no daily limit)", r.UsedMinutes))
	}
	for _, w := range r.Warnings {
		ux.Warning(w)
	}

	if len(r.Extensions) > 0 {
		ux.Muted("Extensions:")
		for _, ext := range r.Extensions {
			ux.Info(fmt.Sprintf("%s %s — %dm, %d/%d used today",
				ext.ID, ext.Label, ext.Minutes, ext.Used, ext.Max))
		}
	}
}
