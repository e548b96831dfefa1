// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/balance/pkg/clock"
	"github.com/AleutianAI/balance/pkg/escalation"
	"github.com/AleutianAI/balance/pkg/ux"
)

func runExtend(cmd *cobra.Command, args []string) {
	a, err := newApp("cli", false)
	if err != nil {
		OutputError(false, "cannot load balance config", err)
		os.Exit(CLIExitError)
	}
	defer a.close()

	now, err := a.now()
	if err != nil {
		OutputError(false, "cannot resolve the configured timezone", err)
		os.Exit(CLIExitError)
	}

	var extensionID string
	if len(args) == 1 {
		extensionID = args[0]
	} else {
		extensionID, err = chooseExtension(a, now)
		if err != nil {
			ux.Error(err.Error())
			os.Exit(CLIExitError)
		}
	}

	state, err := a.granter.Grant(extensionID, now, "")

	// Past the free grants, the first attempt comes back asking for
	// the stage phrase; gather it and try once more.
	var gerr *escalation.Error
	if errors.As(err, &gerr) && gerr.Kind == escalation.ConfirmationRequired {
		phrase, perr := confirmPhrase(gerr.Stage)
		if perr != nil {
			ux.Error(perr.Error())
			os.Exit(CLIExitError)
		}
		state, err = a.granter.Grant(extensionID, now, phrase)
	}

	if err != nil {
		reportGrantError(a, now, extensionID, err)
		os.Exit(CLIExitError)
	}

	a.log.Info("extension granted",
		"type", extensionID, "expires_at", state.ExpiresAt.Format("15:04"))
	label := state.Label
	if label == "" {
		label = extensionID
	}
	ux.Success(fmt.Sprintf("%s granted. Access until %s.",
		label, state.ExpiresAt.In(now.Time.Location()).Format("15:04")))
}

// chooseExtension runs the interactive picker, listing each type with
// its remaining grants for today.
func chooseExtension(a *app, now clock.Moment) (string, error) {
	if !ux.IsInteractive() {
		return "", errors.New("no extension type given; run `balance extend <type>` (see `balance status` for types)")
	}

	counts, err := a.store.ExtensionCounts(now)
	if err != nil {
		counts = map[string]int{}
	}

	ids := make([]string, 0, len(a.cfg.Extensions))
	for id := range a.cfg.Extensions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var options []huh.Option[string]
	for _, id := range ids {
		ext := a.cfg.Extensions[id]
		remaining := ext.MaxPerDay - counts[id]
		if remaining <= 0 {
			continue
		}
		options = append(options, huh.NewOption(
			fmt.Sprintf("%s — %dm (%d remaining today)", ext.Label, ext.Minutes, remaining), id))
	}
	if len(options) == 0 {
		return "", errors.New("no extensions remaining today")
	}

	var choice string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Which extension?").
			Options(options...).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("extension selection aborted: %w", err)
	}
	return choice, nil
}

// confirmPhrase shows the stage's quote and asks the user to type the
// confirmation phrase. Friction is the point: no default, no retry.
func confirmPhrase(stage escalation.Stage) (string, error) {
	if !ux.IsInteractive() {
		return "", fmt.Errorf("confirmation required: rerun interactively and type %q", stage.Phrase)
	}

	ux.Info(fmt.Sprintf("%q", stage.Quote))
	var phrase string
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(fmt.Sprintf("Type %q to continue", stage.Phrase)).
			Value(&phrase),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("confirmation aborted: %w", err)
	}
	return phrase, nil
}

func reportGrantError(a *app, now clock.Moment, extensionID string, err error) {
	var gerr *escalation.Error
	if !errors.As(err, &gerr) {
		OutputError(false, "extension request failed", err)
		return
	}

	switch gerr.Kind {
	case escalation.UnknownType:
		ids := make([]string, 0, len(a.cfg.Extensions))
		for id := range a.cfg.Extensions {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		ux.Error(fmt.Sprintf("unknown extension type %q; configured types: %v", extensionID, ids))
	case escalation.CapExceeded:
		ux.Error(fmt.Sprintf("no %q extensions left today (%d/%d used)",
			extensionID, gerr.Used, gerr.Max))
	case escalation.ConfirmationRequired:
		ux.Error("confirmation phrase did not match; the grant was not recorded")
	case escalation.LockBusy:
		ux.Error("another grant is in progress; try again in a moment")
	default:
		OutputError(false, "extension request failed", err)
	}
	a.log.Warn("extension rejected", "type", extensionID, "error", err.Error())
}
