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
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/balance/pkg/clock"
	"github.com/AleutianAI/balance/pkg/schedule"
	"github.com/AleutianAI/balance/pkg/ux"
)

func runInit(cmd *cobra.Command, args []string) {
	home := balanceHome()
	configPath := filepath.Join(home, "balance.json")

	if _, err := os.Stat(configPath); err == nil && !initForce {
		ux.Error(fmt.Sprintf("%s already exists; rerun with --force to overwrite", configPath))
		os.Exit(CLIExitError)
	}

	answers := initDefaults()
	if ux.IsInteractive() {
		var err error
		answers, err = askInitForm(answers)
		if err != nil {
			ux.Error(err.Error())
			os.Exit(CLIExitError)
		}
	}

	data, err := renderInitConfig(answers)
	if err != nil {
		OutputError(false, "cannot build config", err)
		os.Exit(CLIExitError)
	}

	if err := os.MkdirAll(home, 0o755); err != nil {
		OutputError(false, "cannot create state directory", err)
		os.Exit(CLIExitError)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		OutputError(false, "cannot write config", err)
		os.Exit(CLIExitError)
	}

	ux.Success("Wrote " + configPath)
	ux.Muted("Edit it any time; a missing file falls back to the defaults.")
}

// initAnswers carries the setup form fields as entered.
type initAnswers struct {
	Timezone    string
	WindowStart string
	WindowEnd   string
	DailyLimit  string // empty means unbounded
}

func initDefaults() initAnswers {
	return initAnswers{
		Timezone:    schedule.Default().Timezone,
		WindowStart: "08:00",
		WindowEnd:   "18:00",
		DailyLimit:  "240",
	}
}

func askInitForm(defaults initAnswers) (initAnswers, error) {
	answers := defaults
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Timezone (IANA name)").
			Value(&answers.Timezone).
			Validate(func(s string) error {
				_, err := time.LoadLocation(s)
				return err
			}),
		huh.NewInput().
			Title("Weekday window opens (HH:MM)").
			Value(&answers.WindowStart).
			Validate(validClock),
		huh.NewInput().
			Title("Weekday window closes (HH:MM)").
			Value(&answers.WindowEnd).
			Validate(validClock),
		huh.NewInput().
			Title("Daily limit in minutes (empty for none)").
			Value(&answers.DailyLimit).
			Validate(func(s string) error {
				if s == "" {
					return nil
				}
				n, err := strconv.Atoi(s)
				if err != nil || n < 1 {
					return fmt.Errorf("enter a positive number of minutes")
				}
				return nil
			}),
	))
	if err := form.Run(); err != nil {
		return answers, fmt.Errorf("setup aborted: %w", err)
	}
	return answers, nil
}

func validClock(s string) error {
	_, err := clock.ParseClock(s)
	return err
}

// renderInitConfig builds the balance.json payload and proves it loads
// before anything is written.
func renderInitConfig(a initAnswers) ([]byte, error) {
	block := map[string]interface{}{
		"days": []int{1, 2, 3, 4, 5},
		"windows": []map[string]string{
			{"start": a.WindowStart, "end": a.WindowEnd},
		},
	}
	if a.DailyLimit != "" {
		limit, err := strconv.Atoi(a.DailyLimit)
		if err != nil {
			return nil, fmt.Errorf("daily limit: %w", err)
		}
		block["daily_limit_minutes"] = limit
	}

	doc := map[string]interface{}{
		"enabled":  true,
		"timezone": a.Timezone,
		"schedule": map[string]interface{}{
			"weekday": block,
		},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	if _, err := schedule.Parse(data); err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
