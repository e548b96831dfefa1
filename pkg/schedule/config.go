// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package schedule holds the balance policy configuration: which
// weekdays and time windows the assistant is available, the daily
// usage cap per block, and the extension types a user may request.
//
// The config file is JSON. A missing file means defaults; a present
// file is merged over the defaults the same way the original Balance
// tooling did: the schedule section replaces the default schedule
// wholesale, extensions and override settings merge key-by-key.
//
// Contradictory schedules (two blocks claiming the same weekday,
// windows with start >= end) are rejected at load time so that the
// admission path never has to disambiguate.
package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/balance/pkg/clock"
)

// ConfigError reports a malformed or contradictory configuration.
// It is fatal: no admission decision is made on a broken config.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid balance config: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid balance config: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ExtensionType describes one kind of temporary quota relief a user
// can request, keyed by its identifier in Config.Extensions.
type ExtensionType struct {
	Minutes   int    `json:"minutes" validate:"min=1"`
	MaxPerDay int    `json:"max_per_day" validate:"min=1"`
	Label     string `json:"label"`
}

// OverrideConfig locates the override bypass controls.
type OverrideConfig struct {
	EnvVar string `json:"env_var"`
	File   string `json:"file"`
}

// Block is a named schedule rule: the weekdays it governs, the windows
// within those days, and an optional daily cap in active minutes.
// A nil DailyLimitMinutes means unbounded usage inside the windows.
type Block struct {
	Days              []int    `json:"days" validate:"required,min=1,dive,min=1,max=7"`
	Windows           []Window `json:"windows"`
	DailyLimitMinutes *int     `json:"daily_limit_minutes,omitempty"`
}

// Config is the full balance policy. Immutable once loaded.
type Config struct {
	Enabled                 bool                     `json:"enabled"`
	Timezone                string                   `json:"timezone" validate:"required"`
	Schedule                map[string]Block         `json:"schedule"`
	Extensions              map[string]ExtensionType `json:"extensions"`
	Override                OverrideConfig           `json:"override"`
	WarningMinutesBeforeEnd int                      `json:"warning_minutes_before_end" validate:"min=0"`
	WarningMinutesBeforeCap int                      `json:"warning_minutes_before_cap" validate:"min=0"`
}

var validate = validator.New()

// Default returns the shipped policy: weekday access 08:00-18:00 with
// a 240-minute cap, and the two stock extension types.
func Default() *Config {
	limit := 240
	return &Config{
		Enabled:  true,
		Timezone: "Europe/London",
		Schedule: map[string]Block{
			"weekday": {
				Days:              []int{1, 2, 3, 4, 5},
				Windows:           []Window{{Start: 8 * 60, End: 18 * 60}},
				DailyLimitMinutes: &limit,
			},
		},
		Extensions: map[string]ExtensionType{
			"quick": {Minutes: 15, MaxPerDay: 2, Label: "Quick 15-min session"},
			"more":  {Minutes: 15, MaxPerDay: 3, Label: "15 more minutes"},
		},
		Override: OverrideConfig{
			EnvVar: "BALANCE_OVERRIDE",
			File:   "~/.balance/override.json",
		},
		WarningMinutesBeforeEnd: 15,
		WarningMinutesBeforeCap: 30,
	}
}

// overlay mirrors Config with presence-aware fields so a user file can
// override only what it mentions.
type overlay struct {
	Enabled                 *bool                    `json:"enabled"`
	Timezone                *string                  `json:"timezone"`
	Schedule                map[string]blockOverlay  `json:"schedule"`
	Extensions              map[string]ExtensionType `json:"extensions"`
	Override                *OverrideConfig          `json:"override"`
	WarningMinutesBeforeEnd *int                     `json:"warning_minutes_before_end"`
	WarningMinutesBeforeCap *int                     `json:"warning_minutes_before_cap"`
}

// blockOverlay accepts both the windows format and the legacy
// single-window fields (start_hour/end_hour etc.). A block that sets
// neither gets the legacy defaults, a full-day window.
type blockOverlay struct {
	Days              []int     `json:"days"`
	Windows           *[]Window `json:"windows"`
	DailyLimitMinutes *int      `json:"daily_limit_minutes"`
	StartHour         *int      `json:"start_hour"`
	StartMinute       *int      `json:"start_minute"`
	EndHour           *int      `json:"end_hour"`
	EndMinute         *int      `json:"end_minute"`
}

func (b blockOverlay) toBlock() Block {
	out := Block{Days: b.Days, DailyLimitMinutes: b.DailyLimitMinutes}
	if b.Windows != nil {
		out.Windows = *b.Windows
		return out
	}
	// Legacy format: one window from start_hour/minute to end_hour/minute,
	// defaulting to the whole day.
	start := 0
	if b.StartHour != nil {
		start = *b.StartHour * 60
	}
	if b.StartMinute != nil {
		start += *b.StartMinute
	}
	end := 24 * 60
	if b.EndHour != nil {
		end = *b.EndHour * 60
	}
	if b.EndMinute != nil {
		end += *b.EndMinute
	}
	out.Windows = []Window{{Start: start, End: end}}
	return out
}

// Load reads the config at path, merges it over the defaults, and
// validates the result. A missing file yields the default policy.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, &ConfigError{Reason: fmt.Sprintf("reading %s", path), Err: err}
	}
	if err := cfg.merge(data); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Parse builds a Config from raw JSON merged over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.merge(data); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) merge(data []byte) error {
	var o overlay
	if err := json.Unmarshal(data, &o); err != nil {
		return &ConfigError{Reason: "parsing JSON", Err: err}
	}
	if o.Enabled != nil {
		c.Enabled = *o.Enabled
	}
	if o.Timezone != nil {
		c.Timezone = *o.Timezone
	}
	if o.Schedule != nil {
		// The schedule section replaces the defaults wholesale so a
		// custom schedule never inherits the stock weekday block.
		c.Schedule = make(map[string]Block, len(o.Schedule))
		for name, b := range o.Schedule {
			c.Schedule[name] = b.toBlock()
		}
	}
	for id, ext := range o.Extensions {
		c.Extensions[id] = ext
	}
	if o.Override != nil {
		if o.Override.EnvVar != "" {
			c.Override.EnvVar = o.Override.EnvVar
		}
		if o.Override.File != "" {
			c.Override.File = o.Override.File
		}
	}
	if o.WarningMinutesBeforeEnd != nil {
		c.WarningMinutesBeforeEnd = *o.WarningMinutesBeforeEnd
	}
	if o.WarningMinutesBeforeCap != nil {
		c.WarningMinutesBeforeCap = *o.WarningMinutesBeforeCap
	}
	return nil
}

// Validate checks field constraints and the cross-block invariants:
// every weekday belongs to at most one block, and every window is a
// non-empty half-open interval within the day.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &ConfigError{Reason: "field validation", Err: err}
	}

	names := make([]string, 0, len(c.Schedule))
	for name := range c.Schedule {
		names = append(names, name)
	}
	sort.Strings(names)

	claimed := make(map[int]string)
	for _, name := range names {
		block := c.Schedule[name]
		if err := validate.Struct(block); err != nil {
			return &ConfigError{Reason: fmt.Sprintf("schedule block %q", name), Err: err}
		}
		for _, day := range block.Days {
			if prev, ok := claimed[day]; ok {
				return &ConfigError{Reason: fmt.Sprintf(
					"weekday %d claimed by both %q and %q", day, prev, name)}
			}
			claimed[day] = name
		}
		for _, w := range block.Windows {
			if w.Start < 0 || w.End > 24*60 || w.Start >= w.End {
				return &ConfigError{Reason: fmt.Sprintf(
					"schedule block %q: window %s-%s is not a valid interval",
					name, clock.FormatClock(w.Start), clock.FormatClock(w.End))}
			}
		}
	}

	for id, ext := range c.Extensions {
		if err := validate.Struct(ext); err != nil {
			return &ConfigError{Reason: fmt.Sprintf("extension %q", id), Err: err}
		}
	}
	return nil
}

// WindowsSummary renders a block's windows like "08:00-10:30 + 16:00-19:00".
func WindowsSummary(windows []Window) string {
	sorted := make([]Window, len(windows))
	copy(sorted, windows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	parts := make([]string, 0, len(sorted))
	for _, w := range sorted {
		parts = append(parts, fmt.Sprintf("%s–%s",
			clock.FormatClock(w.Start), clock.FormatClock(w.End)))
	}
	return strings.Join(parts, " + ")
}
