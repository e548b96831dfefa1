// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package escalation implements the friction ladder applied to repeat
// extension requests, and the extension granting that consults it.
//
// The ladder is data, not code: a table of confirmation phrases and
// quotes baked into the binary from stages.yaml, optionally replaced
// by a user-supplied file. The stage for a request is a pure function
// of how many extensions were already granted today, so it resets
// implicitly at day rollover and needs no stored state of its own.
package escalation

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultTable holds the raw bytes of stages.yaml, baked in at compile
// time so the ladder travels with the executable.
//
//go:embed stages.yaml
var defaultTable []byte

// StageSpec is one rung of the ladder.
type StageSpec struct {
	Phrase string `yaml:"phrase"`
	Quote  string `yaml:"quote"`
}

// Table is the full ladder configuration. FreeGrants is the number of
// per-day extensions granted without confirmation; grants past that
// walk the Stages list, sticking at the last rung.
type Table struct {
	FreeGrants int         `yaml:"free_grants"`
	Stages     []StageSpec `yaml:"stages"`
}

// Stage is the friction applied to the next extension request.
// Number 0 means no confirmation needed; higher numbers carry the
// phrase the requester must supply and the quote shown with it.
type Stage struct {
	Number int
	Phrase string
	Quote  string
}

// Required reports whether this stage demands a confirmation phrase.
func (s Stage) Required() bool { return s.Phrase != "" }

// DefaultTable parses the embedded ladder. It panics only on a broken
// build: the embedded YAML is covered by tests.
func DefaultTable() *Table {
	t, err := parseTable(defaultTable)
	if err != nil {
		panic(fmt.Sprintf("embedded escalation table is invalid: %v", err))
	}
	return t
}

// LoadTable reads a user ladder from path, falling back to the
// embedded default when the file does not exist.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultTable(), nil
		}
		return nil, fmt.Errorf("reading escalation table %s: %w", path, err)
	}
	t, err := parseTable(data)
	if err != nil {
		return nil, fmt.Errorf("escalation table %s: %w", path, err)
	}
	return t, nil
}

func parseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t.FreeGrants < 0 {
		return nil, fmt.Errorf("free_grants must be >= 0, got %d", t.FreeGrants)
	}
	if len(t.Stages) == 0 {
		return nil, fmt.Errorf("at least one stage is required")
	}
	for i, s := range t.Stages {
		if strings.TrimSpace(s.Phrase) == "" {
			return nil, fmt.Errorf("stage %d has an empty phrase", i)
		}
	}
	return &t, nil
}

// StageFor returns the friction stage for the next request given how
// many extensions were granted so far today. Monotonic: more grants
// never lower the stage.
func (t *Table) StageFor(grantedToday int) Stage {
	if grantedToday < t.FreeGrants {
		return Stage{Number: 0}
	}
	idx := grantedToday - t.FreeGrants
	if idx >= len(t.Stages) {
		idx = len(t.Stages) - 1
	}
	return Stage{
		Number: idx + 1,
		Phrase: t.Stages[idx].Phrase,
		Quote:  t.Stages[idx].Quote,
	}
}

// Matches checks a supplied confirmation against the stage's phrase.
// Case and whitespace are forgiven; nothing else is. The exact-match
// discipline is the point of the ladder: a speed bump, not a parser.
func (s Stage) Matches(supplied string) bool {
	return normalize(supplied) == normalize(s.Phrase)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
