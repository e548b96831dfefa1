// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"testing"
)

func TestSetPersonalityLevel_AndGet(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	SetPersonalityLevel(PersonalityMinimal)
	if got := GetPersonalityLevel(); got != PersonalityMinimal {
		t.Errorf("expected level %v, got %v", PersonalityMinimal, got)
	}
}

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		input string
		want  PersonalityLevel
	}{
		{"full", PersonalityFull},
		{"f", PersonalityFull},
		{"FULL", PersonalityFull},
		{"standard", PersonalityStandard},
		{"std", PersonalityStandard},
		{"s", PersonalityStandard},
		{"minimal", PersonalityMinimal},
		{"min", PersonalityMinimal},
		{"m", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"quiet", PersonalityMachine},
		{"q", PersonalityMachine},
		{" machine ", PersonalityMachine},
		{"", PersonalityStandard},
		{"bogus", PersonalityStandard},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParsePersonalityLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParsePersonalityLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInitPersonality_EnvWins(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	t.Setenv("BALANCE_PERSONALITY", "minimal")
	InitPersonality()
	if got := GetPersonalityLevel(); got != PersonalityMinimal {
		t.Errorf("expected minimal from env, got %v", got)
	}
}

func TestInitPersonality_NonTerminalIsMachine(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	t.Setenv("BALANCE_PERSONALITY", "")
	InitPersonality()
	// Test runners never attach stdout to a tty.
	if IsTerminal() {
		t.Skip("stdout is a terminal")
	}
	if got := GetPersonalityLevel(); got != PersonalityMachine {
		t.Errorf("expected machine for non-terminal stdout, got %v", got)
	}
}

func TestShouldShowColors(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	tests := []struct {
		level PersonalityLevel
		want  bool
	}{
		{PersonalityFull, true},
		{PersonalityStandard, true},
		{PersonalityMinimal, false},
		{PersonalityMachine, false},
	}

	for _, tt := range tests {
		SetPersonalityLevel(tt.level)
		if got := ShouldShowColors(); got != tt.want {
			t.Errorf("ShouldShowColors() at %v = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestIsInteractive_MachineNever(t *testing.T) {
	orig := GetPersonalityLevel()
	defer SetPersonalityLevel(orig)

	SetPersonalityLevel(PersonalityMachine)
	if IsInteractive() {
		t.Error("machine level must never be interactive")
	}
}
