// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

// Helper to capture stdout
func captureStdout(f func()) string {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	f()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

// Helper to capture stderr
func captureStderr(f func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	f()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	io.Copy(&buf, r)
	return buf.String()
}

func withLevel(t *testing.T, level PersonalityLevel) {
	t.Helper()
	orig := GetPersonalityLevel()
	SetPersonalityLevel(level)
	t.Cleanup(func() { SetPersonalityLevel(orig) })
}

func TestIcon_Render(t *testing.T) {
	tests := []struct {
		icon Icon
		want string
	}{
		{IconSuccess, "✓"},
		{IconWarning, "⚠"},
		{IconError, "✗"},
		{IconPending, "○"},
		{IconArrow, "→"},
		{IconBullet, "•"},
		{IconClock, "◷"},
	}

	for _, tt := range tests {
		got := tt.icon.Render()
		if !strings.Contains(got, tt.want) {
			t.Errorf("Icon(%q).Render() = %q, should contain %q", tt.icon, got, tt.want)
		}
	}
}

func TestSuccess_Machine(t *testing.T) {
	withLevel(t, PersonalityMachine)

	out := captureStdout(func() { Success("grant recorded") })
	if out != "OK: grant recorded\n" {
		t.Errorf("Success machine output = %q", out)
	}
}

func TestWarning_Machine_GoesToStderr(t *testing.T) {
	withLevel(t, PersonalityMachine)

	errOut := captureStderr(func() { Warning("window closes soon") })
	if !strings.Contains(errOut, "WARN: window closes soon") {
		t.Errorf("Warning machine stderr = %q", errOut)
	}
}

func TestError_Machine_GoesToStderr(t *testing.T) {
	withLevel(t, PersonalityMachine)

	errOut := captureStderr(func() { Error("unknown extension type") })
	if !strings.Contains(errOut, "ERROR: unknown extension type") {
		t.Errorf("Error machine stderr = %q", errOut)
	}
}

func TestTitle_Machine_Silent(t *testing.T) {
	withLevel(t, PersonalityMachine)

	out := captureStdout(func() { Title("Balance") })
	if out != "" {
		t.Errorf("Title should print nothing at machine level, got %q", out)
	}
}

func TestBox_Machine_PlainText(t *testing.T) {
	withLevel(t, PersonalityMachine)

	out := captureStdout(func() { Box("Status", "all clear") })
	if out != "Status: all clear\n" {
		t.Errorf("Box machine output = %q", out)
	}
}

func TestWarningBox_Standard_HasBorder(t *testing.T) {
	withLevel(t, PersonalityStandard)

	out := captureStdout(func() { WarningBox("Blocked", "outside access hours") })
	if !strings.Contains(out, "Blocked") || !strings.Contains(out, "outside access hours") {
		t.Errorf("WarningBox output missing content: %q", out)
	}
	if !strings.Contains(out, "─") {
		t.Errorf("WarningBox output should have a border: %q", out)
	}
}

func TestQuotaBar_Machine(t *testing.T) {
	withLevel(t, PersonalityMachine)

	got := QuotaBar(120, 240, 20)
	if got != "120/240" {
		t.Errorf("QuotaBar machine = %q, want %q", got, "120/240")
	}
}

func TestQuotaBar_NoLimit(t *testing.T) {
	withLevel(t, PersonalityStandard)

	got := QuotaBar(42, 0, 20)
	if !strings.Contains(got, "42m") {
		t.Errorf("QuotaBar without limit = %q, should carry raw minutes", got)
	}
	if strings.Contains(got, "█") {
		t.Errorf("QuotaBar without limit should not render a bar: %q", got)
	}
}

func TestQuotaBar_Styled(t *testing.T) {
	withLevel(t, PersonalityStandard)

	tests := []struct {
		name  string
		used  int
		limit int
	}{
		{"empty", 0, 240},
		{"half", 120, 240},
		{"near cap", 230, 240},
		{"at cap", 240, 240},
		{"over cap", 300, 240},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := QuotaBar(tt.used, tt.limit, 10)
			if !strings.Contains(got, "m/") {
				t.Errorf("QuotaBar(%d, %d) = %q, should carry used/limit minutes", tt.used, tt.limit, got)
			}
		})
	}
}

func TestRepeatChar(t *testing.T) {
	if got := repeatChar('x', 3); got != "xxx" {
		t.Errorf("repeatChar('x', 3) = %q", got)
	}
	if got := repeatChar('x', 0); got != "" {
		t.Errorf("repeatChar('x', 0) = %q, want empty", got)
	}
	if got := repeatChar('x', -1); got != "" {
		t.Errorf("repeatChar('x', -1) = %q, want empty", got)
	}
}
