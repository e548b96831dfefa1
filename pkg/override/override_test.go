// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package override

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 2, 24, 10, 0, 0, 0, time.UTC)

func overridePath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "override.json")
}

func TestLoad_MissingFile(t *testing.T) {
	_, active, err := Load(overridePath(t), testNow)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSaveAndLoad(t *testing.T) {
	path := overridePath(t)
	want := State{ExpiresAt: testNow.Add(15 * time.Minute), Label: "Quick 15-min session"}
	saved, err := Save(path, want, testNow)
	require.NoError(t, err)
	assert.Equal(t, want, saved)

	got, active, err := Load(path, testNow)
	require.NoError(t, err)
	require.True(t, active)
	assert.Equal(t, "Quick 15-min session", got.Label)
	assert.Equal(t, 15*time.Minute, got.Remaining(testNow))
}

func TestLoad_ExpiredIsAbsentAndDeleted(t *testing.T) {
	path := overridePath(t)
	_, err := Save(path, State{ExpiresAt: testNow.Add(time.Minute), Label: "x"}, testNow)
	require.NoError(t, err)

	later := testNow.Add(2 * time.Minute)
	_, active, err := Load(path, later)
	require.NoError(t, err)
	assert.False(t, active)
	assert.NoFileExists(t, path, "expired override must be removed")
}

func TestSave_NeverShortensActiveOverride(t *testing.T) {
	path := overridePath(t)
	long := State{ExpiresAt: testNow.Add(20 * time.Minute), Label: "long"}
	_, err := Save(path, long, testNow)
	require.NoError(t, err)

	short := State{ExpiresAt: testNow.Add(15 * time.Minute), Label: "short"}
	kept, err := Save(path, short, testNow)
	require.NoError(t, err)
	assert.Equal(t, long, kept, "a later expiry must win over a shorter new grant")

	got, active, err := Load(path, testNow)
	require.NoError(t, err)
	require.True(t, active)
	assert.GreaterOrEqual(t, got.Remaining(testNow), 20*time.Minute)
}

func TestSave_ExtendsWhenLater(t *testing.T) {
	path := overridePath(t)
	_, err := Save(path, State{ExpiresAt: testNow.Add(10 * time.Minute), Label: "short"}, testNow)
	require.NoError(t, err)

	long := State{ExpiresAt: testNow.Add(25 * time.Minute), Label: "long"}
	kept, err := Save(path, long, testNow)
	require.NoError(t, err)
	assert.Equal(t, long, kept)
}

func TestClear_Idempotent(t *testing.T) {
	path := overridePath(t)
	require.NoError(t, Clear(path), "clearing nothing is a no-op")

	_, err := Save(path, State{ExpiresAt: testNow.Add(time.Hour), Label: "x"}, testNow)
	require.NoError(t, err)
	require.NoError(t, Clear(path))
	assert.NoFileExists(t, path)
	require.NoError(t, Clear(path))
}

func TestLoad_LegacyFreshFileHonored(t *testing.T) {
	path := overridePath(t)
	require.NoError(t, os.WriteFile(path, []byte("on"), 0o644))

	st, active, err := Load(path, time.Now())
	require.NoError(t, err)
	require.True(t, active, "a fresh legacy-format file still counts as an override")
	assert.Contains(t, st.Label, "legacy")
}

func TestLoad_LegacyStaleFileDeleted(t *testing.T) {
	path := overridePath(t)
	require.NoError(t, os.WriteFile(path, []byte("on"), 0o644))
	stale := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, stale, stale))

	_, active, err := Load(path, time.Now())
	require.NoError(t, err)
	assert.False(t, active)
	assert.NoFileExists(t, path)
}

func TestEnvActive(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"yes", true},
		{" yes ", true},
		{"", false},
		{"0", false},
		{"no", false},
		{"TRUE", false}, // deliberately strict, matching the original
	}
	for _, tt := range tests {
		t.Setenv("BALANCE_OVERRIDE", tt.value)
		if got := EnvActive("BALANCE_OVERRIDE"); got != tt.want {
			t.Errorf("EnvActive with %q = %v, want %v", tt.value, got, tt.want)
		}
	}
}
