// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	fn()
	w.Close()
	os.Stdout = old
	out, _ := io.ReadAll(r)
	return string(out)
}

func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stderr = w
	fn()
	w.Close()
	os.Stderr = old
	out, _ := io.ReadAll(r)
	return string(out)
}

func TestOutputJSON(t *testing.T) {
	out := captureStdout(t, func() {
		if err := OutputJSON(map[string]int{"used": 42}); err != nil {
			t.Errorf("OutputJSON: %v", err)
		}
	})

	var decoded map[string]int
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["used"] != 42 {
		t.Errorf("used = %d, want 42", decoded["used"])
	}
	if !strings.Contains(out, "  ") {
		t.Error("expected indented output")
	}
}

func TestOutputError_Text(t *testing.T) {
	out := captureStderr(t, func() {
		OutputError(false, "cannot load config", errors.New("boom"))
	})
	want := "Error: cannot load config: boom\n"
	if out != want {
		t.Errorf("stderr = %q, want %q", out, want)
	}
}

func TestOutputError_JSON(t *testing.T) {
	out := captureStdout(t, func() {
		OutputError(true, "cannot load config", errors.New("boom"))
	})

	var decoded map[string]interface{}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["success"] != false {
		t.Error("expected success=false")
	}
	if !strings.Contains(decoded["error"].(string), "boom") {
		t.Errorf("error field = %v", decoded["error"])
	}
}
