// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command balance gates access to an interactive coding assistant by
// time of day, weekday, and a rolling daily usage quota.
//
// The assistant invokes `balance hook` on every prompt; the user runs
// `balance extend`, `balance status`, and friends from a terminal.
package main

import (
	"os"

	"github.com/AleutianAI/balance/pkg/ux"
)

func main() {
	ux.InitPersonality()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(CLIExitError)
	}
}
