// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/balance/pkg/ux"
)

func runClear(cmd *cobra.Command, args []string) {
	a, err := newApp("cli", false)
	if err != nil {
		OutputError(false, "cannot load balance config", err)
		os.Exit(CLIExitError)
	}
	defer a.close()

	if err := a.granter.Clear(); err != nil {
		OutputError(false, "cannot remove override", err)
		os.Exit(CLIExitError)
	}
	a.log.Info("override cleared")
	ux.Success("Override cleared. The schedule governs again.")
}
