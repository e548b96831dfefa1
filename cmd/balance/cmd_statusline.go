// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/balance/pkg/statusline"
)

func runStatusline(cmd *cobra.Command, args []string) {
	ev, err := statusline.ParseEvent(os.Stdin)
	if err != nil {
		// A broken event still gets a line; the balance segments do
		// not depend on it.
		ev = statusline.Event{}
	}

	a, err := newApp("statusline", true)
	if err != nil {
		fmt.Println("balance: unavailable")
		os.Exit(CLIExitSuccess)
	}
	defer a.close()

	now, err := a.now()
	if err != nil {
		fmt.Println("balance: unavailable")
		os.Exit(CLIExitSuccess)
	}

	d := a.engine.Decide(now)
	fmt.Println(statusline.Render(statusline.FromDecision(d, now, ev)))
}
