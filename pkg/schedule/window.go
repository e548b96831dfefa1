// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package schedule

import (
	"encoding/json"
	"fmt"

	"github.com/AleutianAI/balance/pkg/clock"
)

// Window is a permitted interval within a day, half-open [Start, End)
// in minutes since midnight. The JSON form uses "HH:MM" strings.
type Window struct {
	Start int
	End   int
}

type windowJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (w *Window) UnmarshalJSON(data []byte) error {
	var raw windowJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	start, err := clock.ParseClock(raw.Start)
	if err != nil {
		return fmt.Errorf("window start: %w", err)
	}
	end, err := clock.ParseClock(raw.End)
	if err != nil {
		return fmt.Errorf("window end: %w", err)
	}
	w.Start = start
	w.End = end
	return nil
}

func (w Window) MarshalJSON() ([]byte, error) {
	return json.Marshal(windowJSON{
		Start: clock.FormatClock(w.Start),
		End:   clock.FormatClock(w.End),
	})
}

// Contains reports whether the minute-of-day falls inside the window.
// The start minute is in, the end minute is out.
func (w Window) Contains(minuteOfDay int) bool {
	return w.Start <= minuteOfDay && minuteOfDay < w.End
}

func (w Window) String() string {
	return fmt.Sprintf("%s–%s", clock.FormatClock(w.Start), clock.FormatClock(w.End))
}
