// Package match finds runs of consecutive available nights.
package match

import (
	"slices"
	"time"
)

const dateLayout = "2006-01-02"

// FindQualifyingRun returns the first window of exactly minNights
// consecutive dates, or nil. Dates must be ascending and unique. When
// startDates is non-empty the window must begin on one of them.
// A minNights below 1 is treated as 1.
func FindQualifyingRun(dates []string, minNights int, startDates []string) []string {
	if minNights < 1 {
		minNights = 1
	}
	if len(dates) < minNights {
		return nil
	}

	for _, run := range consecutiveRuns(dates) {
		if len(run) < minNights {
			continue
		}
		for start := 0; start+minNights <= len(run); start++ {
			window := run[start : start+minNights]
			if len(startDates) == 0 || slices.Contains(startDates, window[0]) {
				return slices.Clone(window)
			}
		}
	}
	return nil
}

// consecutiveRuns splits dates into maximal calendar-day-consecutive runs.
func consecutiveRuns(dates []string) [][]string {
	var runs [][]string
	run := []string{dates[0]}
	for i := 1; i < len(dates); i++ {
		if nextDay(dates[i-1], dates[i]) {
			run = append(run, dates[i])
			continue
		}
		runs = append(runs, run)
		run = []string{dates[i]}
	}
	return append(runs, run)
}

// nextDay reports whether b is exactly one calendar day after a.
func nextDay(a, b string) bool {
	prev, err := parseDay(a)
	if err != nil {
		return false
	}
	curr, err := parseDay(b)
	if err != nil {
		return false
	}
	return prev.AddDate(0, 0, 1).Equal(curr)
}

func parseDay(s string) (time.Time, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return time.Parse(dateLayout, s)
}
