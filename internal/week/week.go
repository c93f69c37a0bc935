package week

import "time"

// Epoch is the fixed start of week 1. Every stored week_number is derived
// from this instant, so it must never change after deployment.
var Epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

const length = 7 * 24 * time.Hour

// Number returns the 1-based index of the 7-day bucket containing now.
// Week 1 covers [Epoch, Epoch+7d). Times before the epoch clamp to week 1.
func Number(now time.Time) int {
	diff := now.UTC().Sub(Epoch)
	if diff < 0 {
		return 1
	}
	return int(diff/length) + 1
}

// Start returns the first instant of week w.
func Start(w int) time.Time {
	return Epoch.Add(time.Duration(w-1) * length)
}

// End returns the last instant of week w (6 days, 23:59:59.999 after Start).
func End(w int) time.Time {
	return Start(w).Add(length - time.Millisecond)
}
