package streak

import "time"

// FromHistory computes the user's consecutive-day streak from raw completion
// timestamps. The result is never below 1: the first activity of a new
// streak counts as day 1.
func FromHistory(completions []time.Time, now time.Time) int {
	if len(completions) == 0 {
		return 1
	}

	days := make(map[time.Time]bool, len(completions))
	var latest time.Time
	for _, ts := range completions {
		d := dayOf(ts)
		days[d] = true
		if d.After(latest) {
			latest = d
		}
	}

	today := dayOf(now)
	if today.Sub(latest) > 24*time.Hour {
		// Most recent activity is older than yesterday: streak broken.
		return 1
	}

	count := 0
	for d := latest; days[d]; d = d.AddDate(0, 0, -1) {
		count++
	}
	if count < 1 {
		count = 1
	}
	return count
}

// Advance is the incremental path used on every completion. It returns the
// new streak value and whether the cached value was usable; when stale is
// true the caller must recompute via FromHistory rather than resetting,
// so historical activity is never discarded by the fast path.
func Advance(lastActive *time.Time, current int, now time.Time) (streakDays int, stale bool) {
	if lastActive == nil {
		return 0, true
	}

	diff := daysBetween(*lastActive, now)
	switch {
	case diff == 0:
		if current < 1 {
			current = 1
		}
		return current, false
	case diff == 1:
		return current + 1, false
	default:
		return 0, true
	}
}

func daysBetween(earlier, later time.Time) int {
	return int(dayOf(later).Sub(dayOf(earlier)).Hours() / 24)
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
