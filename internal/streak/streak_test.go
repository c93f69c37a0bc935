package streak

import (
	"testing"
	"time"
)

var now = time.Date(2024, time.June, 10, 15, 30, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return now.AddDate(0, 0, -n)
}

func TestFromHistoryConsecutiveDays(t *testing.T) {
	history := []time.Time{daysAgo(0), daysAgo(1), daysAgo(2), daysAgo(3)}
	if got := FromHistory(history, now); got != 4 {
		t.Errorf("FromHistory = %d, want 4", got)
	}
}

func TestFromHistoryGapBreaksStreak(t *testing.T) {
	// Completed today and 3 days ago; nothing in between.
	history := []time.Time{daysAgo(0), daysAgo(3)}
	if got := FromHistory(history, now); got != 1 {
		t.Errorf("FromHistory = %d, want 1", got)
	}
}

func TestFromHistoryEndingYesterday(t *testing.T) {
	history := []time.Time{daysAgo(1), daysAgo(2)}
	if got := FromHistory(history, now); got != 2 {
		t.Errorf("FromHistory = %d, want 2", got)
	}
}

func TestFromHistoryStaleHistory(t *testing.T) {
	history := []time.Time{daysAgo(5), daysAgo(6)}
	if got := FromHistory(history, now); got != 1 {
		t.Errorf("FromHistory = %d, want 1 (broken, restart)", got)
	}
}

func TestFromHistoryEmpty(t *testing.T) {
	if got := FromHistory(nil, now); got != 1 {
		t.Errorf("FromHistory(nil) = %d, want 1", got)
	}
}

func TestFromHistoryDuplicateSameDay(t *testing.T) {
	history := []time.Time{daysAgo(0), daysAgo(0).Add(-2 * time.Hour), daysAgo(1)}
	if got := FromHistory(history, now); got != 2 {
		t.Errorf("FromHistory = %d, want 2", got)
	}
}

func TestAdvanceSameDay(t *testing.T) {
	last := daysAgo(0).Add(-3 * time.Hour)
	got, stale := Advance(&last, 5, now)
	if stale || got != 5 {
		t.Errorf("Advance same day = (%d, %v), want (5, false)", got, stale)
	}
}

func TestAdvanceNextDay(t *testing.T) {
	last := daysAgo(1)
	got, stale := Advance(&last, 5, now)
	if stale || got != 6 {
		t.Errorf("Advance next day = (%d, %v), want (6, false)", got, stale)
	}
}

func TestAdvanceGapIsStale(t *testing.T) {
	last := daysAgo(2)
	_, stale := Advance(&last, 5, now)
	if !stale {
		t.Error("Advance with 2-day gap should be stale, not a blind reset")
	}
}

func TestAdvanceNilLastActive(t *testing.T) {
	_, stale := Advance(nil, 0, now)
	if !stale {
		t.Error("Advance with nil last_active should defer to history")
	}
}

func TestAdvanceZeroCurrentSameDay(t *testing.T) {
	last := daysAgo(0)
	got, _ := Advance(&last, 0, now)
	if got != 1 {
		t.Errorf("Advance floor = %d, want 1", got)
	}
}
