package week

import (
	"testing"
	"time"
)

func TestNumberAtEpoch(t *testing.T) {
	if got := Number(Epoch); got != 1 {
		t.Errorf("Number(Epoch) = %d, want 1", got)
	}
}

func TestNumberFirstWeek(t *testing.T) {
	lastInstant := Epoch.Add(7*24*time.Hour - time.Millisecond)
	if got := Number(lastInstant); got != 1 {
		t.Errorf("Number(end of week 1) = %d, want 1", got)
	}
	if got := Number(Epoch.Add(7 * 24 * time.Hour)); got != 2 {
		t.Errorf("Number(start of week 2) = %d, want 2", got)
	}
}

func TestNumberBeforeEpochClamps(t *testing.T) {
	if got := Number(Epoch.Add(-time.Hour)); got != 1 {
		t.Errorf("Number(before epoch) = %d, want 1", got)
	}
}

func TestStartEndRoundTrip(t *testing.T) {
	for _, w := range []int{1, 2, 10, 52, 104, 500} {
		start := Start(w)
		end := End(w)

		if !start.Before(end) {
			t.Errorf("week %d: Start %v not before End %v", w, start, end)
		}
		if got := end.Sub(start); got != 7*24*time.Hour-time.Millisecond {
			t.Errorf("week %d: End-Start = %v, want 6d23h59m59.999s", w, got)
		}
		if got := Number(start); got != w {
			t.Errorf("Number(Start(%d)) = %d", w, got)
		}
		if got := Number(end); got != w {
			t.Errorf("Number(End(%d)) = %d", w, got)
		}
	}
}

func TestNumberIsUTCStable(t *testing.T) {
	loc := time.FixedZone("UTC+12", 12*3600)
	instant := time.Date(2024, time.March, 4, 3, 0, 0, 0, loc)
	if got, want := Number(instant), Number(instant.UTC()); got != want {
		t.Errorf("Number differs across zones: %d vs %d", got, want)
	}
}
