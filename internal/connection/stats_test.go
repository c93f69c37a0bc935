package connection

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	self = uuid.New()
	memX = Member{ID: uuid.New(), Name: "X"}
	memY = Member{ID: uuid.New(), Name: "Y"}
	memZ = Member{ID: uuid.New(), Name: "Z"}

	statsNow  = time.Date(2024, time.July, 1, 12, 0, 0, 0, time.UTC)
	thisWeek  = 27
)

func event(target uuid.UUID, week int, daysAgo int) Event {
	return Event{
		ActorID:      self,
		TargetUserID: target,
		WeekNumber:   week,
		CompletedAt:  statsNow.AddDate(0, 0, -daysAgo),
	}
}

func TestDeriveStatsNudgeOrder(t *testing.T) {
	// X never connected, Y 20 days ago, Z 2 days ago.
	events := []Event{
		event(memY.ID, thisWeek-3, 20),
		event(memZ.ID, thisWeek, 2),
	}

	stats := DeriveStats([]Member{memZ, memY, memX}, events, statsNow, thisWeek)

	wantOrder := []string{"X", "Y", "Z"}
	for i, want := range wantOrder {
		if stats[i].Name != want {
			t.Fatalf("nudge order[%d] = %s, want %s", i, stats[i].Name, want)
		}
	}

	if !stats[0].NeedsReconnect || stats[0].DaysSinceLast != nil {
		t.Error("never-connected member should need reconnect with nil days")
	}
	if !stats[1].NeedsReconnect {
		t.Error("20 days since last should need reconnect")
	}
	if stats[2].NeedsReconnect {
		t.Error("2 days since last should not need reconnect")
	}
}

func TestDeriveStatsWeekStreak(t *testing.T) {
	events := []Event{
		event(memX.ID, thisWeek, 1),
		event(memX.ID, thisWeek-1, 8),
		event(memX.ID, thisWeek-2, 15),
		event(memX.ID, thisWeek-4, 29), // gap at thisWeek-3
	}

	stats := DeriveStats([]Member{memX}, events, statsNow, thisWeek)
	if stats[0].WeekStreak != 3 {
		t.Errorf("WeekStreak = %d, want 3", stats[0].WeekStreak)
	}
	if stats[0].TotalConnections != 4 {
		t.Errorf("TotalConnections = %d, want 4", stats[0].TotalConnections)
	}
	if stats[0].ThisWeekConnections != 1 {
		t.Errorf("ThisWeekConnections = %d, want 1", stats[0].ThisWeekConnections)
	}
}

func TestDeriveProgressRoundRobin(t *testing.T) {
	// Family of 3: A connects with both B and C this week.
	events := []Event{
		event(memY.ID, thisWeek, 1),
		event(memZ.ID, thisWeek, 0),
	}

	progress := DeriveProgress([]Member{memY, memZ}, events, thisWeek)
	if progress.Connected != 2 || progress.Total != 2 || !progress.IsComplete {
		t.Errorf("progress = %+v, want {2 2 true}", progress)
	}
}

func TestDeriveProgressIncomplete(t *testing.T) {
	events := []Event{event(memY.ID, thisWeek, 1)}

	progress := DeriveProgress([]Member{memY, memZ}, events, thisWeek)
	if progress.IsComplete || progress.Connected != 1 {
		t.Errorf("progress = %+v, want {1 2 false}", progress)
	}
}

func TestDeriveProgressLastWeekDoesNotCount(t *testing.T) {
	events := []Event{event(memY.ID, thisWeek-1, 8)}

	progress := DeriveProgress([]Member{memY}, events, thisWeek)
	if progress.Connected != 0 {
		t.Errorf("Connected = %d, want 0", progress.Connected)
	}
}

func TestDeriveRank(t *testing.T) {
	other := Member{ID: uuid.New(), Name: "Other"}
	me := Member{ID: self, Name: "Me"}

	events := []Event{
		event(memX.ID, thisWeek, 0),
		event(memY.ID, thisWeek, 1),
		{ActorID: other.ID, TargetUserID: self, WeekNumber: thisWeek, CompletedAt: statsNow},
		{ActorID: other.ID, TargetUserID: self, WeekNumber: thisWeek - 1, CompletedAt: statsNow.AddDate(0, 0, -8)},
	}

	entries := DeriveRank([]Member{me, other}, events, thisWeek)
	if entries[0].UserID != self || entries[0].Connections != 2 || entries[0].Rank != 1 {
		t.Errorf("rank[0] = %+v, want self with 2 connections", entries[0])
	}
	if entries[1].UserID != other.ID || entries[1].Connections != 1 || entries[1].Rank != 2 {
		t.Errorf("rank[1] = %+v, want other with 1 connection", entries[1])
	}
}
