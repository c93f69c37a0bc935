package connection

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ReconnectAfterDays is how long a member can go uncontacted before the
// nudge UI flags them.
const ReconnectAfterDays = 14

// Member is a family member as seen by the aggregator.
type Member struct {
	ID       uuid.UUID
	Name     string
	ImageURL *string
}

// Event is one connection-challenge completion by the viewing user.
type Event struct {
	ActorID      uuid.UUID
	TargetUserID uuid.UUID
	WeekNumber   int
	CompletedAt  time.Time
}

// MemberStat is the per-member view used by the reconnect nudge UI.
type MemberStat struct {
	UserID              uuid.UUID  `json:"user_id"`
	Name                string     `json:"name"`
	ImageURL            *string    `json:"image_url"`
	TotalConnections    int        `json:"total_connections"`
	LastConnection      *time.Time `json:"last_connection"`
	DaysSinceLast       *int       `json:"days_since_last_connection"`
	ThisWeekConnections int        `json:"this_week_connections"`
	WeekStreak          int        `json:"week_streak"`
	NeedsReconnect      bool       `json:"needs_reconnect"`
}

// Progress is the weekly connection coverage for one user.
type Progress struct {
	Connected  int  `json:"connected"`
	Total      int  `json:"total"`
	IsComplete bool `json:"is_complete"`
}

// RankEntry is one row of the weekly family connection ranking.
type RankEntry struct {
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	Connections int       `json:"connections"`
	Rank        int       `json:"rank"`
}

// DeriveStats computes per-member connection stats for the viewing user and
// returns them in nudge order: never-connected members first, then the most
// overdue. Events must already be filtered to the viewing user's
// connection-challenge completions.
func DeriveStats(members []Member, events []Event, now time.Time, currentWeek int) []*MemberStat {
	byTarget := make(map[uuid.UUID][]Event, len(members))
	for _, ev := range events {
		byTarget[ev.TargetUserID] = append(byTarget[ev.TargetUserID], ev)
	}

	stats := make([]*MemberStat, 0, len(members))
	for _, m := range members {
		stat := &MemberStat{
			UserID:   m.ID,
			Name:     m.Name,
			ImageURL: m.ImageURL,
		}

		evs := byTarget[m.ID]
		stat.TotalConnections = len(evs)

		weeks := make(map[int]bool, len(evs))
		for _, ev := range evs {
			weeks[ev.WeekNumber] = true
			if ev.WeekNumber == currentWeek {
				stat.ThisWeekConnections++
			}
			if stat.LastConnection == nil || ev.CompletedAt.After(*stat.LastConnection) {
				last := ev.CompletedAt
				stat.LastConnection = &last
			}
		}

		if stat.LastConnection != nil {
			days := int(now.Sub(*stat.LastConnection).Hours() / 24)
			stat.DaysSinceLast = &days
		}

		// Consecutive weeks with at least one connection, counting back
		// from the current week.
		for w := currentWeek; weeks[w]; w-- {
			stat.WeekStreak++
		}

		stat.NeedsReconnect = stat.DaysSinceLast == nil || *stat.DaysSinceLast > ReconnectAfterDays

		stats = append(stats, stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		a, b := stats[i], stats[j]
		if a.DaysSinceLast == nil && b.DaysSinceLast == nil {
			return false
		}
		if a.DaysSinceLast == nil {
			return true
		}
		if b.DaysSinceLast == nil {
			return false
		}
		return *a.DaysSinceLast > *b.DaysSinceLast
	})

	return stats
}

// DeriveProgress reports how many distinct family members the viewing user
// has connected with in the current week.
func DeriveProgress(members []Member, events []Event, currentWeek int) Progress {
	covered := make(map[uuid.UUID]bool)
	for _, ev := range events {
		if ev.WeekNumber == currentWeek {
			covered[ev.TargetUserID] = true
		}
	}

	connected := 0
	for _, m := range members {
		if covered[m.ID] {
			connected++
		}
	}

	return Progress{
		Connected:  connected,
		Total:      len(members),
		IsComplete: len(members) > 0 && connected == len(members),
	}
}

// DeriveRank ranks every family member (self included) by this week's
// connection count. Ties keep a deterministic order by user id; no fairness
// rule is implied.
func DeriveRank(members []Member, events []Event, currentWeek int) []*RankEntry {
	counts := make(map[uuid.UUID]int, len(members))
	for _, ev := range events {
		if ev.WeekNumber == currentWeek {
			counts[ev.ActorID]++
		}
	}

	entries := make([]*RankEntry, 0, len(members))
	for _, m := range members {
		entries = append(entries, &RankEntry{
			UserID:      m.ID,
			Name:        m.Name,
			Connections: counts[m.ID],
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Connections != entries[j].Connections {
			return entries[i].Connections > entries[j].Connections
		}
		return entries[i].UserID.String() < entries[j].UserID.String()
	})

	for i, e := range entries {
		e.Rank = i + 1
	}

	return entries
}
