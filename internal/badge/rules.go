package badge

import (
	"sort"

	"github.com/google/uuid"
)

// Snapshot is the aggregated state one user's badge predicates are checked
// against. It is built once per evaluation pass; absent data is the zero
// value. PrevLastChallengeWeek must be the value from before the completion
// that triggered the evaluation, since Comeback Kid looks at the gap the
// completion just closed.
type Snapshot struct {
	PointsTotal           int
	StreakDays            int
	CurrentWeek           int
	PrevLastChallengeWeek *int
	PostsThisWeek         int
	DistinctVisitTargets  int
	DistinctCallTargets   int
	WeeklyCoverage        bool
	InnerCircle           bool
	BridgeBuilder         bool
	PerfectWeek           bool
}

// Rule is one badge predicate. Each rule is independently idempotent: the
// award path no-ops when the user already holds the badge.
type Rule struct {
	Name      string
	Satisfied func(Snapshot) bool
}

// Rules returns the per-user rule catalog in evaluation order: milestones,
// streak, comeback, content, connection badges. The family-wide weekly
// badges (Gold/Silver/Bronze/Most Improved) are derived separately from
// weekly point totals.
func Rules() []Rule {
	return []Rule{
		{NameCenturyClub, func(s Snapshot) bool { return s.PointsTotal >= 100 }},
		{NameHighRoller, func(s Snapshot) bool { return s.PointsTotal >= 500 }},
		{NameLegend, func(s Snapshot) bool { return s.PointsTotal >= 1000 }},
		{NameStreakMaster, func(s Snapshot) bool { return s.StreakDays >= 4 }},
		{NameComebackKid, func(s Snapshot) bool {
			return s.PrevLastChallengeWeek != nil && s.CurrentWeek-*s.PrevLastChallengeWeek > 1
		}},
		{NameStoryteller, func(s Snapshot) bool { return s.PostsThisWeek >= 3 }},
		{NameVisitor, func(s Snapshot) bool { return s.DistinctVisitTargets >= 3 }},
		{NameConnector, func(s Snapshot) bool { return s.DistinctCallTargets >= 5 }},
		{NameRoundRobin, func(s Snapshot) bool { return s.WeeklyCoverage }},
		{NameInnerCircle, func(s Snapshot) bool { return s.InnerCircle }},
		{NameBridgeBuilder, func(s Snapshot) bool { return s.BridgeBuilder }},
		{NamePerfectWeek, func(s Snapshot) bool { return s.PerfectWeek }},
	}
}

// HasInnerCircle reports whether any single target has connection
// completions in each of the current week and the 3 preceding weeks.
func HasInnerCircle(weeksByTarget map[uuid.UUID]map[int]bool, currentWeek int) bool {
	for _, weeks := range weeksByTarget {
		covered := true
		for w := currentWeek - 3; w <= currentWeek; w++ {
			if !weeks[w] {
				covered = false
				break
			}
		}
		if covered {
			return true
		}
	}
	return false
}

// IsBridgeBuilder reports whether the user holds the strict maximum weekly
// connection count in the family. On a tie no one qualifies.
func IsBridgeBuilder(counts map[uuid.UUID]int, userID uuid.UUID) bool {
	mine := counts[userID]
	if mine == 0 {
		return false
	}
	for id, c := range counts {
		if id == userID {
			continue
		}
		if c >= mine {
			return false
		}
	}
	return true
}

// WeeklyPoints is one family member's point totals for the current and
// previous week.
type WeeklyPoints struct {
	UserID   uuid.UUID
	ThisWeek int
	LastWeek int
}

// WeeklyAward pairs a badge name with its recipient for the current week.
type WeeklyAward struct {
	Name   string
	UserID uuid.UUID
}

// DeriveWeeklyAwards computes the family-wide weekly badges: Gold, Silver
// and Bronze for the top three by this-week points (zero-point members are
// excluded), and Most Improved for the largest positive week-over-week
// delta. Ties keep a deterministic order by user id; the product has not
// decided a fairness rule.
func DeriveWeeklyAwards(totals []WeeklyPoints) []WeeklyAward {
	ranked := make([]WeeklyPoints, len(totals))
	copy(ranked, totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].ThisWeek != ranked[j].ThisWeek {
			return ranked[i].ThisWeek > ranked[j].ThisWeek
		}
		return ranked[i].UserID.String() < ranked[j].UserID.String()
	})

	var awards []WeeklyAward
	medals := []string{NameGold, NameSilver, NameBronze}
	for i, wp := range ranked {
		if i >= len(medals) || wp.ThisWeek <= 0 {
			break
		}
		awards = append(awards, WeeklyAward{Name: medals[i], UserID: wp.UserID})
	}

	var best *WeeklyPoints
	for i := range ranked {
		wp := &ranked[i]
		delta := wp.ThisWeek - wp.LastWeek
		if delta <= 0 || wp.ThisWeek <= 0 {
			continue
		}
		if best == nil || delta > best.ThisWeek-best.LastWeek {
			best = wp
		}
	}
	if best != nil {
		awards = append(awards, WeeklyAward{Name: NameMostImproved, UserID: best.UserID})
	}

	return awards
}
