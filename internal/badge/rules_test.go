package badge

import (
	"testing"

	"github.com/google/uuid"
)

func ruleByName(t *testing.T, name string) Rule {
	t.Helper()
	for _, r := range Rules() {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no rule named %q", name)
	return Rule{}
}

func TestMilestoneThresholds(t *testing.T) {
	tests := []struct {
		name   string
		points int
		want   bool
	}{
		{NameCenturyClub, 99, false},
		{NameCenturyClub, 100, true},
		{NameCenturyClub, 250, true}, // checked, not "just crossed"
		{NameHighRoller, 499, false},
		{NameHighRoller, 500, true},
		{NameLegend, 999, false},
		{NameLegend, 1000, true},
	}

	for _, tt := range tests {
		rule := ruleByName(t, tt.name)
		if got := rule.Satisfied(Snapshot{PointsTotal: tt.points}); got != tt.want {
			t.Errorf("%s at %d points = %v, want %v", tt.name, tt.points, got, tt.want)
		}
	}
}

func TestStreakMaster(t *testing.T) {
	rule := ruleByName(t, NameStreakMaster)
	if rule.Satisfied(Snapshot{StreakDays: 3}) {
		t.Error("3-day streak should not satisfy Streak Master")
	}
	if !rule.Satisfied(Snapshot{StreakDays: 4}) {
		t.Error("4-day streak should satisfy Streak Master")
	}
}

func TestComebackKid(t *testing.T) {
	rule := ruleByName(t, NameComebackKid)

	if rule.Satisfied(Snapshot{CurrentWeek: 10}) {
		t.Error("no prior week should not satisfy Comeback Kid")
	}

	lastWeek := 9
	if rule.Satisfied(Snapshot{CurrentWeek: 10, PrevLastChallengeWeek: &lastWeek}) {
		t.Error("1-week gap should not satisfy Comeback Kid")
	}

	twoBack := 8
	if !rule.Satisfied(Snapshot{CurrentWeek: 10, PrevLastChallengeWeek: &twoBack}) {
		t.Error("2-week gap should satisfy Comeback Kid")
	}
}

func TestContentAndCoverageRules(t *testing.T) {
	if !ruleByName(t, NameStoryteller).Satisfied(Snapshot{PostsThisWeek: 3}) {
		t.Error("3 posts should satisfy Storyteller")
	}
	if ruleByName(t, NameVisitor).Satisfied(Snapshot{DistinctVisitTargets: 2}) {
		t.Error("2 visit targets should not satisfy Visitor")
	}
	if !ruleByName(t, NameConnector).Satisfied(Snapshot{DistinctCallTargets: 5}) {
		t.Error("5 call targets should satisfy Connector")
	}
	if !ruleByName(t, NameRoundRobin).Satisfied(Snapshot{WeeklyCoverage: true}) {
		t.Error("full coverage should satisfy Round Robin")
	}
}

func TestHasInnerCircle(t *testing.T) {
	target := uuid.New()
	weeks := map[uuid.UUID]map[int]bool{
		target: {10: true, 9: true, 8: true, 7: true},
	}
	if !HasInnerCircle(weeks, 10) {
		t.Error("4 consecutive weeks should qualify")
	}
	if HasInnerCircle(weeks, 11) {
		t.Error("missing current week should not qualify")
	}

	gappy := map[uuid.UUID]map[int]bool{
		target: {10: true, 9: true, 7: true, 6: true},
	}
	if HasInnerCircle(gappy, 10) {
		t.Error("gap at week 8 should not qualify")
	}
}

func TestIsBridgeBuilder(t *testing.T) {
	me, other := uuid.New(), uuid.New()

	if !IsBridgeBuilder(map[uuid.UUID]int{me: 3, other: 2}, me) {
		t.Error("strict max should qualify")
	}
	if IsBridgeBuilder(map[uuid.UUID]int{me: 3, other: 3}, me) {
		t.Error("tie awards no one")
	}
	if IsBridgeBuilder(map[uuid.UUID]int{me: 0, other: 0}, me) {
		t.Error("zero connections should not qualify")
	}
}

func TestDeriveWeeklyAwardsMedals(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	totals := []WeeklyPoints{
		{UserID: a, ThisWeek: 50},
		{UserID: b, ThisWeek: 30},
		{UserID: c, ThisWeek: 0},
	}

	awards := DeriveWeeklyAwards(totals)

	byName := make(map[string]uuid.UUID)
	for _, aw := range awards {
		byName[aw.Name] = aw.UserID
	}

	if byName[NameGold] != a {
		t.Errorf("Gold went to %v, want A", byName[NameGold])
	}
	if byName[NameSilver] != b {
		t.Errorf("Silver went to %v, want B", byName[NameSilver])
	}
	if _, ok := byName[NameBronze]; ok {
		t.Error("Bronze should not be awarded to a zero-point member")
	}
}

func TestDeriveWeeklyAwardsMostImproved(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	totals := []WeeklyPoints{
		{UserID: a, ThisWeek: 40, LastWeek: 35}, // +5
		{UserID: b, ThisWeek: 30, LastWeek: 10}, // +20
	}

	awards := DeriveWeeklyAwards(totals)
	var improved *WeeklyAward
	for i := range awards {
		if awards[i].Name == NameMostImproved {
			improved = &awards[i]
		}
	}
	if improved == nil || improved.UserID != b {
		t.Errorf("Most Improved = %+v, want B", improved)
	}
}

func TestDeriveWeeklyAwardsNoPositiveDelta(t *testing.T) {
	a := uuid.New()
	awards := DeriveWeeklyAwards([]WeeklyPoints{{UserID: a, ThisWeek: 10, LastWeek: 20}})
	for _, aw := range awards {
		if aw.Name == NameMostImproved {
			t.Error("negative delta should not earn Most Improved")
		}
	}
}
