package badge

import (
	"time"

	"github.com/google/uuid"
)

type BadgeType string

const (
	TypeWeekly      BadgeType = "weekly"
	TypeMilestone   BadgeType = "milestone"
	TypeAchievement BadgeType = "achievement"
)

// Catalog names. Awards are looked up by name, so these strings must match
// the seeded badges table exactly.
const (
	NameCenturyClub   = "Century Club"
	NameHighRoller    = "High Roller"
	NameLegend        = "Legend"
	NameStreakMaster  = "Streak Master"
	NameComebackKid   = "Comeback Kid"
	NameStoryteller   = "Storyteller"
	NameVisitor       = "Visitor"
	NameConnector     = "Connector"
	NameRoundRobin    = "Round Robin"
	NameInnerCircle   = "Inner Circle"
	NameBridgeBuilder = "Bridge Builder"
	NamePerfectWeek   = "Perfect Week"
	NameGold          = "Gold"
	NameSilver        = "Silver"
	NameBronze        = "Bronze"
	NameMostImproved  = "Most Improved"
)

type Badge struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Icon        string    `json:"icon" db:"icon"`
	BadgeType   BadgeType `json:"badge_type" db:"badge_type"`
}

// UserBadge is a permanent trophy. WeekNumber is set only for weekly
// leaderboard badges; the (user, badge, week) triple is unique, which is
// what makes awarding idempotent.
type UserBadge struct {
	ID         uuid.UUID `json:"id" db:"id"`
	UserID     uuid.UUID `json:"user_id" db:"user_id"`
	BadgeID    uuid.UUID `json:"badge_id" db:"badge_id"`
	WeekNumber *int      `json:"week_number" db:"week_number"`
	EarnedAt   time.Time `json:"earned_at" db:"earned_at"`
}

type BadgeWithStatus struct {
	Badge
	Earned   bool       `json:"earned"`
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}
