package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                uuid.UUID  `json:"id"`
	ClerkID           string     `json:"clerkId"`
	Name              string     `json:"name"`
	FamilyID          uuid.UUID  `json:"familyId"`
	ImageURL          *string    `json:"imageUrl,omitempty"`
	PointsTotal       int        `json:"points_total"`
	StreakDays        int        `json:"streak_days"`
	LastActive        *time.Time `json:"last_active"`
	LastChallengeWeek *int       `json:"last_challenge_week"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type Profile struct {
	User         *User `json:"user"`
	BadgeCount   int   `json:"badge_count"`
	WeeklyPoints int   `json:"weekly_points"`
	CurrentWeek  int   `json:"current_week"`
}
