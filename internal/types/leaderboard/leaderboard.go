package leaderboard

import "github.com/google/uuid"

type LeaderboardEntry struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Name         string    `json:"name" db:"name"`
	ImageURL     *string   `json:"image_url" db:"image_url"`
	WeeklyPoints int       `json:"weekly_points" db:"weekly_points"`
	StreakDays   int       `json:"streak_days" db:"streak_days"`
	Rank         int       `json:"rank" db:"rank"`
}

type Leaderboard struct {
	WeekNumber   int                 `json:"week_number"`
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
}
