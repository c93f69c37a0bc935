package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Challenge struct {
	ID                    uuid.UUID `json:"id" db:"id"`
	Title                 string    `json:"title" db:"title"`
	Description           string    `json:"description" db:"description"`
	PointsValue           int       `json:"points_value" db:"points_value"`
	MaxCompletionsPerWeek int       `json:"max_completions_per_week" db:"max_completions_per_week"`
	IsActive              bool      `json:"is_active" db:"is_active"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
}

// CompletedChallenge is one completion event. Rows are append-only: they are
// the audit trail streaks and points can be recomputed from.
// (user_id, challenge_id, week_number, completion_number) is unique.
type CompletedChallenge struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID      uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	WeekNumber       int        `json:"week_number" db:"week_number"`
	CompletionNumber int        `json:"completion_number" db:"completion_number"`
	CompletedAt      time.Time  `json:"completed_at" db:"completed_at"`
	TargetUserID     *uuid.UUID `json:"target_user_id" db:"target_user_id"`
	TargetName       *string    `json:"target_name" db:"target_name"`
}

// CompletionResult is returned on a successful completion. A nil result
// means the completion was silently rejected (cap reached or duplicate).
type CompletionResult struct {
	PointsEarned   int    `json:"points_earned"`
	ChallengeTitle string `json:"challenge_title"`
	StreakDays     int    `json:"streak_days"`
}

// WithProgress is the list view: a challenge plus the viewing user's
// completion state for the current week.
type WithProgress struct {
	Challenge
	CompletionsThisWeek int    `json:"completions_this_week"`
	IsConnection        bool   `json:"is_connection"`
	Icon                string `json:"icon"`
}
