package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fambamAPI/internal/types/family"
	"fambamAPI/internal/types/leaderboard"
	"fambamAPI/internal/types/user"
	"fambamAPI/internal/week"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, name, family_id, image_url, points_total, streak_days,
		last_active, last_challenge_week, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID,
		&u.ClerkID,
		&u.Name,
		&u.FamilyID,
		&u.ImageURL,
		&u.PointsTotal,
		&u.StreakDays,
		&u.LastActive,
		&u.LastChallengeWeek,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user not found")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetProfile returns the user row plus the header numbers the profile view
// shows: badge count and this week's points.
func (s *UserService) GetProfile(ctx context.Context, clerkID string, now time.Time) (*user.Profile, error) {
	u, err := s.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	currentWeek := week.Number(now)
	profile := &user.Profile{User: u, CurrentWeek: currentWeek}

	query := `
	SELECT
		(SELECT COUNT(*) FROM user_badges WHERE user_id = $1),
		(SELECT COALESCE(SUM(ch.points_value), 0) FROM completed_challenges cc
			JOIN challenges ch ON ch.id = cc.challenge_id
			WHERE cc.user_id = $1 AND cc.week_number = $2)
	`
	err = s.db.QueryRow(ctx, query, u.ID, currentWeek).Scan(&profile.BadgeCount, &profile.WeeklyPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile counts: %w", err)
	}

	return profile, nil
}

// GetFamily returns the user's family row together with every member, the
// viewing user included.
func (s *UserService) GetFamily(ctx context.Context, clerkID string) (*family.WithMembers, error) {
	var familyID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT family_id FROM users WHERE clerk_id = $1`, clerkID).Scan(&familyID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	fam := &family.WithMembers{}
	err = s.db.QueryRow(ctx, `SELECT id, name, created_at FROM families WHERE id = $1`, familyID).Scan(
		&fam.ID, &fam.Name, &fam.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get family: %w", err)
	}

	query := `
	SELECT id, clerk_id, name, family_id, image_url, points_total, streak_days,
		last_active, last_challenge_week, created_at, updated_at
	FROM users
	WHERE family_id = $1
	ORDER BY name
	`

	rows, err := s.db.Query(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch family members: %w", err)
	}
	defer rows.Close()

	var members []*user.User
	for rows.Next() {
		u := &user.User{}
		err := rows.Scan(
			&u.ID,
			&u.ClerkID,
			&u.Name,
			&u.FamilyID,
			&u.ImageURL,
			&u.PointsTotal,
			&u.StreakDays,
			&u.LastActive,
			&u.LastChallengeWeek,
			&u.CreatedAt,
			&u.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating family members: %w", err)
	}

	if members == nil {
		members = []*user.User{}
	}
	fam.Members = members
	return fam, nil
}

// GetWeeklyLeaderboard ranks the family by this week's challenge points.
// Equal totals keep a deterministic order by user id; no tie-break rule has
// been decided.
func (s *UserService) GetWeeklyLeaderboard(ctx context.Context, clerkID string, now time.Time) (*leaderboard.Leaderboard, error) {
	var userID, familyID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id, family_id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &familyID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	currentWeek := week.Number(now)

	query := `
	SELECT u.id, u.name, u.image_url, u.streak_days,
		COALESCE(wp.points, 0) AS weekly_points,
		RANK() OVER (ORDER BY COALESCE(wp.points, 0) DESC, u.id) AS rank
	FROM users u
	LEFT JOIN (
		SELECT cc.user_id, SUM(ch.points_value) AS points
		FROM completed_challenges cc
		JOIN challenges ch ON ch.id = cc.challenge_id
		WHERE cc.week_number = $2
		GROUP BY cc.user_id
	) wp ON wp.user_id = u.id
	WHERE u.family_id = $1
	ORDER BY weekly_points DESC, u.id
	`

	rows, err := s.db.Query(ctx, query, familyID, currentWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	var userPosition *leaderboard.LeaderboardEntry

	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(
			&entry.UserID,
			&entry.Name,
			&entry.ImageURL,
			&entry.StreakDays,
			&entry.WeeklyPoints,
			&entry.Rank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		entries = append(entries, entry)

		if entry.UserID == userID {
			userPosition = entry
		}
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return &leaderboard.Leaderboard{
		WeekNumber:   currentWeek,
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, nil
}
