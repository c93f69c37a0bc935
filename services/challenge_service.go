package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fambamAPI/internal/connection"
	"fambamAPI/internal/streak"
	"fambamAPI/internal/types/challenge"
	"fambamAPI/internal/types/post"
	"fambamAPI/internal/week"
	"fambamAPI/middleware"
	"fambamAPI/utils"
)

const uniqueViolation = "23505"

type ChallengeService struct {
	db           *pgxpool.Pool
	postService  *PostService
	badgeService *BadgeService
	notifService *NotificationService
}

func NewChallengeService(db *pgxpool.Pool, postService *PostService, badgeService *BadgeService, notifService *NotificationService) *ChallengeService {
	return &ChallengeService{
		db:           db,
		postService:  postService,
		badgeService: badgeService,
		notifService: notifService,
	}
}

type CompleteChallengeRequest struct {
	ChallengeID  uuid.UUID  `json:"challenge_id"`
	TargetUserID *uuid.UUID `json:"target_user_id,omitempty"`
	TargetName   *string    `json:"target_name,omitempty"`
}

// ledgerProfile is the slice of the user row the ledger reads and writes.
type ledgerProfile struct {
	ID                uuid.UUID
	FamilyID          uuid.UUID
	Name              string
	PointsTotal       int
	StreakDays        int
	LastActive        *time.Time
	LastChallengeWeek *int
}

// GetActiveChallenges lists the active catalog with the viewing user's
// completion count for the current week.
func (s *ChallengeService) GetActiveChallenges(ctx context.Context, clerkID string, now time.Time) ([]*challenge.WithProgress, error) {
	profile, err := s.loadProfileByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	currentWeek := week.Number(now)

	query := `
	SELECT c.id, c.title, c.description, c.points_value, c.max_completions_per_week, c.is_active, c.created_at,
		COALESCE(cc.cnt, 0) AS completions_this_week
	FROM challenges c
	LEFT JOIN (
		SELECT challenge_id, COUNT(*) AS cnt
		FROM completed_challenges
		WHERE user_id = $1 AND week_number = $2
		GROUP BY challenge_id
	) cc ON cc.challenge_id = c.id
	WHERE c.is_active = true
	ORDER BY c.created_at, c.title
	`

	rows, err := s.db.Query(ctx, query, profile.ID, currentWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.WithProgress
	for rows.Next() {
		ch := &challenge.WithProgress{}
		err := rows.Scan(
			&ch.ID,
			&ch.Title,
			&ch.Description,
			&ch.PointsValue,
			&ch.MaxCompletionsPerWeek,
			&ch.IsActive,
			&ch.CreatedAt,
			&ch.CompletionsThisWeek,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		ch.IsConnection = connection.IsConnection(ch.Title)
		ch.Icon = connection.Icon(ch.Title)
		challenges = append(challenges, ch)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}

	if challenges == nil {
		challenges = []*challenge.WithProgress{}
	}
	return challenges, nil
}

// CompleteChallenge records one completion for the acting user. A nil result
// with nil error is a silent rejection (inactive challenge, weekly cap
// reached, or duplicate insert) — the caller shows no error for those.
// Secondary effects (target mirroring, feed post, badge evaluation) degrade
// silently and never block the primary completion.
func (s *ChallengeService) CompleteChallenge(ctx context.Context, clerkID string, req *CompleteChallengeRequest, now time.Time) (*challenge.CompletionResult, error) {
	profile, err := s.loadProfileByClerkID(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	ch, err := s.loadChallenge(ctx, req.ChallengeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("CompleteChallenge: challenge %s not found, skipping", req.ChallengeID)
			return nil, nil
		}
		return nil, err
	}
	if !ch.IsActive {
		log.Printf("CompleteChallenge: challenge %q is inactive, rejecting", ch.Title)
		return nil, nil
	}

	currentWeek := week.Number(now)
	prevLastChallengeWeek := profile.LastChallengeWeek

	newStreak, inserted, err := s.applyCompletion(ctx, profile, ch, currentWeek, req.TargetUserID, req.TargetName, now)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}

	middleware.RecordChallengeCompletion(ch.Title)

	isConn := connection.IsConnection(ch.Title)
	if isConn {
		s.mirrorToTarget(ctx, profile, ch, currentWeek, req.TargetUserID, req.TargetName, now)
	}

	// Badge evaluation must never block the completion.
	if s.badgeService != nil {
		if err := s.badgeService.Evaluate(ctx, profile.ID, profile.FamilyID, prevLastChallengeWeek, now); err != nil {
			log.Printf("CompleteChallenge: badge evaluation failed for %s: %v", profile.ID, err)
		}
	}

	return &challenge.CompletionResult{
		PointsEarned:   ch.PointsValue,
		ChallengeTitle: ch.Title,
		StreakDays:     newStreak,
	}, nil
}

// applyCompletion runs the cap check, the completion insert and the profile
// update for one user. Returns inserted=false on a silent rejection.
func (s *ChallengeService) applyCompletion(ctx context.Context, profile *ledgerProfile, ch *challenge.Challenge, currentWeek int, targetUserID *uuid.UUID, targetName *string, now time.Time) (int, bool, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM completed_challenges
		WHERE user_id = $1 AND challenge_id = $2 AND week_number = $3`,
		profile.ID, ch.ID, currentWeek,
	).Scan(&count)
	if err != nil {
		return 0, false, fmt.Errorf("failed to count completions: %w", err)
	}

	if count >= ch.MaxCompletionsPerWeek {
		log.Printf("CompleteChallenge: %q already at weekly cap (%d) for user %s", ch.Title, ch.MaxCompletionsPerWeek, profile.ID)
		return 0, false, nil
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO completed_challenges (id, user_id, challenge_id, week_number, completion_number, completed_at, target_user_id, target_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), profile.ID, ch.ID, currentWeek, count+1, now, targetUserID, targetName,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// Raced with an identical completion. Already recorded.
			log.Printf("CompleteChallenge: duplicate completion for user %s challenge %s week %d", profile.ID, ch.ID, currentWeek)
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to record completion: %w", err)
	}

	newStreak, err := s.nextStreak(ctx, profile, now)
	if err != nil {
		return 0, false, fmt.Errorf("failed to compute streak: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		UPDATE users
		SET points_total = points_total + $2,
			streak_days = $3,
			last_active = $4,
			last_challenge_week = $5,
			updated_at = NOW()
		WHERE id = $1`,
		profile.ID, ch.PointsValue, newStreak, now, currentWeek,
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to update user: %w", err)
	}

	return newStreak, true, nil
}

// mirrorToTarget applies the connection completion to the visited/called
// family member and writes the feed message. A free-text target (someone
// outside the system) only gets the feed message. Never returns an error:
// mirroring is best-effort.
func (s *ChallengeService) mirrorToTarget(ctx context.Context, actor *ledgerProfile, ch *challenge.Challenge, currentWeek int, targetUserID *uuid.UUID, targetName *string, now time.Time) {
	action := connection.ActionWord(ch.Title)

	if targetUserID == nil {
		if targetName != nil && *targetName != "" {
			s.writeConnectionPost(ctx, actor, fmt.Sprintf("%s %s %s %s", connection.Icon(ch.Title), actor.Name, action, *targetName), now)
		}
		return
	}

	target, err := s.loadProfileByID(ctx, *targetUserID)
	if err != nil {
		log.Printf("mirrorToTarget: target %s not found: %v", *targetUserID, err)
		return
	}
	if target.FamilyID != actor.FamilyID {
		log.Printf("mirrorToTarget: target %s is not in family %s, skipping mirror", target.ID, actor.FamilyID)
		return
	}

	actorID := actor.ID
	if _, _, err := s.applyCompletion(ctx, target, ch, currentWeek, &actorID, nil, now); err != nil {
		log.Printf("mirrorToTarget: failed to mirror completion to %s: %v", target.ID, err)
	}

	s.writeConnectionPost(ctx, actor, fmt.Sprintf("%s %s %s %s", connection.Icon(ch.Title), actor.Name, action, target.Name), now)
}

func (s *ChallengeService) writeConnectionPost(ctx context.Context, actor *ledgerProfile, content string, now time.Time) {
	if s.postService == nil {
		return
	}
	if _, err := s.postService.CreatePostForUser(ctx, actor.ID, actor.FamilyID, content, post.TypeConnection, now); err != nil {
		log.Printf("writeConnectionPost: failed for user %s: %v", actor.ID, err)
	}

	if s.notifService != nil {
		go utils.FamilyConnectionMade(s.db, s.notifService, actor.ID, actor.FamilyID, actor.Name, content)
	}
}

// nextStreak runs the incremental path and falls back to the full history
// recomputation when the cached value is stale.
func (s *ChallengeService) nextStreak(ctx context.Context, profile *ledgerProfile, now time.Time) (int, error) {
	if next, stale := streak.Advance(profile.LastActive, profile.StreakDays, now); !stale {
		return next, nil
	}

	rows, err := s.db.Query(ctx, `SELECT completed_at FROM completed_challenges WHERE user_id = $1`, profile.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch completion history: %w", err)
	}
	defer rows.Close()

	var history []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return 0, fmt.Errorf("failed to scan completion timestamp: %w", err)
		}
		history = append(history, ts)
	}
	if err = rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating completion history: %w", err)
	}

	return streak.FromHistory(history, now), nil
}

func (s *ChallengeService) loadChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	ch := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, `
		SELECT id, title, description, points_value, max_completions_per_week, is_active, created_at
		FROM challenges WHERE id = $1`, id,
	).Scan(&ch.ID, &ch.Title, &ch.Description, &ch.PointsValue, &ch.MaxCompletionsPerWeek, &ch.IsActive, &ch.CreatedAt)
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *ChallengeService) loadProfileByClerkID(ctx context.Context, clerkID string) (*ledgerProfile, error) {
	p := &ledgerProfile{}
	err := s.db.QueryRow(ctx, `
		SELECT id, family_id, name, points_total, streak_days, last_active, last_challenge_week
		FROM users WHERE clerk_id = $1`, clerkID,
	).Scan(&p.ID, &p.FamilyID, &p.Name, &p.PointsTotal, &p.StreakDays, &p.LastActive, &p.LastChallengeWeek)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	return p, nil
}

func (s *ChallengeService) loadProfileByID(ctx context.Context, id uuid.UUID) (*ledgerProfile, error) {
	p := &ledgerProfile{}
	err := s.db.QueryRow(ctx, `
		SELECT id, family_id, name, points_total, streak_days, last_active, last_challenge_week
		FROM users WHERE id = $1`, id,
	).Scan(&p.ID, &p.FamilyID, &p.Name, &p.PointsTotal, &p.StreakDays, &p.LastActive, &p.LastChallengeWeek)
	if err != nil {
		return nil, err
	}
	return p, nil
}
