package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fambamAPI/internal/badge"
	"fambamAPI/internal/week"
	"fambamAPI/middleware"
)

type BadgeService struct {
	db           *pgxpool.Pool
	connections  *ConnectionService
	notifService *NotificationService
}

func NewBadgeService(db *pgxpool.Pool, connections *ConnectionService, notifService *NotificationService) *BadgeService {
	return &BadgeService{
		db:           db,
		connections:  connections,
		notifService: notifService,
	}
}

// GetBadges returns the full catalog with the user's earned status, earned
// badges first.
func (s *BadgeService) GetBadges(ctx context.Context, clerkID string) ([]*badge.BadgeWithStatus, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT b.id, b.name, b.description, b.icon, b.badge_type,
		CASE WHEN ub.id IS NOT NULL THEN true ELSE false END AS earned,
		ub.earned_at
	FROM badges b
	LEFT JOIN LATERAL (
		SELECT id, earned_at FROM user_badges
		WHERE badge_id = b.id AND user_id = $1
		ORDER BY earned_at
		LIMIT 1
	) ub ON true
	ORDER BY earned DESC, b.name
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch badges: %w", err)
	}
	defer rows.Close()

	var badges []*badge.BadgeWithStatus
	for rows.Next() {
		b := &badge.BadgeWithStatus{}
		err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Icon, &b.BadgeType, &b.Earned, &b.EarnedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating badges: %w", err)
	}

	return badges, nil
}

// Evaluate runs the full rule catalog for one user after a qualifying event
// (challenge completion or post creation). Each predicate is independent
// and individually fallible: a failed read skips that badge and the pass
// continues. prevLastChallengeWeek must be the pre-update value, since the
// comeback check looks at the gap the triggering completion just closed.
func (s *BadgeService) Evaluate(ctx context.Context, userID, familyID uuid.UUID, prevLastChallengeWeek *int, now time.Time) error {
	snapshot, err := s.buildSnapshot(ctx, userID, familyID, prevLastChallengeWeek, now)
	if err != nil {
		return err
	}

	for _, rule := range badge.Rules() {
		if !rule.Satisfied(*snapshot) {
			continue
		}
		if _, err := s.Award(ctx, userID, rule.Name, nil, now); err != nil {
			log.Printf("Evaluate: awarding %q to %s failed: %v", rule.Name, userID, err)
		}
	}

	s.evaluateWeeklyAwards(ctx, familyID, now)
	return nil
}

// Award grants a badge by catalog name. It is idempotent: an existing
// (user, badge, week) row makes this a no-op. Returns whether the badge was
// newly earned. A name missing from the catalog is logged and skipped, not
// an error.
func (s *BadgeService) Award(ctx context.Context, userID uuid.UUID, name string, weekNumber *int, now time.Time) (bool, error) {
	var badgeID uuid.UUID
	var icon string
	err := s.db.QueryRow(ctx, `SELECT id, icon FROM badges WHERE name = $1`, name).Scan(&badgeID, &icon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("Award: badge %q not in catalog, skipping", name)
			return false, nil
		}
		return false, fmt.Errorf("failed to look up badge %q: %w", name, err)
	}

	// The unique index on (user_id, badge_id, coalesce(week_number, 0))
	// is the real idempotence guard; the insert is not check-then-act.
	tag, err := s.db.Exec(ctx, `
		INSERT INTO user_badges (id, user_id, badge_id, week_number, earned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, badge_id, COALESCE(week_number, 0)) DO NOTHING`,
		uuid.New(), userID, badgeID, weekNumber, now,
	)
	if err != nil {
		return false, fmt.Errorf("failed to award badge %q: %w", name, err)
	}

	if tag.RowsAffected() == 0 {
		return false, nil
	}

	middleware.RecordBadgeAwarded(name)
	log.Printf("Award: user %s earned %q", userID, name)

	if s.notifService != nil {
		s.notifService.NotifyBadgeEarned(userID, name, icon)
	}
	return true, nil
}

func (s *BadgeService) buildSnapshot(ctx context.Context, userID, familyID uuid.UUID, prevLastChallengeWeek *int, now time.Time) (*badge.Snapshot, error) {
	currentWeek := week.Number(now)

	snapshot := &badge.Snapshot{
		CurrentWeek:           currentWeek,
		PrevLastChallengeWeek: prevLastChallengeWeek,
	}

	err := s.db.QueryRow(ctx, `SELECT points_total, streak_days FROM users WHERE id = $1`, userID).
		Scan(&snapshot.PointsTotal, &snapshot.StreakDays)
	if err != nil {
		return nil, fmt.Errorf("failed to read user totals: %w", err)
	}

	// Each aggregate below is an independent read; a failure skips that
	// badge's input and leaves the zero value in place.
	if err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM posts
		WHERE user_id = $1 AND created_at >= $2 AND created_at <= $3`,
		userID, week.Start(currentWeek), week.End(currentWeek),
	).Scan(&snapshot.PostsThisWeek); err != nil {
		log.Printf("buildSnapshot: posts count failed for %s: %v", userID, err)
	}

	visits, calls, err := s.connections.DistinctTargetsByType(ctx, userID)
	if err != nil {
		log.Printf("buildSnapshot: distinct targets failed for %s: %v", userID, err)
	} else {
		snapshot.DistinctVisitTargets = visits
		snapshot.DistinctCallTargets = calls
	}

	progress, err := s.connections.WeeklyProgressForUser(ctx, userID, familyID, now)
	if err != nil {
		log.Printf("buildSnapshot: weekly progress failed for %s: %v", userID, err)
	} else {
		snapshot.WeeklyCoverage = progress.IsComplete
	}

	weeksByTarget, err := s.connections.ConnectionWeeksByTarget(ctx, userID)
	if err != nil {
		log.Printf("buildSnapshot: weeks by target failed for %s: %v", userID, err)
	} else {
		snapshot.InnerCircle = badge.HasInnerCircle(weeksByTarget, currentWeek)
	}

	counts, err := s.connections.WeeklyConnectionCounts(ctx, familyID, now)
	if err != nil {
		log.Printf("buildSnapshot: weekly counts failed for %s: %v", familyID, err)
	} else {
		snapshot.BridgeBuilder = badge.IsBridgeBuilder(counts, userID)
	}

	perfect, err := s.hasPerfectWeek(ctx, userID, currentWeek)
	if err != nil {
		log.Printf("buildSnapshot: perfect week check failed for %s: %v", userID, err)
	} else {
		snapshot.PerfectWeek = perfect
	}

	return snapshot, nil
}

// hasPerfectWeek reports whether the user has hit the weekly cap on every
// active challenge this week.
func (s *BadgeService) hasPerfectWeek(ctx context.Context, userID uuid.UUID, currentWeek int) (bool, error) {
	query := `
	SELECT c.max_completions_per_week, COALESCE(cc.cnt, 0)
	FROM challenges c
	LEFT JOIN (
		SELECT challenge_id, COUNT(*) AS cnt
		FROM completed_challenges
		WHERE user_id = $1 AND week_number = $2
		GROUP BY challenge_id
	) cc ON cc.challenge_id = c.id
	WHERE c.is_active = true
	`

	rows, err := s.db.Query(ctx, query, userID, currentWeek)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	sawAny := false
	for rows.Next() {
		var required, done int
		if err := rows.Scan(&required, &done); err != nil {
			return false, err
		}
		sawAny = true
		if done < required {
			return false, nil
		}
	}
	if err = rows.Err(); err != nil {
		return false, err
	}

	return sawAny, nil
}

// evaluateWeeklyAwards computes the family-wide weekly badges. These rows
// carry the week number, so each week's podium is a fresh award. Failures
// degrade silently.
func (s *BadgeService) evaluateWeeklyAwards(ctx context.Context, familyID uuid.UUID, now time.Time) {
	currentWeek := week.Number(now)

	totals, err := s.weeklyPointTotals(ctx, familyID, currentWeek)
	if err != nil {
		log.Printf("evaluateWeeklyAwards: totals failed for family %s: %v", familyID, err)
		return
	}

	for _, aw := range badge.DeriveWeeklyAwards(totals) {
		wk := currentWeek
		if _, err := s.Award(ctx, aw.UserID, aw.Name, &wk, now); err != nil {
			log.Printf("evaluateWeeklyAwards: awarding %q to %s failed: %v", aw.Name, aw.UserID, err)
		}
	}
}

// weeklyPointTotals returns this-week and last-week challenge points per
// family member. Members with no completions appear with zero totals.
func (s *BadgeService) weeklyPointTotals(ctx context.Context, familyID uuid.UUID, currentWeek int) ([]badge.WeeklyPoints, error) {
	query := `
	SELECT u.id,
		COALESCE(SUM(ch.points_value) FILTER (WHERE cc.week_number = $2), 0) AS this_week,
		COALESCE(SUM(ch.points_value) FILTER (WHERE cc.week_number = $3), 0) AS last_week
	FROM users u
	LEFT JOIN completed_challenges cc ON cc.user_id = u.id AND cc.week_number IN ($2, $3)
	LEFT JOIN challenges ch ON ch.id = cc.challenge_id
	WHERE u.family_id = $1
	GROUP BY u.id
	`

	rows, err := s.db.Query(ctx, query, familyID, currentWeek, currentWeek-1)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weekly totals: %w", err)
	}
	defer rows.Close()

	var totals []badge.WeeklyPoints
	for rows.Next() {
		var wp badge.WeeklyPoints
		if err := rows.Scan(&wp.UserID, &wp.ThisWeek, &wp.LastWeek); err != nil {
			return nil, fmt.Errorf("failed to scan weekly totals: %w", err)
		}
		totals = append(totals, wp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weekly totals: %w", err)
	}

	return totals, nil
}
