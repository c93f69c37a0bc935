package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fambamAPI/internal/connection"
	"fambamAPI/internal/week"
)

type ConnectionService struct {
	db *pgxpool.Pool
}

func NewConnectionService(db *pgxpool.Pool) *ConnectionService {
	return &ConnectionService{db: db}
}

// GetConnectionStats returns per-member connection stats for the viewing
// user in nudge order (never-connected first, then most overdue).
func (s *ConnectionService) GetConnectionStats(ctx context.Context, clerkID string, now time.Time) ([]*connection.MemberStat, error) {
	userID, familyID, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return s.StatsForUser(ctx, userID, familyID, now)
}

// StatsForUser is the uuid-keyed path used by the badge evaluator.
func (s *ConnectionService) StatsForUser(ctx context.Context, userID, familyID uuid.UUID, now time.Time) ([]*connection.MemberStat, error) {
	members, err := s.familyMembers(ctx, familyID, userID)
	if err != nil {
		return nil, err
	}

	events, err := s.connectionEvents(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}

	return connection.DeriveStats(members, events, now, week.Number(now)), nil
}

// GetWeeklyProgress reports how much of the family the user has connected
// with in the current week. IsComplete is the Round Robin precondition.
func (s *ConnectionService) GetWeeklyProgress(ctx context.Context, clerkID string, now time.Time) (*connection.Progress, error) {
	userID, familyID, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return s.WeeklyProgressForUser(ctx, userID, familyID, now)
}

func (s *ConnectionService) WeeklyProgressForUser(ctx context.Context, userID, familyID uuid.UUID, now time.Time) (*connection.Progress, error) {
	members, err := s.familyMembers(ctx, familyID, userID)
	if err != nil {
		return nil, err
	}

	events, err := s.connectionEvents(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}

	progress := connection.DeriveProgress(members, events, week.Number(now))
	return &progress, nil
}

// GetConnectionRank ranks the whole family (self included) by this week's
// connection count.
func (s *ConnectionService) GetConnectionRank(ctx context.Context, clerkID string, now time.Time) ([]*connection.RankEntry, error) {
	_, familyID, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}
	return s.RankForFamily(ctx, familyID, now)
}

func (s *ConnectionService) RankForFamily(ctx context.Context, familyID uuid.UUID, now time.Time) ([]*connection.RankEntry, error) {
	members, err := s.familyMembers(ctx, familyID, uuid.Nil)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}

	events, err := s.connectionEvents(ctx, ids)
	if err != nil {
		return nil, err
	}

	return connection.DeriveRank(members, events, week.Number(now)), nil
}

// WeeklyConnectionCounts returns this week's connection-completion count per
// family member, for the Bridge Builder evaluation.
func (s *ConnectionService) WeeklyConnectionCounts(ctx context.Context, familyID uuid.UUID, now time.Time) (map[uuid.UUID]int, error) {
	members, err := s.familyMembers(ctx, familyID, uuid.Nil)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}

	events, err := s.connectionEvents(ctx, ids)
	if err != nil {
		return nil, err
	}

	currentWeek := week.Number(now)
	counts := make(map[uuid.UUID]int, len(members))
	for _, m := range members {
		counts[m.ID] = 0
	}
	for _, ev := range events {
		if ev.WeekNumber == currentWeek {
			counts[ev.ActorID]++
		}
	}
	return counts, nil
}

// ConnectionWeeksByTarget groups the user's connection completions into
// week-number sets per target, for the Inner Circle evaluation.
func (s *ConnectionService) ConnectionWeeksByTarget(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]map[int]bool, error) {
	events, err := s.connectionEvents(ctx, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}

	weeks := make(map[uuid.UUID]map[int]bool)
	for _, ev := range events {
		if weeks[ev.TargetUserID] == nil {
			weeks[ev.TargetUserID] = make(map[int]bool)
		}
		weeks[ev.TargetUserID][ev.WeekNumber] = true
	}
	return weeks, nil
}

// DistinctTargetsByType counts distinct visited and called members across
// the user's whole history, for the Visitor and Connector evaluations.
func (s *ConnectionService) DistinctTargetsByType(ctx context.Context, userID uuid.UUID) (visits, calls int, err error) {
	query := `
	SELECT ch.title, cc.target_user_id
	FROM completed_challenges cc
	JOIN challenges ch ON ch.id = cc.challenge_id
	WHERE cc.user_id = $1 AND cc.target_user_id IS NOT NULL
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to fetch connection targets: %w", err)
	}
	defer rows.Close()

	visitTargets := make(map[uuid.UUID]bool)
	callTargets := make(map[uuid.UUID]bool)
	for rows.Next() {
		var title string
		var target uuid.UUID
		if err := rows.Scan(&title, &target); err != nil {
			return 0, 0, fmt.Errorf("failed to scan connection target: %w", err)
		}
		switch t, _ := connection.Classify(title); t {
		case connection.TypeVisit:
			visitTargets[target] = true
		case connection.TypeCall:
			callTargets[target] = true
		}
	}
	if err = rows.Err(); err != nil {
		return 0, 0, fmt.Errorf("error iterating connection targets: %w", err)
	}

	return len(visitTargets), len(callTargets), nil
}

// connectionEvents fetches every completion by the given users that has a
// member target and classifies it through the connection package. The
// classifier stays in Go so the substring rules live in exactly one place.
func (s *ConnectionService) connectionEvents(ctx context.Context, userIDs []uuid.UUID) ([]connection.Event, error) {
	query := `
	SELECT cc.user_id, cc.target_user_id, cc.week_number, cc.completed_at, ch.title
	FROM completed_challenges cc
	JOIN challenges ch ON ch.id = cc.challenge_id
	WHERE cc.user_id = ANY($1) AND cc.target_user_id IS NOT NULL
	`

	rows, err := s.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch connection events: %w", err)
	}
	defer rows.Close()

	var events []connection.Event
	for rows.Next() {
		var ev connection.Event
		var title string
		if err := rows.Scan(&ev.ActorID, &ev.TargetUserID, &ev.WeekNumber, &ev.CompletedAt, &title); err != nil {
			return nil, fmt.Errorf("failed to scan connection event: %w", err)
		}
		if !connection.IsConnection(title) {
			continue
		}
		events = append(events, ev)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connection events: %w", err)
	}

	return events, nil
}

// familyMembers lists family members, excluding excludeID when set.
func (s *ConnectionService) familyMembers(ctx context.Context, familyID, excludeID uuid.UUID) ([]connection.Member, error) {
	query := `
	SELECT id, name, image_url FROM users
	WHERE family_id = $1 AND id != $2
	ORDER BY name
	`

	rows, err := s.db.Query(ctx, query, familyID, excludeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch family members: %w", err)
	}
	defer rows.Close()

	var members []connection.Member
	for rows.Next() {
		var m connection.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating family members: %w", err)
	}

	return members, nil
}

func (s *ConnectionService) resolveUser(ctx context.Context, clerkID string) (uuid.UUID, uuid.UUID, error) {
	var userID, familyID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id, family_id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &familyID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, familyID, nil
}
