package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fambamAPI/internal/types/post"
	"fambamAPI/internal/week"
)

type PostService struct {
	db           *pgxpool.Pool
	badgeService *BadgeService
}

func NewPostService(db *pgxpool.Pool) *PostService {
	return &PostService{db: db}
}

// SetBadgeService breaks the construction cycle with BadgeService: posts
// trigger badge evaluation (Storyteller), and the badge evaluator in turn
// counts posts.
func (s *PostService) SetBadgeService(badgeService *BadgeService) {
	s.badgeService = badgeService
}

// CreatePost records a feed post for the authenticated user and re-runs
// badge evaluation (posting is a qualifying event for Storyteller).
func (s *PostService) CreatePost(ctx context.Context, clerkID string, content string, now time.Time) (*post.Post, error) {
	var userID, familyID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id, family_id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID, &familyID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	p, err := s.CreatePostForUser(ctx, userID, familyID, content, post.TypeUpdate, now)
	if err != nil {
		return nil, err
	}

	if s.badgeService != nil {
		if err := s.badgeService.Evaluate(ctx, userID, familyID, nil, now); err != nil {
			log.Printf("CreatePost: badge evaluation failed for %s: %v", userID, err)
		}
	}

	return p, nil
}

// CreatePostForUser is the uuid-keyed insert used by the completion ledger
// for connection feed messages.
func (s *PostService) CreatePostForUser(ctx context.Context, userID, familyID uuid.UUID, content string, postType post.PostType, now time.Time) (*post.Post, error) {
	p := &post.Post{
		ID:        uuid.New(),
		UserID:    userID,
		FamilyID:  familyID,
		Content:   content,
		PostType:  postType,
		CreatedAt: now,
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO posts (id, user_id, family_id, content, post_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		p.ID, p.UserID, p.FamilyID, p.Content, p.PostType, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	return p, nil
}

// GetFamilyFeed returns the family's recent posts with comment and reaction
// counts, newest first.
func (s *PostService) GetFamilyFeed(ctx context.Context, clerkID string) ([]*post.FeedPost, error) {
	var familyID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT family_id FROM users WHERE clerk_id = $1`, clerkID).Scan(&familyID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	query := `
	SELECT p.id, p.user_id, p.family_id, p.content, p.post_type, p.created_at,
		u.name, u.image_url,
		COALESCE(cm.cnt, 0) AS comment_count,
		COALESCE(re.cnt, 0) AS reaction_count
	FROM posts p
	JOIN users u ON u.id = p.user_id
	LEFT JOIN (SELECT post_id, COUNT(*) AS cnt FROM comments GROUP BY post_id) cm ON cm.post_id = p.id
	LEFT JOIN (SELECT post_id, COUNT(*) AS cnt FROM reactions GROUP BY post_id) re ON re.post_id = p.id
	WHERE p.family_id = $1
	ORDER BY p.created_at DESC
	LIMIT 50
	`

	rows, err := s.db.Query(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer rows.Close()

	var posts []*post.FeedPost
	for rows.Next() {
		fp := &post.FeedPost{}
		err := rows.Scan(
			&fp.ID,
			&fp.UserID,
			&fp.FamilyID,
			&fp.Content,
			&fp.PostType,
			&fp.CreatedAt,
			&fp.AuthorName,
			&fp.AuthorImageURL,
			&fp.CommentCount,
			&fp.ReactionCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, fp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	if posts == nil {
		posts = []*post.FeedPost{}
	}
	return posts, nil
}

// GetWeeklyRecap aggregates the current week's activity counts for the
// user: posts written, engagement received on them, points and completions.
func (s *PostService) GetWeeklyRecap(ctx context.Context, clerkID string, now time.Time) (*post.WeeklyRecap, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	currentWeek := week.Number(now)
	start, end := week.Start(currentWeek), week.End(currentWeek)

	recap := &post.WeeklyRecap{WeekNumber: currentWeek}

	query := `
	SELECT
		(SELECT COUNT(*) FROM posts WHERE user_id = $1 AND created_at BETWEEN $2 AND $3),
		(SELECT COUNT(*) FROM comments cm JOIN posts p ON p.id = cm.post_id
			WHERE p.user_id = $1 AND cm.created_at BETWEEN $2 AND $3),
		(SELECT COUNT(*) FROM reactions re JOIN posts p ON p.id = re.post_id
			WHERE p.user_id = $1 AND re.created_at BETWEEN $2 AND $3),
		(SELECT COALESCE(SUM(ch.points_value), 0) FROM completed_challenges cc
			JOIN challenges ch ON ch.id = cc.challenge_id
			WHERE cc.user_id = $1 AND cc.week_number = $4),
		(SELECT COUNT(*) FROM completed_challenges WHERE user_id = $1 AND week_number = $4)
	`

	err = s.db.QueryRow(ctx, query, userID, start, end, currentWeek).Scan(
		&recap.Posts,
		&recap.Comments,
		&recap.Reactions,
		&recap.PointsEarned,
		&recap.Completions,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weekly recap: %w", err)
	}

	return recap, nil
}
