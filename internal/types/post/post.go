package post

import (
	"time"

	"github.com/google/uuid"
)

type PostType string

const (
	TypeUpdate     PostType = "update"
	TypeConnection PostType = "connection"
)

type Post struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	FamilyID  uuid.UUID `json:"family_id" db:"family_id"`
	Content   string    `json:"content" db:"content"`
	PostType  PostType  `json:"post_type" db:"post_type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type FeedPost struct {
	Post
	AuthorName     string  `json:"author_name"`
	AuthorImageURL *string `json:"author_image_url"`
	CommentCount   int     `json:"comment_count"`
	ReactionCount  int     `json:"reaction_count"`
}

// WeeklyRecap is the read model for the recap view: simple counts over the
// current week. Prose recap generation happens elsewhere.
type WeeklyRecap struct {
	WeekNumber   int `json:"week_number"`
	Posts        int `json:"posts"`
	Comments     int `json:"comments"`
	Reactions    int `json:"reactions"`
	PointsEarned int `json:"points_earned"`
	Completions  int `json:"completions"`
}
