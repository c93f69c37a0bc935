package utils

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fambamAPI/internal/notification"
)

// NotificationCreator is the one method the triggers need from the
// notification service.
type NotificationCreator interface {
	CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error)
}

// FamilyConnectionMade fans a "connection" notification out to the rest of
// the actor's family. Runs on the caller's goroutine but never returns an
// error: notification failures are logged and swallowed.
func FamilyConnectionMade(db *pgxpool.Pool, notifier NotificationCreator, actorID, familyID uuid.UUID, actorName, content string) {
	bgCtx := context.Background()

	query := `SELECT id FROM users WHERE family_id = $1 AND id != $2`

	rows, err := db.Query(bgCtx, query, familyID, actorID)
	if err != nil {
		log.Printf("Failed to get family members for notification: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var memberID uuid.UUID
		if err := rows.Scan(&memberID); err != nil {
			continue
		}

		req := &notification.CreateNotificationRequest{
			UserID:  memberID,
			Type:    notification.NotificationConnection,
			Title:   fmt.Sprintf("%s made a connection", actorName),
			Message: content,
			Data: map[string]any{
				"actor_id":   actorID.String(),
				"actor_name": actorName,
			},
		}

		if _, err := notifier.CreateNotification(bgCtx, req); err != nil {
			log.Printf("Failed to create notification for member %s: %v", memberID, err)
		}
	}
}
