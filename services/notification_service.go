package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fambamAPI/internal/notification"
)

// PushProvider delivers a rendered notification to registered devices.
// FCM in production; nil in tests.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error
}

type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(provider PushProvider) {
	s.pushProvider = provider
}

// CreateNotification stores an in-app notification and dispatches a push in
// the background. Push failures are logged, never surfaced.
func (s *NotificationService) CreateNotification(ctx context.Context, req *notification.CreateNotificationRequest) (*notification.Notification, error) {
	notif := &notification.Notification{
		ID:        uuid.New(),
		UserID:    req.UserID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Data:      req.Data,
		CreatedAt: time.Now(),
	}

	dataJSON, _ := json.Marshal(req.Data)

	_, err := s.db.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, is_read, data, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6, $7)`,
		notif.ID, notif.UserID, notif.Type, notif.Title, notif.Message, dataJSON, notif.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	if s.pushProvider != nil {
		go s.dispatchPush(notif)
	}

	return notif, nil
}

func (s *NotificationService) dispatchPush(notif *notification.Notification) {
	bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokens, err := s.deviceTokens(bgCtx, notif.UserID)
	if err != nil {
		log.Printf("dispatchPush: failed to load device tokens for %s: %v", notif.UserID, err)
		return
	}

	if err := s.pushProvider.SendPush(bgCtx, tokens, notif.Title, notif.Message, notif.Data); err != nil {
		log.Printf("dispatchPush: push failed for %s: %v", notif.UserID, err)
	}
}

// NotifyBadgeEarned is the fire-and-forget trigger used by the badge
// evaluator. It must never block or fail the award path.
func (s *NotificationService) NotifyBadgeEarned(userID uuid.UUID, badgeName, icon string) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_, err := s.CreateNotification(bgCtx, &notification.CreateNotificationRequest{
			UserID:  userID,
			Type:    notification.NotificationBadgeEarned,
			Title:   "New badge earned!",
			Message: fmt.Sprintf("%s You earned the %s badge", icon, badgeName),
			Data:    map[string]any{"badge": badgeName},
		})
		if err != nil {
			log.Printf("NotifyBadgeEarned: failed for %s: %v", userID, err)
		}
	}()
}

// NotifyReconnectNudge suggests reaching out to the family member the user
// is most overdue to contact.
func (s *NotificationService) NotifyReconnectNudge(userID uuid.UUID, memberName string, daysSince *int) {
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		message := fmt.Sprintf("You haven't connected with %s yet. Say hi!", memberName)
		if daysSince != nil {
			message = fmt.Sprintf("It's been %d days since you connected with %s. Say hi!", *daysSince, memberName)
		}

		_, err := s.CreateNotification(bgCtx, &notification.CreateNotificationRequest{
			UserID:  userID,
			Type:    notification.NotificationReconnectNudge,
			Title:   "Time to reconnect",
			Message: message,
			Data:    map[string]any{"member": memberName},
		})
		if err != nil {
			log.Printf("NotifyReconnectNudge: failed for %s: %v", userID, err)
		}
	}()
}

func (s *NotificationService) GetNotifications(ctx context.Context, clerkID string) ([]*notification.Notification, error) {
	userID, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	query := `
	SELECT id, user_id, type, title, message, is_read, data, created_at
	FROM notifications
	WHERE user_id = $1
	ORDER BY created_at DESC
	LIMIT 100
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	var notifs []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		var dataJSON []byte
		err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.IsRead, &dataJSON, &n.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				log.Printf("GetNotifications: bad data payload on %s: %v", n.ID, err)
			}
		}
		notifs = append(notifs, n)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	if notifs == nil {
		notifs = []*notification.Notification{}
	}
	return notifs, nil
}

func (s *NotificationService) GetUnreadCount(ctx context.Context, clerkID string) (int, error) {
	userID, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, notificationID uuid.UUID, clerkID string) error {
	userID, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return err
	}

	result, err := s.db.Exec(ctx, `
		UPDATE notifications SET is_read = true
		WHERE id = $1 AND user_id = $2`,
		notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("notification not found")
	}
	return nil
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, clerkID string) error {
	userID, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *NotificationService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	userID, err := s.resolveUser(ctx, clerkID)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (token) DO UPDATE SET user_id = $1, platform = $3`,
		userID, req.Token, req.Platform,
	)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *NotificationService) deviceTokens(ctx context.Context, userID uuid.UUID) ([]notification.DeviceToken, error) {
	rows, err := s.db.Query(ctx, `SELECT user_id, token, platform FROM device_tokens WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []notification.DeviceToken
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.UserID, &t.Token, &t.Platform); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

func (s *NotificationService) resolveUser(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("user not found: %w", err)
	}
	return userID, nil
}
