package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

// NotificationRepository handles notification data access.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, userID int64, content string, relatedProjectID, relatedCommentID *int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, content, related_project_id, related_comment_id)
		 VALUES ($1, $2, $3, $4)`,
		userID, content, relatedProjectID, relatedCommentID)
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// CreateForAdmins fans a notification out to every administrator.
func (r *NotificationRepository) CreateForAdmins(ctx context.Context, content string, relatedProjectID, relatedCommentID *int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, content, related_project_id, related_comment_id)
		 SELECT id, $1, $2, $3 FROM users WHERE role = $4`,
		content, relatedProjectID, relatedCommentID, domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("notify admins: %w", err)
	}
	return nil
}

// Broadcast inserts a notification for every user in one statement.
func (r *NotificationRepository) Broadcast(ctx context.Context, content string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notifications (user_id, content) SELECT id, $1 FROM users`, content)
	if err != nil {
		return fmt.Errorf("broadcast notification: %w", err)
	}
	return nil
}

// ByUser returns a user's notifications, newest first.
func (r *NotificationRepository) ByUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	notifications := []domain.Notification{}
	err := r.db.SelectContext(ctx, &notifications,
		`SELECT id, user_id, content, is_read, related_project_id, related_comment_id, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications for user %d: %w", userID, err)
	}
	return notifications, nil
}

// MarkRead flags one of the user's notifications as read. Scoped to the
// user so one user cannot read another's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE id = $1 AND user_id = $2`,
		id, userID); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID); err != nil {
		return fmt.Errorf("delete notification %d: %w", id, err)
	}
	return nil
}
