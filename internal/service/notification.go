package service

import (
	"context"
	"log/slog"

	"github.com/opensharing/showcase/internal/domain"
)

// NotificationStore is the notification data access interface.
type NotificationStore interface {
	Create(ctx context.Context, userID int64, content string, relatedProjectID, relatedCommentID *int64) error
	CreateForAdmins(ctx context.Context, content string, relatedProjectID, relatedCommentID *int64) error
	Broadcast(ctx context.Context, content string) error
	ByUser(ctx context.Context, userID int64) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, id, userID int64) error
}

// NotificationService delivers in-app notifications. Deliveries triggered
// as side effects of other operations are best effort: a failed insert is
// logged and never fails the operation that caused it.
type NotificationService struct {
	store  NotificationStore
	logger *slog.Logger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store, logger: slog.With("component", "notifications")}
}

// Notify sends a notification to one user.
func (s *NotificationService) Notify(ctx context.Context, userID int64, content string, relatedProjectID, relatedCommentID *int64) {
	if err := s.store.Create(ctx, userID, content, relatedProjectID, relatedCommentID); err != nil {
		s.logger.Error("notification delivery failed", "user_id", userID, "error", err)
	}
}

// NotifyAdmins sends a notification to every administrator.
func (s *NotificationService) NotifyAdmins(ctx context.Context, content string, relatedProjectID, relatedCommentID *int64) {
	if err := s.store.CreateForAdmins(ctx, content, relatedProjectID, relatedCommentID); err != nil {
		s.logger.Error("admin notification delivery failed", "error", err)
	}
}

// NotifyUser sends a direct notification to one user on an administrator's
// behalf. Unlike the side-effect deliveries this is a first-class admin
// operation, so failures propagate.
func (s *NotificationService) NotifyUser(ctx context.Context, userID int64, content string) error {
	return s.store.Create(ctx, userID, content, nil, nil)
}

// Broadcast sends an announcement to every user. A first-class admin
// operation like NotifyUser, so failures propagate.
func (s *NotificationService) Broadcast(ctx context.Context, content string) error {
	return s.store.Broadcast(ctx, content)
}

// ListForUser returns a user's notifications, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]domain.Notification, error) {
	return s.store.ByUser(ctx, userID)
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID int64) error {
	return s.store.MarkRead(ctx, id, userID)
}

// MarkAllRead flags all of the user's notifications as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.store.MarkAllRead(ctx, userID)
}

// Delete removes one of the user's notifications.
func (s *NotificationService) Delete(ctx context.Context, id, userID int64) error {
	return s.store.Delete(ctx, id, userID)
}
