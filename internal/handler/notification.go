package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/service"
)

// NotificationHandler exposes in-app notifications.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// Mine handles GET /notifications.
func (h *NotificationHandler) Mine(c echo.Context) error {
	notifications, err := h.notifications.ListForUser(c.Request().Context(), sessionFrom(c).UserID)
	if err != nil {
		return err
	}
	return respond(c, notifications)
}

// MarkRead handles PUT /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Request().Context(), id, sessionFrom(c).UserID); err != nil {
		return err
	}
	return respondMessage(c, "notification marked read")
}

// MarkAllRead handles PUT /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	if err := h.notifications.MarkAllRead(c.Request().Context(), sessionFrom(c).UserID); err != nil {
		return err
	}
	return respondMessage(c, "all notifications marked read")
}

// Delete handles DELETE /notifications/:id.
func (h *NotificationHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.Delete(c.Request().Context(), id, sessionFrom(c).UserID); err != nil {
		return err
	}
	return respondMessage(c, "notification deleted")
}

type notifyUserRequest struct {
	UserID  int64  `json:"user_id" validate:"required"`
	Content string `json:"content" validate:"required,max=2000"`
}

// NotifyUser handles POST /admin/notifications/user.
func (h *NotificationHandler) NotifyUser(c echo.Context) error {
	var req notifyUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.notifications.NotifyUser(c.Request().Context(), req.UserID, req.Content); err != nil {
		return err
	}
	return respondMessage(c, "notification sent")
}

type broadcastRequest struct {
	Content string `json:"content" validate:"required,max=2000"`
}

// Broadcast handles POST /admin/notifications/broadcast.
func (h *NotificationHandler) Broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.notifications.Broadcast(c.Request().Context(), req.Content); err != nil {
		return err
	}
	return respondMessage(c, "broadcast sent")
}
