package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/opensharing/showcase/internal/service"
)

// CommentHandler exposes project comments and reply threads.
type CommentHandler struct {
	comments *service.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type createCommentRequest struct {
	Content  string `json:"content" validate:"required,max=2000"`
	ParentID *int64 `json:"parent_id"`
}

// Create handles POST /projects/:id/comments.
func (h *CommentHandler) Create(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req createCommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	comment, err := h.comments.Create(c.Request().Context(),
		sessionFrom(c).UserID, projectID, req.Content, req.ParentID)
	if err != nil {
		return err
	}
	return respond(c, comment)
}

// ByProject handles GET /projects/:id/comments.
func (h *CommentHandler) ByProject(c echo.Context) error {
	projectID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	comments, err := h.comments.ByProject(c.Request().Context(), projectID)
	if err != nil {
		return err
	}
	return respond(c, comments)
}

// Get handles GET /comments/:id.
func (h *CommentHandler) Get(c echo.Context) error {
	commentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	comment, err := h.comments.Get(c.Request().Context(), commentID)
	if err != nil {
		return err
	}
	return respond(c, comment)
}

// Replies handles GET /comments/:id/replies.
func (h *CommentHandler) Replies(c echo.Context) error {
	commentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	replies, err := h.comments.Replies(c.Request().Context(), commentID)
	if err != nil {
		return err
	}
	return respond(c, replies)
}

// Delete handles DELETE /comments/:id.
func (h *CommentHandler) Delete(c echo.Context) error {
	commentID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.comments.Delete(c.Request().Context(), sessionFrom(c), commentID); err != nil {
		return err
	}
	return respondMessage(c, "comment deleted")
}
