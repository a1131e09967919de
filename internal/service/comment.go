package service

import (
	"context"
	"fmt"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/token"
)

// CommentStore is the comment data access interface.
type CommentStore interface {
	Create(ctx context.Context, projectID, userID int64, content string, parentID *int64) (*domain.Comment, error)
	FindByID(ctx context.Context, id int64) (*domain.Comment, error)
	Replies(ctx context.Context, commentID int64) ([]domain.Comment, error)
	ByProject(ctx context.Context, projectID int64) ([]domain.Comment, error)
	Delete(ctx context.Context, id int64) error
}

// ProjectFinder resolves projects by id.
type ProjectFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.Project, error)
}

// CommentService handles project comments and reply threads.
type CommentService struct {
	comments CommentStore
	projects ProjectFinder
	notifier *NotificationService
}

// NewCommentService creates a new CommentService.
func NewCommentService(comments CommentStore, projects ProjectFinder, notifier *NotificationService) *CommentService {
	return &CommentService{comments: comments, projects: projects, notifier: notifier}
}

// Create posts a comment, or a reply when parentID is set. A reply must
// target a comment on the same project. The project submitter is notified
// of top-level comments, the parent author of replies; nobody is notified
// about their own comment.
func (s *CommentService) Create(ctx context.Context, userID, projectID int64, content string, parentID *int64) (*domain.Comment, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var parent *domain.Comment
	if parentID != nil {
		parent, err = s.comments.FindByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.ProjectID != projectID {
			return nil, domain.ValidationError(map[string]string{
				"parent_id": "parent comment belongs to a different project",
			})
		}
	}

	comment, err := s.comments.Create(ctx, projectID, userID, content, parentID)
	if err != nil {
		return nil, err
	}

	switch {
	case parent != nil && parent.UserID != userID:
		s.notifier.Notify(ctx, parent.UserID,
			fmt.Sprintf("New reply to your comment on %q", project.Name),
			&projectID, &comment.ID)
	case parent == nil && project.SubmitterID != userID:
		s.notifier.Notify(ctx, project.SubmitterID,
			fmt.Sprintf("New comment on your project %q", project.Name),
			&projectID, &comment.ID)
	}
	return comment, nil
}

// Get returns a single comment.
func (s *CommentService) Get(ctx context.Context, id int64) (*domain.Comment, error) {
	return s.comments.FindByID(ctx, id)
}

// ByProject returns a project's top-level comments, newest first.
func (s *CommentService) ByProject(ctx context.Context, projectID int64) ([]domain.Comment, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.comments.ByProject(ctx, projectID)
}

// Replies returns the direct replies to a comment.
func (s *CommentService) Replies(ctx context.Context, commentID int64) ([]domain.Comment, error) {
	if _, err := s.comments.FindByID(ctx, commentID); err != nil {
		return nil, err
	}
	return s.comments.Replies(ctx, commentID)
}

// Delete removes a comment. Only the author or an administrator may.
func (s *CommentService) Delete(ctx context.Context, session *token.Session, id int64) error {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != session.UserID && !session.IsAdmin() {
		return domain.PermissionDenied("not allowed to delete this comment")
	}
	return s.comments.Delete(ctx, id)
}
