package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

// commentRow joins a comment with its author's public fields.
type commentRow struct {
	domain.Comment
	AuthorUsername string  `db:"author_username"`
	AuthorAvatar   *string `db:"author_avatar"`
	AuthorBio      string  `db:"author_bio"`
	AuthorInUse    bool    `db:"author_in_use"`
}

func (row commentRow) toComment() domain.Comment {
	c := row.Comment
	c.Author = &domain.User{
		ID:       c.UserID,
		Username: row.AuthorUsername,
		Avatar:   row.AuthorAvatar,
		Bio:      row.AuthorBio,
		InUse:    row.AuthorInUse,
	}
	return c
}

const commentSelect = `SELECT c.id, c.project_id, c.user_id, c.content, c.parent_id,
	c.created_at, c.updated_at,
	u.username AS author_username, u.avatar AS author_avatar,
	u.bio AS author_bio, u.in_use AS author_in_use
	FROM comments c JOIN users u ON u.id = c.user_id`

// CommentRepository handles comment data access.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, projectID, userID int64, content string, parentID *int64) (*domain.Comment, error) {
	var id int64
	err := r.db.GetContext(ctx, &id,
		`INSERT INTO comments (project_id, user_id, content, parent_id)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		projectID, userID, content, parentID)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *CommentRepository) FindByID(ctx context.Context, id int64) (*domain.Comment, error) {
	var row commentRow
	err := r.db.GetContext(ctx, &row, commentSelect+` WHERE c.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(fmt.Sprintf("comment %d", id))
		}
		return nil, fmt.Errorf("find comment %d: %w", id, err)
	}
	comment := row.toComment()
	return &comment, nil
}

// Replies returns the direct replies to a comment.
func (r *CommentRepository) Replies(ctx context.Context, commentID int64) ([]domain.Comment, error) {
	rows := []commentRow{}
	err := r.db.SelectContext(ctx, &rows,
		commentSelect+` WHERE c.parent_id = $1 ORDER BY c.created_at`, commentID)
	if err != nil {
		return nil, fmt.Errorf("list replies for comment %d: %w", commentID, err)
	}
	comments := make([]domain.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}
	return comments, nil
}

// ByProject returns a project's top-level comments, newest first.
func (r *CommentRepository) ByProject(ctx context.Context, projectID int64) ([]domain.Comment, error) {
	rows := []commentRow{}
	err := r.db.SelectContext(ctx, &rows,
		commentSelect+` WHERE c.project_id = $1 AND c.parent_id IS NULL ORDER BY c.created_at DESC`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("list comments for project %d: %w", projectID, err)
	}
	comments := make([]domain.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toComment()
	}
	return comments, nil
}

func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound(fmt.Sprintf("comment %d", id))
	}
	return nil
}
