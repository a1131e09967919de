package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

// ImageRepository handles image metadata; file contents live on disk.
type ImageRepository struct {
	db *sqlx.DB
}

// NewImageRepository creates a new ImageRepository.
func NewImageRepository(db *sqlx.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

func (r *ImageRepository) Create(ctx context.Context, img domain.Image) (*domain.Image, error) {
	var created domain.Image
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO images (file_name, user_id, project_id, original_name, mime_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, file_name, user_id, project_id, original_name, mime_type, created_at`,
		img.FileName, img.UserID, img.ProjectID, img.OriginalName, img.MimeType,
	).StructScan(&created)
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	return &created, nil
}

func (r *ImageRepository) FindByID(ctx context.Context, id int64) (*domain.Image, error) {
	var img domain.Image
	err := r.db.GetContext(ctx, &img,
		`SELECT id, file_name, user_id, project_id, original_name, mime_type, created_at
		 FROM images WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(fmt.Sprintf("image %d", id))
		}
		return nil, fmt.Errorf("find image %d: %w", id, err)
	}
	return &img, nil
}

// ByProject returns the images attached to a project.
func (r *ImageRepository) ByProject(ctx context.Context, projectID int64) ([]domain.Image, error) {
	images := []domain.Image{}
	err := r.db.SelectContext(ctx, &images,
		`SELECT id, file_name, user_id, project_id, original_name, mime_type, created_at
		 FROM images WHERE project_id = $1 ORDER BY id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list images for project %d: %w", projectID, err)
	}
	return images, nil
}

// AttachToProject binds previously uploaded images to a project.
func (r *ImageRepository) AttachToProject(ctx context.Context, projectID int64, imageIDs []int64) error {
	if len(imageIDs) == 0 {
		return nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE images SET project_id = $1 WHERE id = ANY($2)`, projectID, imageIDs)
	if err != nil {
		return fmt.Errorf("attach images to project %d: %w", projectID, err)
	}
	return nil
}

// UnattachedByUser returns a user's uploads not yet bound to any project.
func (r *ImageRepository) UnattachedByUser(ctx context.Context, userID int64) ([]domain.Image, error) {
	images := []domain.Image{}
	err := r.db.SelectContext(ctx, &images,
		`SELECT id, file_name, user_id, project_id, original_name, mime_type, created_at
		 FROM images WHERE user_id = $1 AND project_id IS NULL`, userID)
	if err != nil {
		return nil, fmt.Errorf("list unattached images for user %d: %w", userID, err)
	}
	return images, nil
}

func (r *ImageRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM images WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete image %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound(fmt.Sprintf("image %d", id))
	}
	return nil
}

// DeleteUnattachedByUser removes a user's project-less uploads.
func (r *ImageRepository) DeleteUnattachedByUser(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM images WHERE user_id = $1 AND project_id IS NULL`, userID); err != nil {
		return fmt.Errorf("clean unattached images for user %d: %w", userID, err)
	}
	return nil
}
