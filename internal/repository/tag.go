package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

// TagRepository handles tag data access.
type TagRepository struct {
	db *sqlx.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{db: db}
}

func (r *TagRepository) List(ctx context.Context) ([]domain.Tag, error) {
	tags := []domain.Tag{}
	err := r.db.SelectContext(ctx, &tags,
		`SELECT id, name, category, description FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func (r *TagRepository) FindByID(ctx context.Context, id int64) (*domain.Tag, error) {
	var tag domain.Tag
	err := r.db.GetContext(ctx, &tag,
		`SELECT id, name, category, description FROM tags WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(fmt.Sprintf("tag %d", id))
		}
		return nil, fmt.Errorf("find tag %d: %w", id, err)
	}
	return &tag, nil
}

func (r *TagRepository) Create(ctx context.Context, tag domain.Tag) (*domain.Tag, error) {
	var created domain.Tag
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO tags (name, category, description) VALUES ($1, $2, $3)
		 RETURNING id, name, category, description`,
		tag.Name, tag.Category, tag.Description,
	).StructScan(&created)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("tag")
		}
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return &created, nil
}

// TagPatch is a partial tag update; nil fields are left untouched.
type TagPatch struct {
	Name        *string
	Category    *string
	Description *string
}

func (r *TagRepository) Update(ctx context.Context, id int64, patch TagPatch) (*domain.Tag, error) {
	var tag domain.Tag
	err := r.db.QueryRowxContext(ctx,
		`UPDATE tags
		 SET name = COALESCE($2, name),
		     category = COALESCE($3, category),
		     description = COALESCE($4, description)
		 WHERE id = $1
		 RETURNING id, name, category, description`,
		id, patch.Name, patch.Category, patch.Description,
	).StructScan(&tag)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(fmt.Sprintf("tag %d", id))
		}
		if isUniqueViolation(err) {
			return nil, domain.Conflict("tag")
		}
		return nil, fmt.Errorf("update tag %d: %w", id, err)
	}
	return &tag, nil
}

func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound(fmt.Sprintf("tag %d", id))
	}
	return nil
}
