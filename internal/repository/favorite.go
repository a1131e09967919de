package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

// FavoriteRepository handles favorite data access.
type FavoriteRepository struct {
	db *sqlx.DB
}

// NewFavoriteRepository creates a new FavoriteRepository.
func NewFavoriteRepository(db *sqlx.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

func (r *FavoriteRepository) Create(ctx context.Context, projectID, userID int64) (*domain.Favorite, error) {
	var fav domain.Favorite
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO favorites (project_id, user_id) VALUES ($1, $2)
		 RETURNING id, project_id, user_id, created_at`,
		projectID, userID,
	).StructScan(&fav)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.Conflict("favorite")
		}
		return nil, fmt.Errorf("create favorite: %w", err)
	}
	return &fav, nil
}

func (r *FavoriteRepository) Delete(ctx context.Context, projectID, userID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.NotFound("favorite")
	}
	return nil
}

// ByUser returns a user's favorites with the favored projects attached.
func (r *FavoriteRepository) ByUser(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	favorites := []domain.Favorite{}
	err := r.db.SelectContext(ctx, &favorites,
		`SELECT id, project_id, user_id, created_at FROM favorites
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites for user %d: %w", userID, err)
	}
	if len(favorites) == 0 {
		return favorites, nil
	}

	ids := make([]int64, len(favorites))
	for i, f := range favorites {
		ids[i] = f.ProjectID
	}
	projects := []domain.Project{}
	err = r.db.SelectContext(ctx, &projects,
		`SELECT `+projectColumns+` FROM projects WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("load favorite projects: %w", err)
	}
	byID := make(map[int64]*domain.Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}
	for i := range favorites {
		favorites[i].Project = byID[favorites[i].ProjectID]
	}
	return favorites, nil
}

// UsersByProject returns the public profiles of users who favored a project.
func (r *FavoriteRepository) UsersByProject(ctx context.Context, projectID int64) ([]domain.User, error) {
	users := []domain.User{}
	err := r.db.SelectContext(ctx, &users,
		`SELECT u.id, u.username, u.password_hash, u.email, u.avatar, u.bio, u.role,
		        u.last_login, u.github_id, u.gitee_id, u.github_name, u.gitee_name,
		        u.in_use, u.created_at, u.updated_at
		 FROM users u
		 JOIN favorites f ON f.user_id = u.id
		 WHERE f.project_id = $1 ORDER BY f.created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list favorite users for project %d: %w", projectID, err)
	}
	return users, nil
}
