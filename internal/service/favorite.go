package service

import (
	"context"

	"github.com/opensharing/showcase/internal/domain"
)

// FavoriteStore is the favorite data access interface.
type FavoriteStore interface {
	Create(ctx context.Context, projectID, userID int64) (*domain.Favorite, error)
	Delete(ctx context.Context, projectID, userID int64) error
	ByUser(ctx context.Context, userID int64) ([]domain.Favorite, error)
	UsersByProject(ctx context.Context, projectID int64) ([]domain.User, error)
}

// FavoriteService handles project bookmarks.
type FavoriteService struct {
	favorites FavoriteStore
	projects  ProjectFinder
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(favorites FavoriteStore, projects ProjectFinder) *FavoriteService {
	return &FavoriteService{favorites: favorites, projects: projects}
}

// Add bookmarks a project for the user. Favoriting twice is a conflict.
func (s *FavoriteService) Add(ctx context.Context, projectID, userID int64) (*domain.Favorite, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.favorites.Create(ctx, projectID, userID)
}

// Remove deletes the user's bookmark on a project.
func (s *FavoriteService) Remove(ctx context.Context, projectID, userID int64) error {
	return s.favorites.Delete(ctx, projectID, userID)
}

// ListForUser returns the user's favorites with projects attached.
func (s *FavoriteService) ListForUser(ctx context.Context, userID int64) ([]domain.Favorite, error) {
	return s.favorites.ByUser(ctx, userID)
}

// FansOfProject returns the users who favored a project.
func (s *FavoriteService) FansOfProject(ctx context.Context, projectID int64) ([]domain.User, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, err
	}
	return s.favorites.UsersByProject(ctx, projectID)
}
