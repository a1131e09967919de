package service

import (
	"context"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/repository"
)

// RatingStore is the rating data access interface.
type RatingStore interface {
	Find(ctx context.Context, projectID, userID int64) (*domain.Rating, error)
	Create(ctx context.Context, projectID, userID int64, score int) (*repository.Aggregate, error)
	Update(ctx context.Context, projectID, userID int64, score int) (*repository.Aggregate, error)
	Distribution(ctx context.Context, projectID int64) ([]repository.ScoreCount, error)
	ResyncAll(ctx context.Context) error
}

// RatingService handles project ratings.
type RatingService struct {
	ratings RatingStore
}

// NewRatingService creates a new RatingService.
func NewRatingService(ratings RatingStore) *RatingService {
	return &RatingService{ratings: ratings}
}

// Rate records or replaces the user's score for a project and returns the
// updated aggregate. The first rating for a pair inserts; a repeat rating
// replaces the old score in place.
func (s *RatingService) Rate(ctx context.Context, projectID, userID int64, score int) (*repository.Aggregate, error) {
	if score < 0 || score > 10 {
		return nil, domain.ValidationError(map[string]string{"score": "must be between 0 and 10"})
	}

	_, err := s.ratings.Find(ctx, projectID, userID)
	switch {
	case err == nil:
		return s.ratings.Update(ctx, projectID, userID, score)
	case isNotFound(err):
		return s.ratings.Create(ctx, projectID, userID, score)
	default:
		return nil, err
	}
}

// MyRating returns the user's rating for a project, if any.
func (s *RatingService) MyRating(ctx context.Context, projectID, userID int64) (*domain.Rating, error) {
	return s.ratings.Find(ctx, projectID, userID)
}

// Distribution returns a project's per-score counts.
func (s *RatingService) Distribution(ctx context.Context, projectID int64) ([]repository.ScoreCount, error) {
	return s.ratings.Distribution(ctx, projectID)
}

// Resync recomputes every project's aggregate from the raw ratings.
func (s *RatingService) Resync(ctx context.Context) error {
	return s.ratings.ResyncAll(ctx)
}
