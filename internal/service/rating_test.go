package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensharing/showcase/internal/domain"
	"github.com/opensharing/showcase/internal/repository"
)

// fakeRatings applies the same aggregate folds as the real store.
type fakeRatings struct {
	scores map[[2]int64]int
	agg    repository.Aggregate
}

func newFakeRatings() *fakeRatings {
	return &fakeRatings{scores: map[[2]int64]int{}}
}

func (f *fakeRatings) Find(_ context.Context, projectID, userID int64) (*domain.Rating, error) {
	score, ok := f.scores[[2]int64{projectID, userID}]
	if !ok {
		return nil, domain.NotFound("rating")
	}
	return &domain.Rating{ProjectID: projectID, UserID: userID, Score: score}, nil
}

func (f *fakeRatings) Create(_ context.Context, projectID, userID int64, score int) (*repository.Aggregate, error) {
	key := [2]int64{projectID, userID}
	if _, exists := f.scores[key]; exists {
		return nil, domain.Conflict("rating")
	}
	f.scores[key] = score
	f.agg = f.agg.WithScore(score)
	agg := f.agg
	return &agg, nil
}

func (f *fakeRatings) Update(_ context.Context, projectID, userID int64, score int) (*repository.Aggregate, error) {
	key := [2]int64{projectID, userID}
	old, exists := f.scores[key]
	if !exists {
		return nil, domain.NotFound("rating")
	}
	f.scores[key] = score
	f.agg = f.agg.WithReplacedScore(old, score)
	agg := f.agg
	return &agg, nil
}

func (f *fakeRatings) Distribution(context.Context, int64) ([]repository.ScoreCount, error) {
	return nil, nil
}

func (f *fakeRatings) ResyncAll(context.Context) error { return nil }

func TestRateInsertsThenReplaces(t *testing.T) {
	ratings := newFakeRatings()
	svc := NewRatingService(ratings)
	ctx := context.Background()

	agg, err := svc.Rate(ctx, 1, 100, 4)
	require.NoError(t, err)
	assert.Equal(t, 1, agg.RatingCount)
	assert.InDelta(t, 4.0, agg.AverageRating, 1e-9)

	agg, err = svc.Rate(ctx, 1, 200, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.RatingCount)
	assert.InDelta(t, 3.0, agg.AverageRating, 1e-9)

	// the same user rating again replaces, count unchanged
	agg, err = svc.Rate(ctx, 1, 200, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, agg.RatingCount)
	assert.InDelta(t, 4.0, agg.AverageRating, 1e-9)
}

func TestRateRejectsOutOfRangeScore(t *testing.T) {
	svc := NewRatingService(newFakeRatings())
	ctx := context.Background()

	for _, score := range []int{-1, 11, 100} {
		_, err := svc.Rate(ctx, 1, 100, score)
		requireCode(t, err, domain.CodeValidation)
	}
}
