package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/opensharing/showcase/internal/domain"
)

// RatingRepository handles ratings and the incremental maintenance of the
// project aggregate fields. Every aggregate mutation runs in a transaction
// that first locks the project row, so at most one aggregate update per
// project is in flight at a time.
type RatingRepository struct {
	db *sqlx.DB
}

// NewRatingRepository creates a new RatingRepository.
func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) Find(ctx context.Context, projectID, userID int64) (*domain.Rating, error) {
	var rating domain.Rating
	err := r.db.GetContext(ctx, &rating,
		`SELECT id, project_id, user_id, score, is_used, created_at, updated_at
		 FROM ratings WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound("rating")
		}
		return nil, fmt.Errorf("find rating %d/%d: %w", projectID, userID, err)
	}
	return &rating, nil
}

// Aggregate is the project rating summary after a mutation.
type Aggregate struct {
	AverageRating float64 `json:"average_rating" db:"average_rating"`
	RatingCount   int     `json:"rating_count" db:"rating_count"`
}

// WithScore folds one new score into the aggregate:
// avg' = (avg*n + score) / (n+1), n' = n+1.
func (a Aggregate) WithScore(score int) Aggregate {
	n := float64(a.RatingCount)
	return Aggregate{
		AverageRating: (a.AverageRating*n + float64(score)) / (n + 1),
		RatingCount:   a.RatingCount + 1,
	}
}

// WithReplacedScore swaps an existing score for a new one in place:
// avg' = (avg*n - old + new) / n, count unchanged.
func (a Aggregate) WithReplacedScore(oldScore, newScore int) Aggregate {
	n := float64(a.RatingCount)
	return Aggregate{
		AverageRating: (a.AverageRating*n - float64(oldScore) + float64(newScore)) / n,
		RatingCount:   a.RatingCount,
	}
}

// Create inserts a rating and folds the score into the project average:
// avg' = (avg*n + score) / (n+1), n' = n+1.
func (r *RatingRepository) Create(ctx context.Context, projectID, userID int64, score int) (*Aggregate, error) {
	var agg Aggregate
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := lockProjectAggregate(ctx, tx, projectID)
		if err != nil {
			return err
		}

		agg = current.WithScore(score)

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ratings (project_id, user_id, score) VALUES ($1, $2, $3)`,
			projectID, userID, score); err != nil {
			if isUniqueViolation(err) {
				return domain.Conflict("rating")
			}
			return fmt.Errorf("insert rating: %w", err)
		}

		return updateProjectAggregate(ctx, tx, projectID, agg)
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// Update replaces a rating's score and adjusts the average in place:
// avg' = (avg*n - old + new) / n, count unchanged.
func (r *RatingRepository) Update(ctx context.Context, projectID, userID int64, score int) (*Aggregate, error) {
	var agg Aggregate
	err := r.inTx(ctx, func(tx *sqlx.Tx) error {
		current, err := lockProjectAggregate(ctx, tx, projectID)
		if err != nil {
			return err
		}

		var oldScore int
		err = tx.GetContext(ctx, &oldScore,
			`SELECT score FROM ratings WHERE project_id = $1 AND user_id = $2 FOR UPDATE`,
			projectID, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound("rating")
			}
			return fmt.Errorf("load rating: %w", err)
		}

		agg = current.WithReplacedScore(oldScore, score)

		if _, err := tx.ExecContext(ctx,
			`UPDATE ratings SET score = $3, updated_at = NOW() WHERE project_id = $1 AND user_id = $2`,
			projectID, userID, score); err != nil {
			return fmt.Errorf("update rating: %w", err)
		}

		return updateProjectAggregate(ctx, tx, projectID, agg)
	})
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// ResyncAll recomputes the aggregate fields from scratch for every project
// that has ratings. Administrative correction for drift; the hot path
// never does this.
func (r *RatingRepository) ResyncAll(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE projects p
		 SET average_rating = a.avg_score, rating_count = a.score_count
		 FROM (SELECT project_id, AVG(score) AS avg_score, COUNT(*) AS score_count
		       FROM ratings GROUP BY project_id) a
		 WHERE p.id = a.project_id`)
	if err != nil {
		return fmt.Errorf("resync rating aggregates: %w", err)
	}
	return nil
}

// ScoreCount is one bucket of a project's rating distribution.
type ScoreCount struct {
	Score int `json:"score" db:"score"`
	Count int `json:"count" db:"count"`
}

// Distribution returns per-score counts for a project.
func (r *RatingRepository) Distribution(ctx context.Context, projectID int64) ([]ScoreCount, error) {
	buckets := []ScoreCount{}
	err := r.db.SelectContext(ctx, &buckets,
		`SELECT score, COUNT(*) AS count FROM ratings WHERE project_id = $1
		 GROUP BY score ORDER BY score`, projectID)
	if err != nil {
		return nil, fmt.Errorf("rating distribution for project %d: %w", projectID, err)
	}
	return buckets, nil
}

func (r *RatingRepository) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rating tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rating tx: %w", err)
	}
	return nil
}

func lockProjectAggregate(ctx context.Context, tx *sqlx.Tx, projectID int64) (*Aggregate, error) {
	var agg Aggregate
	err := tx.GetContext(ctx, &agg,
		`SELECT average_rating, rating_count FROM projects WHERE id = $1 FOR UPDATE`,
		projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(fmt.Sprintf("project %d", projectID))
		}
		return nil, fmt.Errorf("lock project %d: %w", projectID, err)
	}
	return &agg, nil
}

func updateProjectAggregate(ctx context.Context, tx *sqlx.Tx, projectID int64, agg Aggregate) error {
	if _, err := tx.ExecContext(ctx,
		`UPDATE projects SET average_rating = $2, rating_count = $3 WHERE id = $1`,
		projectID, agg.AverageRating, agg.RatingCount); err != nil {
		return fmt.Errorf("update project aggregate: %w", err)
	}
	return nil
}
