package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The incremental folds must track the true mean of the stored scores
// after every single operation, for any mix of inserts and replacements.
func TestAggregateFoldsTrackTrueMean(t *testing.T) {
	scores := map[int]int{}
	var agg Aggregate

	trueMean := func() float64 {
		sum := 0
		for _, s := range scores {
			sum += s
		}
		return float64(sum) / float64(len(scores))
	}
	check := func(t *testing.T) {
		t.Helper()
		require.Equal(t, len(scores), agg.RatingCount)
		assert.InDelta(t, trueMean(), agg.AverageRating, 1e-9)
	}

	ops := []struct {
		name   string
		userID int
		score  int
	}{
		{"first insert", 1, 10},
		{"second insert", 2, 0},
		{"third insert", 3, 7},
		{"replace mid score", 2, 9},
		{"replace to same score", 1, 10},
		{"fourth insert", 4, 3},
		{"replace after growth", 3, 1},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			if old, exists := scores[op.userID]; exists {
				agg = agg.WithReplacedScore(old, op.score)
			} else {
				agg = agg.WithScore(op.score)
			}
			scores[op.userID] = op.score
			check(t)
		})
	}
}

func TestAggregateWithScoreFromEmpty(t *testing.T) {
	agg := Aggregate{}.WithScore(8)
	assert.Equal(t, 1, agg.RatingCount)
	assert.InDelta(t, 8.0, agg.AverageRating, 1e-9)
}
