package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wellmind/assessment-api/internal/model"
)

func q(id int64, weight int, cat model.Category) model.Question {
	return model.Question{ID: id, Weight: weight, CategoryID: cat.ID, Category: cat, Active: true}
}

func TestLevelFor(t *testing.T) {
	t.Parallel()
	cfg := DefaultScoringConfig()

	assert.Equal(t, model.LevelHigh, levelFor(cfg, 5.0))
	assert.Equal(t, model.LevelHigh, levelFor(cfg, 4.0), "lower bound of high is inclusive")
	assert.Equal(t, model.LevelMedium, levelFor(cfg, 3.99))
	assert.Equal(t, model.LevelMedium, levelFor(cfg, 2.5), "lower bound of medium is inclusive")
	assert.Equal(t, model.LevelLow, levelFor(cfg, 2.4999))
	assert.Equal(t, model.LevelLow, levelFor(cfg, 1.0))
}

func TestRound2(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 3.67, round2(11.0/3.0), 0.0001)
	assert.InDelta(t, 4.33, round2(13.0/3.0), 0.0001)
	assert.InDelta(t, 5.0, round2(5.0), 0.0001)
}

func TestScoreCategory(t *testing.T) {
	t.Parallel()
	cfg := DefaultScoringConfig()
	depression := model.Category{ID: 1, Name: "Depresyon"}

	t.Run("weighted average uses question weights", func(t *testing.T) {
		t.Parallel()
		answered := []answeredQuestion{
			{question: q(1, 1, depression), value: 5},
			{question: q(2, 3, depression), value: 5},
		}
		got := scoreCategory(cfg, depression, answered)
		assert.InDelta(t, 5.00, got.Score, 0.0001)
		assert.InDelta(t, 5.00, got.WeightedScore, 0.0001)
		assert.Equal(t, model.LevelHigh, got.Level)
		assert.Equal(t, int64(1), got.CategoryID)
		assert.Equal(t, "Depresyon", got.CategoryName)
	})

	t.Run("weights shift the average", func(t *testing.T) {
		t.Parallel()
		answered := []answeredQuestion{
			{question: q(1, 1, depression), value: 3},
			{question: q(2, 2, depression), value: 4},
		}
		got := scoreCategory(cfg, depression, answered)
		assert.InDelta(t, 3.5, got.Score, 0.0001)
		assert.InDelta(t, 3.67, got.WeightedScore, 0.0001)
		assert.Equal(t, model.LevelMedium, got.Level)
	})

	t.Run("results stay within the likert range", func(t *testing.T) {
		t.Parallel()
		for _, values := range [][]int{{1, 1, 1}, {1, 3, 5}, {5, 5, 5, 5}, {2, 4}} {
			var answered []answeredQuestion
			for i, v := range values {
				answered = append(answered, answeredQuestion{question: q(int64(i+1), i+1, depression), value: v})
			}
			got := scoreCategory(cfg, depression, answered)
			assert.GreaterOrEqual(t, got.WeightedScore, 1.0)
			assert.LessOrEqual(t, got.WeightedScore, 5.0)
			assert.GreaterOrEqual(t, got.Score, 1.0)
			assert.LessOrEqual(t, got.Score, 5.0)
		}
	})

	t.Run("recommendation follows category and level", func(t *testing.T) {
		t.Parallel()
		answered := []answeredQuestion{{question: q(1, 1, depression), value: 5}}
		got := scoreCategory(cfg, depression, answered)
		assert.Contains(t, got.Recommendation, "depressive symptoms")

		unknown := model.Category{ID: 9, Name: "Motivasyon"}
		got = scoreCategory(cfg, unknown, []answeredQuestion{{question: q(1, 1, unknown), value: 5}})
		assert.Equal(t, cfg.FallbackAdvisory, got.Recommendation)
	})
}
