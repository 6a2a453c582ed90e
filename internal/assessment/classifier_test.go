package assessment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wellmind/assessment-api/internal/model"
)

func result(name string, weighted float64, level model.ScoreLevel) model.CategoryResult {
	return model.CategoryResult{CategoryName: name, WeightedScore: weighted, Level: level}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	cfg := DefaultScoringConfig()

	t.Run("two highs with severe taxonomy match", func(t *testing.T) {
		t.Parallel()
		results := []model.CategoryResult{
			result("Depresyon", 4.2, model.LevelHigh),
			result("Uyku", 4.1, model.LevelHigh),
		}
		typ, reason := classify(cfg, results, 4.15)
		assert.Equal(t, model.TypePsychiatrist, typ)
		assert.Contains(t, reason, "Depresyon")
		assert.Contains(t, reason, "psychiatrist")
	})

	t.Run("english category names match the taxonomy too", func(t *testing.T) {
		t.Parallel()
		results := []model.CategoryResult{
			result("Anxiety", 4.2, model.LevelHigh),
			result("Sleep", 4.1, model.LevelHigh),
		}
		typ, reason := classify(cfg, results, 4.15)
		assert.Equal(t, model.TypePsychiatrist, typ)
		assert.Contains(t, reason, "Anxiety")
	})

	t.Run("single severe depression escalates", func(t *testing.T) {
		t.Parallel()
		results := []model.CategoryResult{
			result("Depresyon", 4.6, model.LevelHigh),
			result("Stres", 3.0, model.LevelMedium),
		}
		typ, reason := classify(cfg, results, 3.8)
		assert.Equal(t, model.TypePsychiatrist, typ)
		assert.Contains(t, reason, "Depresyon")
		assert.Contains(t, reason, "depressive")
	})

	t.Run("single high depression below severe score stays psychologist", func(t *testing.T) {
		t.Parallel()
		results := []model.CategoryResult{
			result("Depresyon", 4.2, model.LevelHigh),
		}
		typ, _ := classify(cfg, results, 4.2)
		assert.Equal(t, model.TypePsychologist, typ)
	})

	t.Run("broad severity without taxonomy match escalates", func(t *testing.T) {
		t.Parallel()
		results := []model.CategoryResult{
			result("Uyku", 4.5, model.LevelHigh),
			result("Stres", 4.2, model.LevelHigh),
			result("Motivasyon", 4.1, model.LevelHigh),
		}
		typ, reason := classify(cfg, results, 4.27)
		assert.Equal(t, model.TypePsychiatrist, typ)
		assert.Contains(t, reason, "overall severity")
	})

	t.Run("two non-severe highs default to psychologist", func(t *testing.T) {
		t.Parallel()
		results := []model.CategoryResult{
			result("Uyku", 4.5, model.LevelHigh),
			result("Motivasyon", 4.1, model.LevelHigh),
		}
		typ, reason := classify(cfg, results, 4.3)
		assert.Equal(t, model.TypePsychologist, typ)
		assert.Contains(t, reason, "therapy")
	})

	t.Run("all low defaults to psychologist", func(t *testing.T) {
		t.Parallel()
		results := []model.CategoryResult{
			result("Depresyon", 1.5, model.LevelLow),
			result("Anksiyete", 2.0, model.LevelLow),
		}
		typ, reason := classify(cfg, results, 1.75)
		assert.Equal(t, model.TypePsychologist, typ)
		assert.Contains(t, reason, "psychologist")
	})
}
