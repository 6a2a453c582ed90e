package assessment

import (
	"math"

	"github.com/wellmind/assessment-api/internal/model"
)

// answeredQuestion pairs a catalog question with the submitted answer value.
type answeredQuestion struct {
	question model.Question
	value    int
}

// round2 rounds to 2 decimal places, half away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// levelFor maps a weighted average onto a risk tier. Lower bounds are
// inclusive: exactly 4.0 is high, exactly 2.5 is medium.
func levelFor(cfg ScoringConfig, weighted float64) model.ScoreLevel {
	switch {
	case weighted >= cfg.HighThreshold:
		return model.LevelHigh
	case weighted >= cfg.MediumThreshold:
		return model.LevelMedium
	default:
		return model.LevelLow
	}
}

// scoreCategory computes the result for one category from its answered
// questions. Unanswered questions in the category contribute nothing,
// including to the weight sum. Callers must not pass an empty slice;
// categories without answers are omitted upstream.
func scoreCategory(cfg ScoringConfig, cat model.Category, answered []answeredQuestion) model.CategoryResult {
	var sum, weightedSum, weightSum float64
	for _, a := range answered {
		sum += float64(a.value)
		weightedSum += float64(a.value) * float64(a.question.Weight)
		weightSum += float64(a.question.Weight)
	}

	simple := round2(sum / float64(len(answered)))
	weighted := weightedSum / weightSum

	// The tier is derived from the unrounded average; only the reported
	// score is rounded. 2.4999 stays low even though it displays as 2.5.
	level := levelFor(cfg, weighted)

	return model.CategoryResult{
		CategoryID:     cat.ID,
		CategoryName:   cat.Name,
		Score:          simple,
		WeightedScore:  round2(weighted),
		Level:          level,
		Recommendation: cfg.advisoryFor(cat.Name, level),
	}
}
