package assessment

import (
	"fmt"
	"strings"

	"github.com/wellmind/assessment-api/internal/model"
)

// typeLabel renders a professional type for narrative text.
func typeLabel(t model.ProfessionalType) string {
	if t == model.TypePsychiatrist {
		return "psychiatrist"
	}
	return "psychologist"
}

// overallNarrative builds the single overall assessment string. The
// branches form a priority cascade; only the first matching one fires.
func overallNarrative(cfg ScoringConfig, results []model.CategoryResult, overall float64, recommended model.ProfessionalType) string {
	var high, medium []string
	for _, r := range results {
		switch r.Level {
		case model.LevelHigh:
			high = append(high, r.CategoryName)
		case model.LevelMedium:
			medium = append(medium, r.CategoryName)
		}
	}

	switch {
	case len(high) >= 2:
		return fmt.Sprintf(
			"You show high-severity symptoms in more than one area (%s). We strongly recommend seeking support from a %s.",
			strings.Join(high, ", "), typeLabel(recommended))
	case len(high) == 1:
		return fmt.Sprintf(
			"You show high-severity symptoms in the %s area. We recommend seeking dedicated support from a %s.",
			high[0], typeLabel(recommended))
	case len(medium) >= 3:
		return fmt.Sprintf(
			"You show moderate-severity symptoms in many areas. Consider the per-category recommendations and support from a %s to improve your overall quality of life.",
			typeLabel(recommended))
	case overall >= cfg.PositiveOverallScore:
		return "You have a good overall mental health profile. Keep up your current positive habits."
	default:
		return fmt.Sprintf(
			"Your mental health appears to be within the normal range overall. Acting on the suggested improvements, or consulting a %s, can help you feel even better.",
			typeLabel(recommended))
	}
}
