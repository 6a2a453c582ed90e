package assessment

import (
	"fmt"
	"strings"

	"github.com/wellmind/assessment-api/internal/model"
)

// classify decides which professional type to recommend from the category
// results and the overall score. Rules are evaluated in order; the first
// match wins and the reason text mirrors the rule that fired.
func classify(cfg ScoringConfig, results []model.CategoryResult, overall float64) (model.ProfessionalType, string) {
	var high []model.CategoryResult
	for _, r := range results {
		if r.Level == model.LevelHigh {
			high = append(high, r)
		}
	}

	// Multiple high-risk areas, at least one in the severe taxonomy.
	if len(high) >= 2 {
		var severe []string
		for _, r := range high {
			if matchesAny(r.CategoryName, cfg.SevereTaxonomy) {
				severe = append(severe, r.CategoryName)
			}
		}
		if len(severe) > 0 {
			return model.TypePsychiatrist, fmt.Sprintf(
				"High-severity symptoms in multiple areas, including %s, which may require medical evaluation and medication support. We recommend consulting a psychiatrist.",
				strings.Join(severe, ", "))
		}
	}

	// A single high depression category at severe intensity.
	for _, r := range high {
		if matchesAny(r.CategoryName, cfg.DepressionTaxonomy) && r.WeightedScore >= cfg.SevereDepressionScore {
			return model.TypePsychiatrist, fmt.Sprintf(
				"Your %s score indicates severe depressive symptoms. A psychiatrist can assess whether medication should accompany therapy.",
				r.CategoryName)
		}
	}

	// Broad severity across the whole profile.
	if overall >= cfg.OverallSevereScore && len(high) >= cfg.MinHighForOverall {
		return model.TypePsychiatrist,
			"Your overall severity level is high across several areas. We recommend a psychiatric evaluation to determine the right treatment plan."
	}

	return model.TypePsychologist,
		"Your symptom profile can be addressed with therapy and counseling. We recommend consulting a psychologist."
}
