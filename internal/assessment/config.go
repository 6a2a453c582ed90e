// Package assessment implements the scoring and recommendation engine:
// per-category Likert scoring, risk-level derivation, professional-type
// classification, overall narratives, and the evaluation orchestrator.
package assessment

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wellmind/assessment-api/internal/model"
)

// AdvisoryRule maps category names (by normalized substring match) to the
// per-level recommendation texts.
type AdvisoryRule struct {
	Patterns []string `yaml:"patterns" mapstructure:"patterns"`
	High     string   `yaml:"high" mapstructure:"high"`
	Medium   string   `yaml:"medium" mapstructure:"medium"`
	Low      string   `yaml:"low" mapstructure:"low"`
}

// ScoringConfig holds the thresholds and category-name taxonomies the
// engine evaluates against. The taxonomy tables are configuration rather
// than control flow so new category spellings can be added without code
// changes.
type ScoringConfig struct {
	// Level thresholds applied to the weighted category average.
	// Lower bounds are inclusive.
	HighThreshold   float64 `yaml:"high_threshold" mapstructure:"high_threshold"`
	MediumThreshold float64 `yaml:"medium_threshold" mapstructure:"medium_threshold"`

	// SevereDepressionScore escalates a lone high depression category to a
	// psychiatrist referral when its weighted average reaches this value.
	SevereDepressionScore float64 `yaml:"severe_depression_score" mapstructure:"severe_depression_score"`

	// OverallSevereScore combined with MinHighForOverall triggers the
	// generic-severity psychiatrist rule.
	OverallSevereScore float64 `yaml:"overall_severe_score" mapstructure:"overall_severe_score"`
	MinHighForOverall  int     `yaml:"min_high_for_overall" mapstructure:"min_high_for_overall"`

	// PositiveOverallScore selects the "good profile" narrative branch.
	PositiveOverallScore float64 `yaml:"positive_overall_score" mapstructure:"positive_overall_score"`

	// MaxNearby caps the nearby-professionals list attached to a result.
	MaxNearby int `yaml:"max_nearby" mapstructure:"max_nearby"`

	// SevereTaxonomy lists category-name substrings that mark a category
	// as severe for classification. DepressionTaxonomy is the subset used
	// by the depression-specific escalation rule.
	SevereTaxonomy     []string `yaml:"severe_taxonomy" mapstructure:"severe_taxonomy"`
	DepressionTaxonomy []string `yaml:"depression_taxonomy" mapstructure:"depression_taxonomy"`

	// Advisories is the (category pattern, level) -> recommendation table.
	// FallbackAdvisory covers category names no rule matches.
	Advisories       []AdvisoryRule `yaml:"advisories" mapstructure:"advisories"`
	FallbackAdvisory string         `yaml:"fallback_advisory" mapstructure:"fallback_advisory"`
}

// DefaultScoringConfig returns the standard rule set. Taxonomy patterns
// carry both Turkish and English spellings since the question catalog has
// shipped with both.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		HighThreshold:   4.0,
		MediumThreshold: 2.5,

		SevereDepressionScore: 4.5,
		OverallSevereScore:    4.0,
		MinHighForOverall:     3,
		PositiveOverallScore:  3.5,

		MaxNearby: 10,

		SevereTaxonomy: []string{
			"depres", "anksiyete", "anxiety", "panik", "panic",
			"obsesif", "obsessive", "bipolar",
		},
		DepressionTaxonomy: []string{"depres"},

		Advisories: []AdvisoryRule{
			{
				Patterns: []string{"anksiyete", "anxiety"},
				High:     "Your anxiety level appears high. Breathing exercises, meditation and relaxation techniques can help; we recommend seeking professional support.",
				Medium:   "You show moderate anxiety symptoms. Focus on regular exercise, sufficient sleep and stress management techniques.",
				Low:      "Your anxiety level is within the normal range. Keep up your current lifestyle.",
			},
			{
				Patterns: []string{"depres"},
				High:     "You show depressive symptoms. Please seek help from a mental health professional, lean on social support and keep up daily activities.",
				Medium:   "You show some depressive symptoms. Increase social activities, exercise regularly and pick up a hobby.",
				Low:      "Your mood is in good shape. Keep up your positive lifestyle.",
			},
			{
				Patterns: []string{"stres", "stress"},
				High:     "You are experiencing a high stress level. Learn stress management techniques, balance work and life, and seek professional support if needed.",
				Medium:   "You are experiencing moderate stress. Make time for time management, prioritization and relaxation activities.",
				Low:      "Your stress level is under control. Keep up your current stress management strategies.",
			},
			// The sleep and social scales read a high score as healthy, so
			// the warning text sits on the low level, inverted relative to
			// the symptom scales above.
			{
				Patterns: []string{"uyku", "sleep"},
				High:     "Your sleep quality is in good shape. Keep up your current sleep habits.",
				Medium:   "Your sleep quality is moderate. Put some effort into improving your sleep routine.",
				Low:      "Your sleep quality appears poor. Follow sleep hygiene rules, set regular sleep hours and improve your bedroom environment.",
			},
			{
				Patterns: []string{"sosyal", "social"},
				High:     "Your social relationships look healthy. Keep up this positive state.",
				Medium:   "Your social relationships are at a moderate level. Focus on strengthening your existing relationships.",
				Low:      "You may be having difficulties in your social relationships. Try joining social activities and work on communication skills.",
			},
		},
		FallbackAdvisory: "We have no specific recommendations for this category. Focus on maintaining a balanced lifestyle overall.",
	}
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c ScoringConfig) error {
	var errs []string

	if c.MediumThreshold <= 0 {
		errs = append(errs, "medium_threshold must be > 0")
	}
	if c.HighThreshold <= c.MediumThreshold {
		errs = append(errs, "high_threshold must be > medium_threshold")
	}
	if c.SevereDepressionScore < c.HighThreshold {
		errs = append(errs, "severe_depression_score must be >= high_threshold")
	}
	if c.MinHighForOverall < 1 {
		errs = append(errs, "min_high_for_overall must be >= 1")
	}
	if c.MaxNearby < 1 {
		errs = append(errs, "max_nearby must be >= 1")
	}
	if len(c.SevereTaxonomy) == 0 {
		errs = append(errs, "severe_taxonomy must not be empty")
	}
	if len(c.DepressionTaxonomy) == 0 {
		errs = append(errs, "depression_taxonomy must not be empty")
	}
	if c.FallbackAdvisory == "" {
		errs = append(errs, "fallback_advisory must not be empty")
	}
	for i, rule := range c.Advisories {
		if len(rule.Patterns) == 0 {
			errs = append(errs, fmt.Sprintf("advisories[%d] has no patterns", i))
		}
		if rule.High == "" || rule.Medium == "" || rule.Low == "" {
			errs = append(errs, fmt.Sprintf("advisories[%d] is missing a level text", i))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("assess: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// matchesAny reports whether the category name contains any of the given
// taxonomy patterns, compared case-insensitively. Names are lowercased
// both with the invariant rules and with Turkish casing rules, so that
// "Depresyon", "İlişkiler" and all-caps English names all match; the
// catalog has shipped category names in both languages.
func matchesAny(name string, patterns []string) bool {
	plain := strings.ToLower(name)
	turkish := cases.Lower(language.Turkish).String(name)
	for _, p := range patterns {
		lp := strings.ToLower(p)
		if strings.Contains(plain, lp) || strings.Contains(turkish, lp) {
			return true
		}
	}
	return false
}

// advisoryFor looks up the recommendation text for a category name at the
// given level. Unmatched names fall back to the generic advisory
// regardless of level.
func (c ScoringConfig) advisoryFor(name string, level model.ScoreLevel) string {
	for _, rule := range c.Advisories {
		if !matchesAny(name, rule.Patterns) {
			continue
		}
		switch level {
		case model.LevelHigh:
			return rule.High
		case model.LevelMedium:
			return rule.Medium
		default:
			return rule.Low
		}
	}
	return c.FallbackAdvisory
}
