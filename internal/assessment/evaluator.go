package assessment

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/wellmind/assessment-api/internal/geo"
	"github.com/wellmind/assessment-api/internal/model"
)

// Likert answer range.
const (
	minAnswerValue = 1
	maxAnswerValue = 5
)

// QuestionSource is the read-only question/category lookup the evaluator
// needs from the catalog store.
type QuestionSource interface {
	// QuestionsByIDs returns the questions for the given ids with their
	// category attached. Unknown ids are simply absent from the result.
	QuestionsByIDs(ctx context.Context, ids []int64) ([]model.Question, error)
}

// ProfessionalSource is the read-only directory lookup used to attach
// nearby professionals to a result.
type ProfessionalSource interface {
	// ProfessionalsByType returns professionals of the given type. An
	// empty type means all types. With onlyWithCoordinates set, records
	// missing either coordinate are excluded.
	ProfessionalsByType(ctx context.Context, t model.ProfessionalType, onlyWithCoordinates bool) ([]model.Professional, error)
}

// Submission is one respondent's answer set with an optional proximity
// query for the nearby-professionals attachment.
type Submission struct {
	Answers  []model.Answer `json:"answers"`
	Origin   *geo.Point     `json:"origin,omitempty"`
	RadiusKM float64        `json:"radius_km,omitempty"`
}

// Evaluator composes the scorer, classifier and narrative engine over the
// external stores. It is stateless per invocation and safe for concurrent
// use.
type Evaluator struct {
	questions     QuestionSource
	professionals ProfessionalSource
	cfg           ScoringConfig
}

// NewEvaluator creates an Evaluator over the given stores and rule set.
func NewEvaluator(questions QuestionSource, professionals ProfessionalSource, cfg ScoringConfig) *Evaluator {
	return &Evaluator{
		questions:     questions,
		professionals: professionals,
		cfg:           cfg,
	}
}

// Evaluate validates the submission, scores each answered category,
// classifies the recommended professional type, builds the overall
// narrative, and attaches nearby professionals when an origin was given.
func (e *Evaluator) Evaluate(ctx context.Context, sub Submission) (*model.AssessmentResult, error) {
	return e.evaluate(ctx, sub, true)
}

// Preview computes the same result without the strict range and duplicate
// checks; only a non-empty answer set is required. Duplicate answers, if
// present, all contribute to the averages.
func (e *Evaluator) Preview(ctx context.Context, sub Submission) (*model.AssessmentResult, error) {
	return e.evaluate(ctx, sub, false)
}

func (e *Evaluator) evaluate(ctx context.Context, sub Submission, strict bool) (*model.AssessmentResult, error) {
	if err := validateSubmission(sub, strict); err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(sub.Answers))
	for _, a := range sub.Answers {
		ids = append(ids, a.QuestionID)
	}
	questions, err := e.questions.QuestionsByIDs(ctx, ids)
	if err != nil {
		return nil, eris.Wrap(err, "assess: fetch questions")
	}

	byID := make(map[int64]model.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	// Group answers per category, keeping categories in the order they
	// first appear among the answered questions. Answers referencing
	// unknown question ids contribute nothing.
	var order []int64
	groups := make(map[int64][]answeredQuestion)
	cats := make(map[int64]model.Category)
	for _, a := range sub.Answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			continue
		}
		if _, seen := groups[q.CategoryID]; !seen {
			order = append(order, q.CategoryID)
			cats[q.CategoryID] = q.Category
		}
		groups[q.CategoryID] = append(groups[q.CategoryID], answeredQuestion{question: q, value: a.Value})
	}

	results := make([]model.CategoryResult, 0, len(order))
	for _, catID := range order {
		results = append(results, scoreCategory(e.cfg, cats[catID], groups[catID]))
	}

	// Overall score: unweighted mean of the per-category weighted
	// averages. Categories with few questions count the same as large
	// ones; kept as-is for parity with the shipped behavior.
	var overall float64
	if len(results) > 0 {
		var sum float64
		for _, r := range results {
			sum += r.WeightedScore
		}
		overall = round2(sum / float64(len(results)))
	}

	recommended, reason := classify(e.cfg, results, overall)
	narrative := overallNarrative(e.cfg, results, overall, recommended)

	result := &model.AssessmentResult{
		CategoryResults: results,
		OverallScore:    overall,
		Overall:         narrative,
		RecommendedType: recommended,
		Reason:          reason,
		CalculatedAt:    time.Now().UTC(),
	}

	if sub.Origin != nil {
		nearby, err := e.nearby(ctx, recommended, *sub.Origin, sub.RadiusKM)
		if err != nil {
			return nil, err
		}
		result.Nearby = nearby
	}

	zap.L().Debug("assess: evaluation complete",
		zap.Int("categories", len(results)),
		zap.Float64("overall", overall),
		zap.String("recommended", string(recommended)),
	)

	return result, nil
}

// nearby loads coordinate-bearing professionals of the recommended type
// and ranks them around the origin, capped at the configured maximum.
func (e *Evaluator) nearby(ctx context.Context, t model.ProfessionalType, origin geo.Point, radiusKM float64) ([]model.NearbyProfessional, error) {
	candidates, err := e.professionals.ProfessionalsByType(ctx, t, true)
	if err != nil {
		return nil, eris.Wrap(err, "assess: fetch professionals")
	}
	return geo.Nearby(candidates, geo.Filter{
		Type:     t,
		Center:   origin,
		RadiusKM: radiusKM,
		Limit:    e.cfg.MaxNearby,
	}), nil
}
