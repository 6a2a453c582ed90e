// Package model defines the domain records shared across the assessment
// engine, the stores, and the HTTP layer.
package model

import "time"

// ScoreLevel is the ordinal risk tier derived from a category's weighted
// average score.
type ScoreLevel string

const (
	LevelLow    ScoreLevel = "low"
	LevelMedium ScoreLevel = "medium"
	LevelHigh   ScoreLevel = "high"
)

// Valid reports whether the level is one of the closed set of tiers.
func (l ScoreLevel) Valid() bool {
	switch l {
	case LevelLow, LevelMedium, LevelHigh:
		return true
	}
	return false
}

// ProfessionalType identifies the kind of care professional.
type ProfessionalType string

const (
	TypePsychologist ProfessionalType = "psychologist"
	TypePsychiatrist ProfessionalType = "psychiatrist"
)

// Valid reports whether the type is one of the closed set of variants.
func (t ProfessionalType) Valid() bool {
	return t == TypePsychologist || t == TypePsychiatrist
}

// Category groups questions into a named assessment area. Names are unique
// case-insensitively; taxonomy rules match on them.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Question is a single Likert-scale item. Weight is a positive integer
// (default 1) and feeds the weighted category average.
type Question struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	Weight     int       `json:"weight"`
	CategoryID int64     `json:"category_id"`
	Category   Category  `json:"category"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Answer is one respondent answer: a question id and a Likert value in [1,5].
type Answer struct {
	QuestionID int64 `json:"question_id"`
	Value      int   `json:"value"`
}

// CategoryResult is the per-category outcome of a single submission.
// Score is the unweighted mean of answer values; WeightedScore is
// sum(value*weight)/sum(weight) over answered questions only. Both are
// rounded to 2 decimals.
type CategoryResult struct {
	CategoryID     int64      `json:"category_id"`
	CategoryName   string     `json:"category_name"`
	Score          float64    `json:"score"`
	WeightedScore  float64    `json:"weighted_score"`
	Level          ScoreLevel `json:"level"`
	Recommendation string     `json:"recommendation"`
}

// AssessmentResult is the composed outcome of one evaluation. It is
// transient: computed fresh per request and never persisted.
type AssessmentResult struct {
	CategoryResults []CategoryResult     `json:"category_results"`
	OverallScore    float64              `json:"overall_score"`
	Overall         string               `json:"overall_assessment"`
	RecommendedType ProfessionalType     `json:"recommended_type"`
	Reason          string               `json:"reason"`
	Nearby          []NearbyProfessional `json:"nearby_professionals,omitempty"`
	CalculatedAt    time.Time            `json:"calculated_at"`
}

// Professional is a directory record for a care professional. Latitude and
// Longitude are either both present or both absent.
type Professional struct {
	ID             int64            `json:"id"`
	FirstName      string           `json:"first_name"`
	LastName       string           `json:"last_name"`
	Specialization string           `json:"specialization"`
	Type           ProfessionalType `json:"type"`
	Phone          string           `json:"phone"`
	Email          string           `json:"email"`
	Address        string           `json:"address"`
	Latitude       *float64         `json:"latitude,omitempty"`
	Longitude      *float64         `json:"longitude,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (p Professional) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// NearbyProfessional annotates a directory record with its computed
// distance from a query origin, rounded to 0.1 km for presentation.
type NearbyProfessional struct {
	Professional
	DistanceKM float64 `json:"distance_km"`
}
